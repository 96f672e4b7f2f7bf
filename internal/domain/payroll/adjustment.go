package payroll

import (
	"fmt"
	"time"

	"github.com/obraplan/payroll-backend-go/internal/domain/person"
	"github.com/shopspring/decimal"
)

// AdjustmentKey namespaces a person id by regime, because worker and staff ids
// come from independent sequences and may collide.
func AdjustmentKey(regime person.Regime, personID int64) string {
	return fmt.Sprintf("%s_%d", regime, personID)
}

// Adjustment is a sparse set of manual overrides. A nil field keeps the
// computed value; a set field replaces it.
type Adjustment struct {
	DailyRate         *decimal.Decimal `json:"daily_rate,omitempty"`
	BasicSalary       *decimal.Decimal `json:"basic_salary,omitempty"`
	Dominical         *decimal.Decimal `json:"dominical,omitempty"`
	BUC               *decimal.Decimal `json:"buc,omitempty"`
	Mobility          *decimal.Decimal `json:"mobility,omitempty"`
	SchoolAssignment  *decimal.Decimal `json:"school_assignment,omitempty"`
	FamilyAllowance   *decimal.Decimal `json:"family_allowance,omitempty"`
	Overtime60        *decimal.Decimal `json:"overtime_60,omitempty"`
	Overtime100       *decimal.Decimal `json:"overtime_100,omitempty"`
	HolidayPay        *decimal.Decimal `json:"holiday_pay,omitempty"`
	Vacation          *decimal.Decimal `json:"vacation,omitempty"`
	Gratification     *decimal.Decimal `json:"gratification,omitempty"`
	Indemnity         *decimal.Decimal `json:"indemnity,omitempty"`
	VoluntaryBonus    *decimal.Decimal `json:"voluntary_bonus,omitempty"`
	PerDiem           *decimal.Decimal `json:"per_diem,omitempty"`
	OtherDeduction    *decimal.Decimal `json:"other_deduction,omitempty"`
	WorkedHolidayDays *int             `json:"worked_holiday_days,omitempty"`
	UnworkedHolidays  *int             `json:"unworked_holidays,omitempty"`
}

// IsEmpty reports whether no override is set.
func (a Adjustment) IsEmpty() bool {
	return a == Adjustment{}
}

func pick(auto decimal.Decimal, override *decimal.Decimal) decimal.Decimal {
	if override != nil {
		return *override
	}
	return auto
}

// MergeLines overlays the adjustment on the computed lines. Each set field
// replaces its line; nothing is added. Unworked paid holidays are paid at the
// effective daily rate.
func MergeLines(auto Lines, adj Adjustment) Lines {
	merged := Lines{
		DailyRate:          pick(auto.DailyRate, adj.DailyRate),
		BasicSalary:        pick(auto.BasicSalary, adj.BasicSalary),
		Dominical:          pick(auto.Dominical, adj.Dominical),
		BUC:                pick(auto.BUC, adj.BUC),
		Mobility:           pick(auto.Mobility, adj.Mobility),
		SchoolAssignment:   pick(auto.SchoolAssignment, adj.SchoolAssignment),
		FamilyAllowance:    pick(auto.FamilyAllowance, adj.FamilyAllowance),
		Overtime60:         pick(auto.Overtime60, adj.Overtime60),
		Overtime100:        pick(auto.Overtime100, adj.Overtime100),
		HolidayPay:         pick(auto.HolidayPay, adj.HolidayPay),
		UnworkedHolidayPay: auto.UnworkedHolidayPay,
		Vacation:           pick(auto.Vacation, adj.Vacation),
		Gratification:      pick(auto.Gratification, adj.Gratification),
		Indemnity:          pick(auto.Indemnity, adj.Indemnity),
		VoluntaryBonus:     pick(auto.VoluntaryBonus, adj.VoluntaryBonus),
		PerDiem:            pick(auto.PerDiem, adj.PerDiem),
		OtherDeduction:     pick(auto.OtherDeduction, adj.OtherDeduction),
	}
	if adj.UnworkedHolidays != nil {
		merged.UnworkedHolidayPay = decimal.NewFromInt(int64(*adj.UnworkedHolidays)).Mul(merged.DailyRate)
	}
	return merged
}

func ptr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

// WithDailyRate sets the daily-rate override and recomputes the fields derived
// from it: basic salary, dominical, BUC, holiday pay and the social benefits.
// Mobility, school assignment and the other leaves are left as they are.
func (a Adjustment) WithDailyRate(rate decimal.Decimal, f Factors) Adjustment {
	a.DailyRate = ptr(rate)

	basic := rate.Mul(decimal.NewFromInt(int64(f.DaysWorked)))
	a.BasicSalary = ptr(basic)
	a.Dominical = ptr(rate.Mul(f.DominicalDays))
	a.BUC = ptr(rate.Mul(f.DaysForBonuses).Mul(f.BUCRate))

	holidayDays := f.WorkedHolidayDays
	if a.WorkedHolidayDays != nil {
		holidayDays = *a.WorkedHolidayDays
	}
	a.HolidayPay = ptr(holidayPay(holidayDays, rate, f.HolidayFactor))

	a.Vacation = ptr(basic.Mul(f.VacationPct))
	a.Gratification = ptr(basic.Mul(f.GratificationPct))
	a.Indemnity = ptr(basic.Mul(f.IndemnityPct))
	return a
}

// WithWorkedHolidayDays sets the worked-holiday count and recomputes holiday
// pay only.
func (a Adjustment) WithWorkedHolidayDays(days int, f Factors) Adjustment {
	a.WorkedHolidayDays = &days
	rate := f.DailyRate
	if a.DailyRate != nil {
		rate = *a.DailyRate
	}
	a.HolidayPay = ptr(holidayPay(days, rate, f.HolidayFactor))
	return a
}

func holidayPay(days int, rate, factor decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(int64(days)).Mul(rate).Mul(factor)
}

// AdjustmentRecord is the durable, period-scoped adjustment of one person.
type AdjustmentRecord struct {
	ID          string
	Regime      person.Regime
	PersonID    int64
	PeriodStart time.Time
	PeriodEnd   time.Time
	Overrides   Adjustment
	UpdatedBy   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (r AdjustmentRecord) Key() string {
	return AdjustmentKey(r.Regime, r.PersonID)
}
