package payroll

import (
	"fmt"
	"time"

	"github.com/obraplan/payroll-backend-go/internal/domain/person"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Period is an inclusive payroll date range.
type Period struct {
	Start time.Time
	End   time.Time
}

// Key identifies the period in caches and adjustment rows.
func (p Period) Key() string {
	return p.Start.Format(dateLayout) + "_" + p.End.Format(dateLayout)
}

func (p Period) String() string {
	return fmt.Sprintf("%s to %s", p.Start.Format(dateLayout), p.End.Format(dateLayout))
}

// Lines holds every income and deduction line item of a payslip. The payslip
// renderer and the register export enumerate these by their JSON names.
type Lines struct {
	DailyRate          decimal.Decimal `json:"daily_rate" csv:"daily_rate"`
	BasicSalary        decimal.Decimal `json:"basic_salary" csv:"basic_salary"`
	Dominical          decimal.Decimal `json:"dominical" csv:"dominical"`
	BUC                decimal.Decimal `json:"buc" csv:"buc"`
	Mobility           decimal.Decimal `json:"mobility" csv:"mobility"`
	SchoolAssignment   decimal.Decimal `json:"school_assignment" csv:"school_assignment"`
	FamilyAllowance    decimal.Decimal `json:"family_allowance" csv:"family_allowance"`
	Overtime60         decimal.Decimal `json:"overtime_60" csv:"overtime_60"`
	Overtime100        decimal.Decimal `json:"overtime_100" csv:"overtime_100"`
	HolidayPay         decimal.Decimal `json:"holiday_pay" csv:"holiday_pay"`
	UnworkedHolidayPay decimal.Decimal `json:"unworked_holiday_pay" csv:"unworked_holiday_pay"`
	Vacation           decimal.Decimal `json:"vacation" csv:"vacation"`
	Gratification      decimal.Decimal `json:"gratification" csv:"gratification"`
	Indemnity          decimal.Decimal `json:"indemnity" csv:"indemnity"`
	VoluntaryBonus     decimal.Decimal `json:"voluntary_bonus" csv:"voluntary_bonus"`
	PerDiem            decimal.Decimal `json:"per_diem" csv:"per_diem"`
	OtherDeduction     decimal.Decimal `json:"other_deduction" csv:"other_deduction"`
}

// Income sums the income lines. The daily rate is a factor, not income.
func (l Lines) Income() decimal.Decimal {
	return decimal.Sum(
		l.BasicSalary,
		l.Dominical,
		l.BUC,
		l.Mobility,
		l.SchoolAssignment,
		l.FamilyAllowance,
		l.Overtime60,
		l.Overtime100,
		l.HolidayPay,
		l.UnworkedHolidayPay,
		l.Vacation,
		l.Gratification,
		l.Indemnity,
		l.VoluntaryBonus,
		l.PerDiem,
	)
}

// PensionKind tells how the pension deduction was resolved.
type PensionKind string

const (
	PensionKindONP       PensionKind = "onp"
	PensionKindAFP       PensionKind = "afp"
	PensionKindNone      PensionKind = "none"
	PensionKindReference PensionKind = "reference"
)

// Pension is the resolved pension deduction. Reference marks the unconfirmed
// flat-rate fallback used when the AFP could not be matched.
type Pension struct {
	Kind      PensionKind     `json:"kind"`
	Label     string          `json:"label"`
	Rate      decimal.Decimal `json:"rate"`
	Base      decimal.Decimal `json:"base"`
	Amount    decimal.Decimal `json:"amount"`
	Reference bool            `json:"reference"`
}

// Factors are the inputs used to derive the lines, kept so derived defaults can
// be reconstructed when a reviewer edits an adjustment.
type Factors struct {
	DaysWorked         int             `json:"days_worked"`
	DailyRate          decimal.Decimal `json:"daily_rate"`
	HourlyRate         decimal.Decimal `json:"hourly_rate"`
	DominicalDays      decimal.Decimal `json:"dominical_days"`
	DaysForBonuses     decimal.Decimal `json:"days_for_bonuses"`
	BUCRate            decimal.Decimal `json:"buc_rate"`
	MobilityDaily      decimal.Decimal `json:"mobility_daily"`
	SchoolDaily        decimal.Decimal `json:"school_daily"`
	OvertimeHours60    decimal.Decimal `json:"overtime_hours_60"`
	OvertimeHours100   decimal.Decimal `json:"overtime_hours_100"`
	Overtime60Factor   decimal.Decimal `json:"overtime_60_factor"`
	Overtime100Factor  decimal.Decimal `json:"overtime_100_factor"`
	WorkedHolidayDays  int             `json:"worked_holiday_days"`
	HolidayFactor      decimal.Decimal `json:"holiday_factor"`
	VacationPct        decimal.Decimal `json:"vacation_pct"`
	GratificationPct   decimal.Decimal `json:"gratification_pct"`
	IndemnityPct       decimal.Decimal `json:"indemnity_pct"`
	ConafovicerRate    decimal.Decimal `json:"conafovicer_rate"`
	EssaludRate        decimal.Decimal `json:"essalud_rate"`
	MonthlySalary      decimal.Decimal `json:"monthly_salary"`
	RMV                decimal.Decimal `json:"rmv"`
	FamilyAllowancePct decimal.Decimal `json:"family_allowance_pct"`
}

// Details is the full breakdown of a calculation.
type Details struct {
	Lines
	Pension     Pension         `json:"pension"`
	Conafovicer decimal.Decimal `json:"conafovicer"`
	Advances    decimal.Decimal `json:"advances"`
	Essalud     decimal.Decimal `json:"essalud"`
	Factors     Factors         `json:"factors"`
}

// CalculationResult is recomputed on every view and never persisted.
type CalculationResult struct {
	Regime         person.Regime   `json:"regime"`
	PersonID       int64           `json:"person_id"`
	FullName       string          `json:"full_name"`
	DocumentType   string          `json:"document_type"`
	DocumentNumber string          `json:"document_number"`
	Category       string          `json:"category"`
	DaysWorked     int             `json:"days_worked"`
	TotalIncome    decimal.Decimal `json:"total_income"`
	TotalDiscounts decimal.Decimal `json:"total_discounts"`
	TotalAdvances  decimal.Decimal `json:"total_advances"`
	NetPay         decimal.Decimal `json:"net_pay"`
	Adjusted       bool            `json:"adjusted"`
	Details        Details         `json:"details"`
}

// Key returns the regime-qualified person key.
func (r CalculationResult) Key() string {
	return AdjustmentKey(r.Regime, r.PersonID)
}

// RunState follows a cached run through Idle, Calculating and Ready.
type RunState string

const (
	RunStateIdle        RunState = "idle"
	RunStateCalculating RunState = "calculating"
	RunStateReady       RunState = "ready"
)

// SkippedPerson records a person dropped from a run because their calculation failed.
type SkippedPerson struct {
	PersonID int64  `json:"person_id"`
	Reason   string `json:"reason"`
}

type RunTotals struct {
	Persons        int             `json:"persons"`
	TotalIncome    decimal.Decimal `json:"total_income"`
	TotalDiscounts decimal.Decimal `json:"total_discounts"`
	TotalAdvances  decimal.Decimal `json:"total_advances"`
	NetPay         decimal.Decimal `json:"net_pay"`
	Essalud        decimal.Decimal `json:"essalud"`
}

// Add accumulates one result into the totals.
func (t RunTotals) Add(r CalculationResult) RunTotals {
	t.Persons++
	t.TotalIncome = t.TotalIncome.Add(r.TotalIncome)
	t.TotalDiscounts = t.TotalDiscounts.Add(r.TotalDiscounts)
	t.TotalAdvances = t.TotalAdvances.Add(r.TotalAdvances)
	t.NetPay = t.NetPay.Add(r.NetPay)
	t.Essalud = t.Essalud.Add(r.Details.Essalud)
	return t
}

// Run is one computed page (or the full population for exports).
type Run struct {
	RunID      string              `json:"run_id"`
	Regime     person.Regime       `json:"regime"`
	Start      string              `json:"start"`
	End        string              `json:"end"`
	Page       int                 `json:"page"`
	Limit      int                 `json:"limit"`
	State      RunState            `json:"state"`
	Records    []CalculationResult `json:"records"`
	TotalCount int64               `json:"total_count"`
	Totals     RunTotals           `json:"totals"`
	Skipped    []SkippedPerson     `json:"skipped,omitempty"`
	ComputedAt time.Time           `json:"computed_at"`
}
