package payroll

import (
	"github.com/obraplan/payroll-backend-go/internal/domain/attendance"
	"github.com/obraplan/payroll-backend-go/internal/domain/payroll"
	"github.com/obraplan/payroll-backend-go/internal/domain/payrollconfig"
	"github.com/obraplan/payroll-backend-go/internal/domain/person"
	"github.com/shopspring/decimal"
)

const (
	// fullWorkWeek is the number of days that earns the paid rest day.
	fullWorkWeek = 6
	// staffMonthDays is the fixed month length used to prorate salaries.
	staffMonthDays = 30
)

var staffMonth = decimal.NewFromInt(staffMonthDays)

// Input carries everything a calculator needs for one person and period.
type Input struct {
	Person        person.Person
	DaysWorked    int
	TotalAdvances decimal.Decimal
	Attendance    attendance.Summary
	Adjustment    payroll.Adjustment
}

// CalculateWorkerPay computes the weekly pay of a unionised construction
// worker. It never fails: missing configuration contributes zero and an
// unresolved AFP falls back to the reference rate.
func CalculateWorkerPay(in Input, snap payrollconfig.Snapshot) payroll.CalculationResult {
	cfg := snap.Config
	p := in.Person

	rate := cfg.ForCategory(payrollconfig.PrefixJornal, p.Category)
	if p.CustomDailyRate != nil && p.CustomDailyRate.IsPositive() {
		rate = *p.CustomDailyRate
	}

	days := decimal.NewFromInt(int64(in.DaysWorked))
	dominicalDays := decimal.Zero
	if in.DaysWorked == fullWorkWeek {
		dominicalDays = decimal.NewFromInt(1)
	}

	f := payroll.Factors{
		DaysWorked:        in.DaysWorked,
		DailyRate:         rate,
		DominicalDays:     dominicalDays,
		DaysForBonuses:    days,
		BUCRate:           cfg.ForCategory(payrollconfig.PrefixBUC, p.Category),
		MobilityDaily:     cfg.Get(payrollconfig.KeyMobilityDaily),
		SchoolDaily:       cfg.Get(payrollconfig.KeySchoolDaily),
		OvertimeHours60:   in.Attendance.OvertimeHours60,
		OvertimeHours100:  in.Attendance.OvertimeHours100,
		Overtime60Factor:  cfg.Get(payrollconfig.KeyOvertime60Factor),
		Overtime100Factor: cfg.Get(payrollconfig.KeyOvertime100Factor),
		WorkedHolidayDays: in.Attendance.WorkedHolidayDays,
		HolidayFactor:     cfg.Get(payrollconfig.KeyHolidayFactor),
		VacationPct:       cfg.Get(payrollconfig.KeyVacationPct),
		GratificationPct:  cfg.Get(payrollconfig.KeyGratificationPct),
		IndemnityPct:      cfg.Get(payrollconfig.KeyIndemnityPct),
		ConafovicerRate:   cfg.Get(payrollconfig.KeyConafovicer),
		EssaludRate:       cfg.Get(payrollconfig.KeyEssalud),
	}
	workdayHours := cfg.Get(payrollconfig.KeyWorkdayHours)
	if workdayHours.IsPositive() {
		f.HourlyRate = rate.Div(workdayHours)
	}

	basic := days.Mul(rate)
	auto := payroll.Lines{
		DailyRate:   rate,
		BasicSalary: basic,
		Dominical:   rate.Mul(dominicalDays),
		BUC:         basic.Mul(f.BUCRate),
		Mobility:    days.Mul(f.MobilityDaily),
		Overtime60:  overtimePay(f.OvertimeHours60, rate, f.Overtime60Factor, workdayHours),
		Overtime100: overtimePay(f.OvertimeHours100, rate, f.Overtime100Factor, workdayHours),
		HolidayPay:  decimal.NewFromInt(int64(f.WorkedHolidayDays)).Mul(rate).Mul(f.HolidayFactor),
	}
	if p.HasChildren {
		auto.SchoolAssignment = days.Mul(f.SchoolDaily)
	}

	lines := payroll.MergeLines(auto, in.Adjustment)
	pensionBase := lines.Income().Sub(lines.PerDiem)
	pension := resolvePension(p, snap, pensionBase, cfg.Get(payrollconfig.KeyONP))
	conafovicer := lines.BasicSalary.Mul(f.ConafovicerRate)

	return finish(p, in, lines, f, pension, conafovicer, pensionBase.Mul(f.EssaludRate))
}

// CalculateStaffPay computes the monthly pay of salaried staff, prorating the
// salary and the family allowance over a fixed 30-day month.
func CalculateStaffPay(in Input, snap payrollconfig.Snapshot) payroll.CalculationResult {
	cfg := snap.Config
	p := in.Person

	salary := decimal.Zero
	if p.Salary != nil {
		salary = *p.Salary
	}
	days := decimal.NewFromInt(int64(in.DaysWorked))

	f := payroll.Factors{
		DaysWorked:         in.DaysWorked,
		DailyRate:          salary.DivRound(staffMonth, 2),
		MonthlySalary:      salary,
		RMV:                cfg.Get(payrollconfig.KeyRMV),
		FamilyAllowancePct: cfg.Get(payrollconfig.KeyFamilyAllowancePct),
		VacationPct:        cfg.Get(payrollconfig.KeyVacationPct),
		GratificationPct:   cfg.Get(payrollconfig.KeyGratificationPct),
		IndemnityPct:       cfg.Get(payrollconfig.KeyIndemnityPct),
		EssaludRate:        cfg.Get(payrollconfig.KeyStaffEssalud),
	}

	auto := payroll.Lines{
		DailyRate:   f.DailyRate,
		BasicSalary: prorate(salary, days),
	}
	if p.HasChildren {
		auto.FamilyAllowance = prorate(f.RMV.Mul(f.FamilyAllowancePct), days)
	}

	lines := payroll.MergeLines(auto, in.Adjustment)
	pensionBase := lines.Income().Sub(lines.PerDiem)
	pension := resolvePension(p, snap, pensionBase, cfg.Get(payrollconfig.KeyStaffONP))

	return finish(p, in, lines, f, pension, decimal.Zero, pensionBase.Mul(f.EssaludRate))
}

// prorate multiplies before dividing so full months stay exact.
func prorate(monthly, days decimal.Decimal) decimal.Decimal {
	return monthly.Mul(days).Div(staffMonth)
}

func overtimePay(hours, dailyRate, factor, workdayHours decimal.Decimal) decimal.Decimal {
	if !workdayHours.IsPositive() {
		return decimal.Zero
	}
	return hours.Mul(dailyRate).Mul(factor).Div(workdayHours)
}

func finish(
	p person.Person,
	in Input,
	lines payroll.Lines,
	f payroll.Factors,
	pension payroll.Pension,
	conafovicer decimal.Decimal,
	essalud decimal.Decimal,
) payroll.CalculationResult {
	income := lines.Income()
	discounts := decimal.Sum(pension.Amount, conafovicer, in.TotalAdvances, lines.OtherDeduction)

	return payroll.CalculationResult{
		Regime:         p.Regime,
		PersonID:       p.ID,
		FullName:       p.FullName,
		DocumentType:   p.DocumentType,
		DocumentNumber: p.DocumentNumber,
		Category:       p.Category,
		DaysWorked:     in.DaysWorked,
		TotalIncome:    income,
		TotalDiscounts: discounts,
		TotalAdvances:  in.TotalAdvances,
		NetPay:         income.Sub(discounts),
		Adjusted:       !in.Adjustment.IsEmpty(),
		Details: payroll.Details{
			Lines:       lines,
			Pension:     pension,
			Conafovicer: conafovicer,
			Advances:    in.TotalAdvances,
			Essalud:     essalud,
			Factors:     f,
		},
	}
}

// Calculate dispatches to the calculator of the person's regime.
func Calculate(in Input, snap payrollconfig.Snapshot) payroll.CalculationResult {
	if in.Person.Regime == person.RegimeStaff {
		return CalculateStaffPay(in, snap)
	}
	return CalculateWorkerPay(in, snap)
}
