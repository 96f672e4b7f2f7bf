package attendance

import "github.com/shopspring/decimal"

// dailyOvertimeTier is the number of overtime hours per day paid at the 60% premium.
var dailyOvertimeTier = decimal.NewFromInt(2)

// SplitOvertime splits one day's overtime hours into the 60% tier (first two
// hours) and the 100% tier (the excess). Non-positive hours contribute nothing.
func SplitOvertime(dailyHours decimal.Decimal) (at60, at100 decimal.Decimal) {
	if !dailyHours.IsPositive() {
		return decimal.Zero, decimal.Zero
	}
	if dailyHours.LessThanOrEqual(dailyOvertimeTier) {
		return dailyHours, decimal.Zero
	}
	return dailyOvertimeTier, dailyHours.Sub(dailyOvertimeTier)
}

// Aggregate reduces a person's records into the day, overtime and holiday
// totals the calculators consume. The overtime tier is applied per record.
func Aggregate(records []Record) Summary {
	s := Summary{
		OvertimeHours60:    decimal.Zero,
		OvertimeHours100:   decimal.Zero,
		TotalOvertimeHours: decimal.Zero,
	}
	for _, r := range records {
		if r.Status == StatusPresent {
			s.DaysWorked++
		}
		if r.OvertimeHours != nil {
			at60, at100 := SplitOvertime(*r.OvertimeHours)
			s.OvertimeHours60 = s.OvertimeHours60.Add(at60)
			s.OvertimeHours100 = s.OvertimeHours100.Add(at100)
			s.TotalOvertimeHours = s.TotalOvertimeHours.Add(at60).Add(at100)
		}
		if r.WorkedHolidayDays > 0 {
			s.WorkedHolidayDays += r.WorkedHolidayDays
		}
	}
	return s
}

// GroupByPerson indexes records by person id.
func GroupByPerson(records []Record) map[int64][]Record {
	grouped := make(map[int64][]Record)
	for _, r := range records {
		grouped[r.PersonID] = append(grouped[r.PersonID], r)
	}
	return grouped
}
