package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPresent = "Presente"
	StatusAbsent  = "Falta"
)

// Record is one attendance row of a worker or staff member for a calendar date.
type Record struct {
	ID                int64
	PersonID          int64
	Date              time.Time
	Status            string
	OvertimeHours     *decimal.Decimal
	WorkedHolidayDays int
	CreatedAt         time.Time
}

// Summary is the per-person reduction of attendance records for a period.
type Summary struct {
	DaysWorked         int             `json:"days_worked"`
	OvertimeHours60    decimal.Decimal `json:"overtime_hours_60"`
	OvertimeHours100   decimal.Decimal `json:"overtime_hours_100"`
	TotalOvertimeHours decimal.Decimal `json:"total_overtime_hours"`
	WorkedHolidayDays  int             `json:"worked_holiday_days"`
}
