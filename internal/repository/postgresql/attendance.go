package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/obraplan/payroll-backend-go/internal/domain/attendance"
	"github.com/obraplan/payroll-backend-go/internal/domain/person"
	"github.com/obraplan/payroll-backend-go/internal/pkg/database"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

// ListByRange implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByRange(ctx context.Context, regime person.Regime, start, end time.Time) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	fk := regime.ForeignKey()
	query := fmt.Sprintf(`
		SELECT id, %s, date, status, overtime_hours, worked_holiday_days, created_at
		FROM attendance
		WHERE %s IS NOT NULL
		  AND date BETWEEN $1 AND $2
		ORDER BY %s, date
	`, fk, fk, fk)

	rows, err := q.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	defer rows.Close()

	records := make([]attendance.Record, 0)
	for rows.Next() {
		var rec attendance.Record
		if err := rows.Scan(
			&rec.ID, &rec.PersonID, &rec.Date, &rec.Status,
			&rec.OvertimeHours, &rec.WorkedHolidayDays, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance: %w", err)
	}

	return records, nil
}
