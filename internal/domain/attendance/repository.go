package attendance

import (
	"context"
	"time"

	"github.com/obraplan/payroll-backend-go/internal/domain/person"
)

// AttendanceRepository reads attendance rows for payroll.
type AttendanceRepository interface {
	// ListByRange returns every row linked to the regime whose date falls in
	// [start, end], for all persons. Filtering by person happens in memory.
	ListByRange(ctx context.Context, regime person.Regime, start, end time.Time) ([]Record, error)
}
