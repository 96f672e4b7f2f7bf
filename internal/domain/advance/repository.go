package advance

import (
	"context"
	"time"

	"github.com/obraplan/payroll-backend-go/internal/domain/person"
)

type AdvanceRepository interface {
	// ListByRange returns all advances of the regime dated in [start, end].
	ListByRange(ctx context.Context, regime person.Regime, start, end time.Time) ([]Advance, error)
}
