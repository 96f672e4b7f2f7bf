package payroll

import (
	"context"

	"github.com/obraplan/payroll-backend-go/internal/domain/person"
)

// AdjustmentRepository persists manual adjustments per regime, person and period.
type AdjustmentRepository interface {
	Get(ctx context.Context, regime person.Regime, personID int64, period Period) (AdjustmentRecord, error)
	// ListForPeriod returns the period's adjustments indexed by AdjustmentKey.
	ListForPeriod(ctx context.Context, regime person.Regime, period Period) (map[string]AdjustmentRecord, error)
	Upsert(ctx context.Context, record AdjustmentRecord) (AdjustmentRecord, error)
	Delete(ctx context.Context, regime person.Regime, personID int64, period Period) error
}
