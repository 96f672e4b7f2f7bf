package postgresql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/obraplan/payroll-backend-go/internal/domain/payroll"
	"github.com/obraplan/payroll-backend-go/internal/domain/person"
	"github.com/obraplan/payroll-backend-go/internal/pkg/database"
)

type adjustmentRepository struct {
	db *database.DB
}

func NewAdjustmentRepository(db *database.DB) payroll.AdjustmentRepository {
	return &adjustmentRepository{db: db}
}

const adjustmentColumns = `id, regime, person_id, period_start, period_end, overrides, updated_by, created_at, updated_at`

func scanAdjustment(row pgx.Row) (payroll.AdjustmentRecord, error) {
	var rec payroll.AdjustmentRecord
	var id uuid.UUID
	var overrides []byte

	err := row.Scan(
		&id, &rec.Regime, &rec.PersonID, &rec.PeriodStart, &rec.PeriodEnd,
		&overrides, &rec.UpdatedBy, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return payroll.AdjustmentRecord{}, err
	}
	rec.ID = id.String()

	if len(overrides) > 0 {
		if err := json.Unmarshal(overrides, &rec.Overrides); err != nil {
			return payroll.AdjustmentRecord{}, fmt.Errorf("failed to decode overrides of %s: %w", rec.Key(), err)
		}
	}
	return rec, nil
}

// Get implements payroll.AdjustmentRepository.
func (r *adjustmentRepository) Get(ctx context.Context, regime person.Regime, personID int64, period payroll.Period) (payroll.AdjustmentRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + adjustmentColumns + `
		FROM payroll_adjustments
		WHERE regime = $1 AND person_id = $2 AND period_start = $3 AND period_end = $4
	`
	rec, err := scanAdjustment(q.QueryRow(ctx, query, string(regime), personID, period.Start, period.End))
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.AdjustmentRecord{}, payroll.ErrAdjustmentNotFound
		}
		return payroll.AdjustmentRecord{}, fmt.Errorf("failed to get payroll adjustment: %w", err)
	}
	return rec, nil
}

// ListForPeriod implements payroll.AdjustmentRepository.
func (r *adjustmentRepository) ListForPeriod(ctx context.Context, regime person.Regime, period payroll.Period) (map[string]payroll.AdjustmentRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + adjustmentColumns + `
		FROM payroll_adjustments
		WHERE regime = $1 AND period_start = $2 AND period_end = $3
	`
	rows, err := q.Query(ctx, query, string(regime), period.Start, period.End)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll adjustments: %w", err)
	}
	defer rows.Close()

	records := make(map[string]payroll.AdjustmentRecord)
	for rows.Next() {
		rec, err := scanAdjustment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll adjustment: %w", err)
		}
		records[rec.Key()] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payroll adjustments: %w", err)
	}
	return records, nil
}

// Upsert implements payroll.AdjustmentRepository. The whole override set is
// replaced, so clearing a field in the request clears it in storage.
func (r *adjustmentRepository) Upsert(ctx context.Context, record payroll.AdjustmentRecord) (payroll.AdjustmentRecord, error) {
	q := GetQuerier(ctx, r.db)

	overrides, err := json.Marshal(record.Overrides)
	if err != nil {
		return payroll.AdjustmentRecord{}, fmt.Errorf("failed to encode overrides: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return payroll.AdjustmentRecord{}, fmt.Errorf("failed to generate adjustment id: %w", err)
	}

	query := `
		INSERT INTO payroll_adjustments (
			id, adjustment_key, regime, person_id, period_start, period_end, overrides, updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT ON CONSTRAINT uk_payroll_adjustment_period DO UPDATE SET
			overrides = EXCLUDED.overrides,
			updated_by = EXCLUDED.updated_by,
			updated_at = NOW()
		RETURNING ` + adjustmentColumns

	rec, err := scanAdjustment(q.QueryRow(ctx, query,
		id, record.Key(), string(record.Regime), record.PersonID,
		record.PeriodStart, record.PeriodEnd, overrides, record.UpdatedBy,
	))
	if err != nil {
		return payroll.AdjustmentRecord{}, fmt.Errorf("failed to upsert payroll adjustment: %w", err)
	}
	return rec, nil
}

// Delete implements payroll.AdjustmentRepository.
func (r *adjustmentRepository) Delete(ctx context.Context, regime person.Regime, personID int64, period payroll.Period) error {
	q := GetQuerier(ctx, r.db)

	query := `
		DELETE FROM payroll_adjustments
		WHERE regime = $1 AND person_id = $2 AND period_start = $3 AND period_end = $4
	`
	tag, err := q.Exec(ctx, query, string(regime), personID, period.Start, period.End)
	if err != nil {
		return fmt.Errorf("failed to delete payroll adjustment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrAdjustmentNotFound
	}
	return nil
}
