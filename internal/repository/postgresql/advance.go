package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/obraplan/payroll-backend-go/internal/domain/advance"
	"github.com/obraplan/payroll-backend-go/internal/domain/person"
	"github.com/obraplan/payroll-backend-go/internal/pkg/database"
)

type advanceRepository struct {
	db *database.DB
}

func NewAdvanceRepository(db *database.DB) advance.AdvanceRepository {
	return &advanceRepository{db: db}
}

// ListByRange implements advance.AdvanceRepository.
func (r *advanceRepository) ListByRange(ctx context.Context, regime person.Regime, start, end time.Time) ([]advance.Advance, error) {
	q := GetQuerier(ctx, r.db)

	fk := regime.ForeignKey()
	query := fmt.Sprintf(`
		SELECT id, %s, amount, date, status, created_at
		FROM advances
		WHERE %s IS NOT NULL
		  AND date BETWEEN $1 AND $2
		ORDER BY date, id
	`, fk, fk)

	rows, err := q.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list advances: %w", err)
	}
	defer rows.Close()

	advances := make([]advance.Advance, 0)
	for rows.Next() {
		var a advance.Advance
		if err := rows.Scan(&a.ID, &a.PersonID, &a.Amount, &a.Date, &a.Status, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan advance: %w", err)
		}
		advances = append(advances, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate advances: %w", err)
	}

	return advances, nil
}
