package postgresql

import (
	"context"
	"fmt"

	"github.com/obraplan/payroll-backend-go/internal/domain/payrollconfig"
	"github.com/obraplan/payroll-backend-go/internal/pkg/database"
)

type payrollConfigRepository struct {
	db *database.DB
}

func NewPayrollConfigRepository(db *database.DB) payrollconfig.ConfigRepository {
	return &payrollConfigRepository{db: db}
}

// ListEntries implements payrollconfig.ConfigRepository.
func (r *payrollConfigRepository) ListEntries(ctx context.Context) ([]payrollconfig.Entry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT key, value, description, updated_at
		FROM payroll_config
		ORDER BY key
	`
	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll config: %w", err)
	}
	defer rows.Close()

	entries := make([]payrollconfig.Entry, 0)
	for rows.Next() {
		var e payrollconfig.Entry
		if err := rows.Scan(&e.Key, &e.Value, &e.Description, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payroll config: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payroll config: %w", err)
	}
	return entries, nil
}

// UpsertEntry implements payrollconfig.ConfigRepository. A nil description
// keeps the stored one.
func (r *payrollConfigRepository) UpsertEntry(ctx context.Context, entry payrollconfig.Entry) (payrollconfig.Entry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_config (key, value, description)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			description = COALESCE(EXCLUDED.description, payroll_config.description),
			updated_at = NOW()
		RETURNING key, value, description, updated_at
	`
	var e payrollconfig.Entry
	err := q.QueryRow(ctx, query, entry.Key, entry.Value, entry.Description).
		Scan(&e.Key, &e.Value, &e.Description, &e.UpdatedAt)
	if err != nil {
		return payrollconfig.Entry{}, fmt.Errorf("failed to upsert payroll config %s: %w", entry.Key, err)
	}
	return e, nil
}

// ListAfpRates implements payrollconfig.ConfigRepository.
func (r *payrollConfigRepository) ListAfpRates(ctx context.Context) ([]payrollconfig.AfpRate, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT provider, name, aporte_obligatorio, prima_seguro, comision_flujo, comision_mixta, updated_at
		FROM afp_rates
		ORDER BY provider
	`
	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list afp rates: %w", err)
	}
	defer rows.Close()

	rates := make([]payrollconfig.AfpRate, 0)
	for rows.Next() {
		var a payrollconfig.AfpRate
		if err := rows.Scan(
			&a.Provider, &a.Name, &a.AporteObligatorio, &a.PrimaSeguro,
			&a.ComisionFlujo, &a.ComisionMixta, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan afp rate: %w", err)
		}
		rates = append(rates, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate afp rates: %w", err)
	}
	return rates, nil
}

// UpsertAfpRate implements payrollconfig.ConfigRepository.
func (r *payrollConfigRepository) UpsertAfpRate(ctx context.Context, rate payrollconfig.AfpRate) (payrollconfig.AfpRate, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO afp_rates (provider, name, aporte_obligatorio, prima_seguro, comision_flujo, comision_mixta)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (provider) DO UPDATE SET
			name = EXCLUDED.name,
			aporte_obligatorio = EXCLUDED.aporte_obligatorio,
			prima_seguro = EXCLUDED.prima_seguro,
			comision_flujo = EXCLUDED.comision_flujo,
			comision_mixta = EXCLUDED.comision_mixta,
			updated_at = NOW()
		RETURNING provider, name, aporte_obligatorio, prima_seguro, comision_flujo, comision_mixta, updated_at
	`
	var a payrollconfig.AfpRate
	err := q.QueryRow(ctx, query,
		string(rate.Provider), rate.Name, rate.AporteObligatorio, rate.PrimaSeguro,
		rate.ComisionFlujo, rate.ComisionMixta,
	).Scan(
		&a.Provider, &a.Name, &a.AporteObligatorio, &a.PrimaSeguro,
		&a.ComisionFlujo, &a.ComisionMixta, &a.UpdatedAt,
	)
	if err != nil {
		return payrollconfig.AfpRate{}, fmt.Errorf("failed to upsert afp rate %s: %w", rate.Provider, err)
	}
	return a, nil
}

// SeedDefaults implements payrollconfig.ConfigRepository.
func (r *payrollConfigRepository) SeedDefaults(ctx context.Context, entries []payrollconfig.Entry, rates []payrollconfig.AfpRate) error {
	return WithTransaction(ctx, r.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, r.db)

		for _, e := range entries {
			_, err := q.Exec(ctx, `
				INSERT INTO payroll_config (key, value, description)
				VALUES ($1, $2, $3)
				ON CONFLICT (key) DO NOTHING
			`, e.Key, e.Value, e.Description)
			if err != nil {
				return fmt.Errorf("failed to seed payroll config %s: %w", e.Key, err)
			}
		}

		for _, a := range rates {
			_, err := q.Exec(ctx, `
				INSERT INTO afp_rates (provider, name, aporte_obligatorio, prima_seguro, comision_flujo, comision_mixta)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (provider) DO NOTHING
			`, string(a.Provider), a.Name, a.AporteObligatorio, a.PrimaSeguro, a.ComisionFlujo, a.ComisionMixta)
			if err != nil {
				return fmt.Errorf("failed to seed afp rate %s: %w", a.Provider, err)
			}
		}
		return nil
	})
}
