package postgresql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/obraplan/payroll-backend-go/internal/domain/person"
	"github.com/obraplan/payroll-backend-go/internal/pkg/database"
)

type personRepositoryImpl struct {
	db *database.DB
}

func NewPersonRepository(db *database.DB) person.PersonRepository {
	return &personRepositoryImpl{db: db}
}

// selectColumns returns the column list of a regime table, mapping the
// regime-specific columns onto the shared Person shape.
func selectColumns(regime person.Regime) string {
	if regime == person.RegimeStaff {
		return `id, document_type, document_number, full_name, position,
			NULL::numeric AS custom_daily_rate, salary,
			pension_system, afp_provider, commission_type, cuspp,
			has_children, children_count, hire_date, end_date, is_active,
			created_at, updated_at`
	}
	return `id, document_type, document_number, full_name, category,
		custom_daily_rate, NULL::numeric AS salary,
		pension_system, afp_provider, commission_type, cuspp,
		has_children, children_count, hire_date, end_date, is_active,
		created_at, updated_at`
}

func scanPerson(row pgx.Row, regime person.Regime) (person.Person, error) {
	p := person.Person{Regime: regime}
	err := row.Scan(
		&p.ID, &p.DocumentType, &p.DocumentNumber, &p.FullName, &p.Category,
		&p.CustomDailyRate, &p.Salary,
		&p.PensionSystem, &p.AfpProvider, &p.CommissionType, &p.CUSPP,
		&p.HasChildren, &p.ChildrenCount, &p.HireDate, &p.EndDate, &p.Active,
		&p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// CountActive implements person.PersonRepository.
func (r *personRepositoryImpl) CountActive(ctx context.Context, regime person.Regime) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE is_active = TRUE`, regime.Table())

	var count int64
	if err := q.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active %s: %w", regime.Table(), err)
	}
	return count, nil
}

// ListActive implements person.PersonRepository.
func (r *personRepositoryImpl) ListActive(ctx context.Context, regime person.Regime, limit, offset int) ([]person.Person, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE is_active = TRUE
		ORDER BY full_name ASC, id ASC
		LIMIT $1 OFFSET $2
	`, selectColumns(regime), regime.Table())

	return r.list(ctx, regime, query, limit, offset)
}

// ListAllActive implements person.PersonRepository.
func (r *personRepositoryImpl) ListAllActive(ctx context.Context, regime person.Regime) ([]person.Person, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE is_active = TRUE
		ORDER BY full_name ASC, id ASC
	`, selectColumns(regime), regime.Table())

	return r.list(ctx, regime, query)
}

func (r *personRepositoryImpl) list(ctx context.Context, regime person.Regime, query string, args ...any) ([]person.Person, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list active %s: %w", regime.Table(), err)
	}
	defer rows.Close()

	persons := make([]person.Person, 0)
	for rows.Next() {
		p, err := scanPerson(rows, regime)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", regime.Table(), err)
		}
		persons = append(persons, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s rows: %w", regime.Table(), err)
	}

	return persons, nil
}

// GetByID implements person.PersonRepository.
func (r *personRepositoryImpl) GetByID(ctx context.Context, regime person.Regime, id int64) (person.Person, error) {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, selectColumns(regime), regime.Table())

	p, err := scanPerson(q.QueryRow(ctx, query, id), regime)
	if err != nil {
		if err == pgx.ErrNoRows {
			return person.Person{}, person.ErrPersonNotFound
		}
		return person.Person{}, fmt.Errorf("failed to get %s by id: %w", regime.Table(), err)
	}
	return p, nil
}
