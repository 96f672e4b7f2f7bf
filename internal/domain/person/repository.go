package person

import "context"

// PersonRepository reads active persons of a regime table. Payroll never
// mutates persons.
type PersonRepository interface {
	CountActive(ctx context.Context, regime Regime) (int64, error)
	// ListActive returns one page of active persons ordered by full name.
	ListActive(ctx context.Context, regime Regime, limit, offset int) ([]Person, error)
	ListAllActive(ctx context.Context, regime Regime) ([]Person, error)
	GetByID(ctx context.Context, regime Regime, id int64) (Person, error)
}
