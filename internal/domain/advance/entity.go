package advance

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending = "Pendiente"
	StatusPaid    = "Pagado"
)

// Advance is a salary advance handed to a person. Every advance dated inside
// the payroll period is deducted, whatever its status.
type Advance struct {
	ID        int64
	PersonID  int64
	Amount    decimal.Decimal
	Date      time.Time
	Status    string
	CreatedAt time.Time
}

// Sum totals the amounts of the given advances. Non-positive amounts
// contribute nothing.
func Sum(advances []Advance) decimal.Decimal {
	total := decimal.Zero
	for _, a := range advances {
		if a.Amount.IsPositive() {
			total = total.Add(a.Amount)
		}
	}
	return total
}

// GroupByPerson indexes advances by person id.
func GroupByPerson(advances []Advance) map[int64][]Advance {
	grouped := make(map[int64][]Advance)
	for _, a := range advances {
		grouped[a.PersonID] = append(grouped[a.PersonID], a)
	}
	return grouped
}
