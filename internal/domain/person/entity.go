package person

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Regime identifies the labor regime a person is paid under. Workers and staff
// live in separate tables with independent id spaces.
type Regime string

const (
	RegimeWorker Regime = "worker"
	RegimeStaff  Regime = "staff"
)

func (r Regime) IsValid() bool {
	return r == RegimeWorker || r == RegimeStaff
}

// Table returns the backing table of the regime.
func (r Regime) Table() string {
	if r == RegimeStaff {
		return "staff"
	}
	return "workers"
}

// ForeignKey returns the attendance/advance column linking rows to this regime.
func (r Regime) ForeignKey() string {
	if r == RegimeStaff {
		return "staff_id"
	}
	return "worker_id"
}

// Category is the construction-worker trade category.
type Category string

const (
	CategoryPeon     Category = "PEON"
	CategoryOficial  Category = "OFICIAL"
	CategoryOperario Category = "OPERARIO"
	CategoryCapataz  Category = "CAPATAZ"
)

var categoryReplacer = strings.NewReplacer("Ó", "O", "ó", "O", "É", "E", "é", "E")

// NormalizeCategory maps free-text categories such as "Peón" or "operario" to
// the configuration suffix. Unknown values fall back to PEON.
func NormalizeCategory(raw string) Category {
	c := Category(strings.ToUpper(categoryReplacer.Replace(strings.TrimSpace(raw))))
	switch c {
	case CategoryPeon, CategoryOficial, CategoryOperario, CategoryCapataz:
		return c
	default:
		return CategoryPeon
	}
}

type CommissionType string

const (
	CommissionFlujo CommissionType = "Flujo"
	CommissionMixta CommissionType = "Mixta"
)

// AfpProvider is the enumerated private pension fund administrator, resolved
// when the person is registered.
type AfpProvider string

const (
	AfpHabitat   AfpProvider = "HABITAT"
	AfpIntegra   AfpProvider = "INTEGRA"
	AfpPrima     AfpProvider = "PRIMA"
	AfpProfuturo AfpProvider = "PROFUTURO"
)

func (p AfpProvider) IsValid() bool {
	switch p {
	case AfpHabitat, AfpIntegra, AfpPrima, AfpProfuturo:
		return true
	}
	return false
}

const (
	PensionONP        = "ONP"
	PensionSinRegimen = "Sin Régimen"
)

type Person struct {
	ID             int64
	Regime         Regime
	DocumentType   string
	DocumentNumber string
	FullName       string
	// Category holds the trade category for workers and the position for staff.
	Category        string
	CustomDailyRate *decimal.Decimal
	Salary          *decimal.Decimal
	PensionSystem   string
	AfpProvider     *AfpProvider
	CommissionType  CommissionType
	CUSPP           *string
	HasChildren     bool
	ChildrenCount   int
	HireDate        *time.Time
	EndDate         *time.Time
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsONP reports whether the person contributes to the public pension system.
func (p Person) IsONP() bool {
	return strings.EqualFold(strings.TrimSpace(p.PensionSystem), PensionONP)
}

// HasNoPension reports whether the person is enrolled in no pension regime.
func (p Person) HasNoPension() bool {
	s := strings.ToLower(strings.TrimSpace(p.PensionSystem))
	return s == "sin régimen" || s == "sin regimen"
}
