package payrollconfig

import (
	"strings"
	"time"

	"github.com/obraplan/payroll-backend-go/internal/domain/person"
	"github.com/shopspring/decimal"
)

// Configuration keys. Category-dependent values are looked up as PREFIX_CATEGORY,
// e.g. JORNAL_OPERARIO or BUC_PEON.
const (
	PrefixJornal = "JORNAL"
	PrefixBUC    = "BUC"

	KeyMobilityDaily      = "MOVILIDAD_DIARIA"
	KeySchoolDaily        = "ASIGNACION_ESCOLAR_DIARIA"
	KeyONP                = "ONP"
	KeyConafovicer        = "CONAFOVICER"
	KeyEssalud            = "ESSALUD"
	KeyOvertime60Factor   = "FACTOR_HE60"
	KeyOvertime100Factor  = "FACTOR_HE100"
	KeyHolidayFactor      = "FACTOR_FERIADO"
	KeyWorkdayHours       = "HORAS_JORNADA"
	KeyVacationPct        = "PORC_VACACIONES"
	KeyGratificationPct   = "PORC_GRATIFICACION"
	KeyIndemnityPct       = "PORC_INDEMNIZACION"
	KeyRMV                = "RMV"
	KeyFamilyAllowancePct = "PORC_ASIGNACION_FAMILIAR"
	KeyStaffONP           = "STAFF_ONP"
	KeyStaffEssalud       = "STAFF_ESSALUD"
)

// Configuration is the process-wide key to numeric value mapping.
type Configuration map[string]decimal.Decimal

// Get returns the value of key, or zero when the key is not configured.
func (c Configuration) Get(key string) decimal.Decimal {
	if v, ok := c[key]; ok {
		return v
	}
	return decimal.Zero
}

// ForCategory looks up PREFIX_CATEGORY, normalising unknown categories to PEON.
func (c Configuration) ForCategory(prefix, category string) decimal.Decimal {
	return c.Get(CategoryKey(prefix, category))
}

func CategoryKey(prefix, category string) string {
	return prefix + "_" + string(person.NormalizeCategory(category))
}

// Entry is one persisted configuration value.
type Entry struct {
	Key         string
	Value       decimal.Decimal
	Description *string
	UpdatedAt   time.Time
}

// AfpRate holds the contribution components of one AFP, as decimal fractions.
type AfpRate struct {
	Provider          person.AfpProvider
	Name              string
	AporteObligatorio decimal.Decimal
	PrimaSeguro       decimal.Decimal
	ComisionFlujo     decimal.Decimal
	ComisionMixta     decimal.Decimal
	UpdatedAt         time.Time
}

// TotalRate sums the obligatory contribution, the insurance premium and the
// commission that applies to the given commission type.
func (a AfpRate) TotalRate(commission person.CommissionType) decimal.Decimal {
	rate := a.AporteObligatorio.Add(a.PrimaSeguro)
	if commission == person.CommissionMixta {
		return rate.Add(a.ComisionMixta)
	}
	return rate.Add(a.ComisionFlujo)
}

// Snapshot is the configuration read once at the start of a run.
type Snapshot struct {
	Config   Configuration
	AfpRates []AfpRate
	LoadedAt time.Time
}

// AfpByProvider returns the rate row of an enumerated provider.
func (s Snapshot) AfpByProvider(p person.AfpProvider) (AfpRate, bool) {
	for _, r := range s.AfpRates {
		if r.Provider == p {
			return r, true
		}
	}
	return AfpRate{}, false
}

// MatchAfpByName resolves legacy free-text pension values. A row matches when
// either name contains the other, ignoring case; the first match wins. Blank
// text never matches.
func (s Snapshot) MatchAfpByName(text string) (AfpRate, bool) {
	needle := strings.ToUpper(strings.TrimSpace(text))
	if needle == "" {
		return AfpRate{}, false
	}
	for _, r := range s.AfpRates {
		name := strings.ToUpper(strings.TrimSpace(r.Name))
		if name == "" {
			continue
		}
		if strings.Contains(needle, name) || strings.Contains(name, needle) {
			return r, true
		}
	}
	return AfpRate{}, false
}
