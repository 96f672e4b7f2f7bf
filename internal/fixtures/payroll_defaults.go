package fixtures

import (
	"github.com/obraplan/payroll-backend-go/internal/domain/payrollconfig"
	"github.com/obraplan/payroll-backend-go/internal/domain/person"
	"github.com/shopspring/decimal"
)

// ==========================================
// HELPER FUNCTIONS
// ==========================================

func strPtr(s string) *string { return &s }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func entry(key, value, description string) payrollconfig.Entry {
	return payrollconfig.Entry{Key: key, Value: dec(value), Description: strPtr(description)}
}

// ==========================================
// PAYROLL CONFIGURATION
// ==========================================

// DefaultPayrollConfig returns the values seeded on an empty database. Rates
// are decimal fractions; amounts are in soles.
func DefaultPayrollConfig() []payrollconfig.Entry {
	return []payrollconfig.Entry{
		// Construction worker daily wages per category
		entry("JORNAL_OPERARIO", "85.30", "Jornal diario Operario"),
		entry("JORNAL_OFICIAL", "67.20", "Jornal diario Oficial"),
		entry("JORNAL_PEON", "60.40", "Jornal diario Peón"),
		entry("JORNAL_CAPATAZ", "102.36", "Jornal diario Capataz"),

		// Bonificación Unificada de Construcción per category
		entry("BUC_OPERARIO", "0.32", "BUC Operario"),
		entry("BUC_OFICIAL", "0.30", "BUC Oficial"),
		entry("BUC_PEON", "0.30", "BUC Peón"),
		entry("BUC_CAPATAZ", "0.32", "BUC Capataz"),

		entry(payrollconfig.KeyMobilityDaily, "8.00", "Movilidad por día trabajado"),
		entry(payrollconfig.KeySchoolDaily, "3.00", "Asignación escolar por día trabajado"),

		entry(payrollconfig.KeyONP, "0.13", "Aporte ONP obreros"),
		entry(payrollconfig.KeyConafovicer, "0.02", "CONAFOVICER sobre básico"),
		entry(payrollconfig.KeyEssalud, "0.09", "ESSALUD obreros (empleador)"),

		entry(payrollconfig.KeyOvertime60Factor, "1.60", "Factor hora extra 60%"),
		entry(payrollconfig.KeyOvertime100Factor, "2.00", "Factor hora extra 100%"),
		entry(payrollconfig.KeyHolidayFactor, "2.00", "Factor feriado trabajado"),
		entry(payrollconfig.KeyWorkdayHours, "8", "Horas por jornada"),

		entry(payrollconfig.KeyVacationPct, "0.10", "Vacaciones sobre básico"),
		entry(payrollconfig.KeyGratificationPct, "0.21", "Gratificación sobre básico"),
		entry(payrollconfig.KeyIndemnityPct, "0.15", "CTS sobre básico"),

		// Staff
		entry(payrollconfig.KeyRMV, "1130", "Remuneración mínima vital"),
		entry(payrollconfig.KeyFamilyAllowancePct, "0.10", "Asignación familiar sobre RMV"),
		entry(payrollconfig.KeyStaffONP, "0.13", "Aporte ONP empleados"),
		entry(payrollconfig.KeyStaffEssalud, "0.09", "ESSALUD empleados (empleador)"),
	}
}

// ==========================================
// AFP RATES
// ==========================================

func DefaultAfpRates() []payrollconfig.AfpRate {
	return []payrollconfig.AfpRate{
		{
			Provider:          person.AfpHabitat,
			Name:              "Habitat",
			AporteObligatorio: dec("0.10"),
			PrimaSeguro:       dec("0.0137"),
			ComisionFlujo:     dec("0.0147"),
			ComisionMixta:     dec("0.0038"),
		},
		{
			Provider:          person.AfpIntegra,
			Name:              "Integra",
			AporteObligatorio: dec("0.10"),
			PrimaSeguro:       dec("0.0137"),
			ComisionFlujo:     dec("0.0155"),
			ComisionMixta:     dec("0.0000"),
		},
		{
			Provider:          person.AfpPrima,
			Name:              "Prima",
			AporteObligatorio: dec("0.10"),
			PrimaSeguro:       dec("0.0137"),
			ComisionFlujo:     dec("0.0160"),
			ComisionMixta:     dec("0.0018"),
		},
		{
			Provider:          person.AfpProfuturo,
			Name:              "Profuturo",
			AporteObligatorio: dec("0.10"),
			PrimaSeguro:       dec("0.0137"),
			ComisionFlujo:     dec("0.0169"),
			ComisionMixta:     dec("0.0067"),
		},
	}
}
