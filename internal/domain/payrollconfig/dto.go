package payrollconfig

import (
	"regexp"

	"github.com/obraplan/payroll-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

var keyRegex = regexp.MustCompile(`^[A-Z][A-Z0-9_]{1,63}$`)

type ConfigEntryResponse struct {
	Key         string          `json:"key"`
	Value       decimal.Decimal `json:"value"`
	Description *string         `json:"description,omitempty"`
	UpdatedAt   string          `json:"updated_at"`
}

type UpdateConfigValueRequest struct {
	Key         string          `json:"-"`
	Value       decimal.Decimal `json:"value"`
	Description *string         `json:"description,omitempty"`
}

func (r *UpdateConfigValueRequest) Validate() error {
	var errs validator.ValidationErrors

	if !keyRegex.MatchString(r.Key) {
		errs = append(errs, validator.ValidationError{Field: "key", Message: "must be upper-case letters, digits and underscores"})
	}
	if r.Value.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "value", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type AfpRateResponse struct {
	Provider          string          `json:"provider"`
	Name              string          `json:"name"`
	AporteObligatorio decimal.Decimal `json:"aporte_obligatorio"`
	PrimaSeguro       decimal.Decimal `json:"prima_seguro"`
	ComisionFlujo     decimal.Decimal `json:"comision_flujo"`
	ComisionMixta     decimal.Decimal `json:"comision_mixta"`
	UpdatedAt         string          `json:"updated_at"`
}

type UpsertAfpRateRequest struct {
	Provider          string          `json:"-"`
	Name              string          `json:"name"`
	AporteObligatorio decimal.Decimal `json:"aporte_obligatorio"`
	PrimaSeguro       decimal.Decimal `json:"prima_seguro"`
	ComisionFlujo     decimal.Decimal `json:"comision_flujo"`
	ComisionMixta     decimal.Decimal `json:"comision_mixta"`
}

func (r *UpsertAfpRateRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidAfpProvider(r.Provider) {
		errs = append(errs, validator.ValidationError{Field: "provider", Message: "must be one of HABITAT, INTEGRA, PRIMA, PROFUTURO"})
	}
	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "is required"})
	}
	fractions := map[string]decimal.Decimal{
		"aporte_obligatorio": r.AporteObligatorio,
		"prima_seguro":       r.PrimaSeguro,
		"comision_flujo":     r.ComisionFlujo,
		"comision_mixta":     r.ComisionMixta,
	}
	for _, field := range []string{"aporte_obligatorio", "prima_seguro", "comision_flujo", "comision_mixta"} {
		if !validator.IsFraction(fractions[field]) {
			errs = append(errs, validator.ValidationError{Field: field, Message: "must be a fraction between 0 and 1"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
