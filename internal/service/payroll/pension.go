package payroll

import (
	"fmt"
	"strings"

	"github.com/obraplan/payroll-backend-go/internal/domain/payroll"
	"github.com/obraplan/payroll-backend-go/internal/domain/payrollconfig"
	"github.com/obraplan/payroll-backend-go/internal/domain/person"
	"github.com/shopspring/decimal"
)

// ReferencePensionRate is applied when a person's AFP cannot be resolved. The
// resulting deduction is labelled as a reference so it is never mistaken for
// a confirmed rate.
var ReferencePensionRate = decimal.RequireFromString("0.13")

const referenceSuffix = "(Ref. 13%)"

// resolvePension computes the pension deduction over base. onpRate is the
// regime-specific ONP rate.
func resolvePension(p person.Person, snap payrollconfig.Snapshot, base, onpRate decimal.Decimal) payroll.Pension {
	switch {
	case p.IsONP():
		return payroll.Pension{
			Kind:   payroll.PensionKindONP,
			Label:  person.PensionONP,
			Rate:   onpRate,
			Base:   base,
			Amount: base.Mul(onpRate),
		}
	case p.HasNoPension():
		return payroll.Pension{
			Kind:   payroll.PensionKindNone,
			Label:  person.PensionSinRegimen,
			Rate:   decimal.Zero,
			Base:   base,
			Amount: decimal.Zero,
		}
	}

	if afp, ok := lookupAfp(p, snap); ok {
		commission := p.CommissionType
		if commission != person.CommissionMixta {
			commission = person.CommissionFlujo
		}
		rate := afp.TotalRate(commission)
		return payroll.Pension{
			Kind:   payroll.PensionKindAFP,
			Label:  fmt.Sprintf("%s - %s", afp.Name, commission),
			Rate:   rate,
			Base:   base,
			Amount: base.Mul(rate),
		}
	}

	name := strings.TrimSpace(p.PensionSystem)
	if name == "" {
		name = "AFP"
	}
	return payroll.Pension{
		Kind:      payroll.PensionKindReference,
		Label:     name + " " + referenceSuffix,
		Rate:      ReferencePensionRate,
		Base:      base,
		Amount:    base.Mul(ReferencePensionRate),
		Reference: true,
	}
}

// lookupAfp prefers the enumerated provider and falls back to matching the
// legacy free-text pension value against the configured names.
func lookupAfp(p person.Person, snap payrollconfig.Snapshot) (payrollconfig.AfpRate, bool) {
	if p.AfpProvider != nil {
		if afp, ok := snap.AfpByProvider(*p.AfpProvider); ok {
			return afp, true
		}
	}
	return snap.MatchAfpByName(p.PensionSystem)
}
