package assumption

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// ConfigurationError reports an assumption set that violates a pre-compute
// invariant. It is raised before any period vector is allocated.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Reason)
}

func configErr(field, format string, args ...interface{}) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

var structValidator = validator.New()

// Validate checks every invariant that can be verified before any compute:
// field ranges, date orderings, duration caps, the seasonality sum, the
// construction cost count and the merchant curve coverage.
func (a *Assumptions) Validate() error {
	if err := structValidator.Struct(a); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			first := errs[0]
			return configErr(first.Namespace(), "failed %q constraint", first.Tag())
		}
		return configErr("assumptions", "%v", err)
	}

	switch a.TechnologyKind {
	case TechnologySolar:
		if a.Solar == nil {
			return configErr("solar", "technology is SOLAR but solar parameters are missing")
		}
	case TechnologyWind:
		if a.Wind == nil {
			return configErr("wind", "technology is WIND but wind parameters are missing")
		}
	}

	if a.ConstructionStart.IsZero() || a.ConstructionEnd.IsZero() {
		return configErr("construction", "construction start and end are required")
	}
	if a.ConstructionEnd.Before(a.ConstructionStart.Time) {
		return configErr("construction_end", "precedes construction start")
	}
	if months := a.ConstructionMonths(); months > 24 {
		return configErr("construction_end", "construction spans %d months, maximum is 24", months)
	}
	if got, want := len(a.ConstructionCosts), a.ConstructionMonths(); got != want {
		return configErr("construction_costs", "%d monthly values for %d construction months", got, want)
	}

	var sum float64
	for _, s := range a.Production.Seasonality {
		sum += s
	}
	if math.Abs(sum-1.0) > 1e-9 {
		return configErr("production.seasonality", "factors sum to %.6f, must sum to 1", sum)
	}

	constructionYears := float64(a.ConstructionMonths()) / 12.0
	if float64(a.Debt.TenorYears) > constructionYears+float64(a.OperatingLife) {
		return configErr("debt.tenor_years", "tenor %dy exceeds project life %.2fy",
			a.Debt.TenorYears, constructionYears+float64(a.OperatingLife))
	}

	if a.Contract.End.Before(a.Contract.Start.Time) {
		return configErr("contract.end", "precedes contract start")
	}
	if a.Contract.Start.Before(a.ConstructionEnd.Time) {
		return configErr("contract.start", "precedes construction end")
	}
	if a.Contract.End.After(a.EndOfOperations()) {
		return configErr("contract.end", "extends past end of operations")
	}

	if a.DevFee.Mode == DevFeeOptimize {
		if math.Abs(a.DevFee.PaidFC+a.DevFee.PaidCOD-1.0) > 1e-9 {
			return configErr("dev_fee", "paid_fc + paid_cod must equal 1, got %.4f",
				a.DevFee.PaidFC+a.DevFee.PaidCOD)
		}
	}

	curve := a.Merchant.SelectedPrices()
	if len(curve) == 0 {
		return configErr("merchant.prices", "no price curve for scenario %s", a.Merchant.Scenario)
	}

	return nil
}
