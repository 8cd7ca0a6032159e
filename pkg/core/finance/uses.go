// Package finance covers the funding side of the model: uses of funds, the
// financing plan, the senior debt schedule, the debt sizing and sculpting
// computations and the debt service reserve account.
package finance

import (
	"gonum.org/v1/gonum/floats"

	"renewable_finance/pkg/core/assumption"
	"renewable_finance/pkg/core/timeline"
)

// Uses is the per-period uses-of-funds ledger, all in kEUR.
type Uses struct {
	Construction   []float64
	DevelopmentFee []float64
	LocalTaxes     []float64
	// SeniorIDCAndFees is construction interest + upfront fee + commitment fees.
	SeniorIDCAndFees []float64
	// Reserves is the initial DSRA funding, placed at construction end.
	Reserves []float64

	Total      []float64
	TotalCumul []float64
}

// UsesInputs carries the pieces that only exist after the debt schedule and
// DSRA of the previous fixed-point iteration.
type UsesInputs struct {
	SeniorIDCAndFees []float64
	DSRAInitial      []float64
	// DevFeeTotal is the optimized development fee (0 in ZERO mode).
	DevFeeTotal float64
}

// BuildUses assembles the uses ledger for one fixed-point iteration.
func BuildUses(a *assumption.Assumptions, tl *timeline.Timeline, in UsesInputs) *Uses {
	n := tl.N
	u := &Uses{
		Construction:     make([]float64, n),
		DevelopmentFee:   make([]float64, n),
		LocalTaxes:       make([]float64, n),
		SeniorIDCAndFees: make([]float64, n),
		Reserves:         make([]float64, n),
		Total:            make([]float64, n),
		TotalCumul:       make([]float64, n),
	}

	// Monthly construction costs map one-to-one onto construction periods.
	for k := 0; k < tl.ConstructionPeriods && k < len(a.ConstructionCosts); k++ {
		u.Construction[k] = a.ConstructionCosts[k] * tl.Flags.Construction[k]
	}

	devTax, archeoTax := a.Technology().LocalTaxes(a.Taxes)
	for k := 0; k < n; k++ {
		u.LocalTaxes[k] = (devTax + archeoTax) * tl.Flags.ConstructionStart[k]
		u.DevelopmentFee[k] = in.DevFeeTotal *
			(a.DevFee.PaidFC*tl.Flags.ConstructionStart[k] + a.DevFee.PaidCOD*tl.Flags.ConstructionEnd[k])
		if in.SeniorIDCAndFees != nil {
			u.SeniorIDCAndFees[k] = in.SeniorIDCAndFees[k]
		}
		if in.DSRAInitial != nil {
			u.Reserves[k] = in.DSRAInitial[k]
		}
		u.Total[k] = u.Construction[k] + u.DevelopmentFee[k] + u.LocalTaxes[k] +
			u.SeniorIDCAndFees[k] + u.Reserves[k]
	}
	floats.CumSum(u.TotalCumul, u.Total)

	return u
}

// Sum is the total project cost.
func (u *Uses) Sum() float64 {
	return floats.Sum(u.Total)
}

// Clone deep-copies the ledger; sensitivity runs inherit the base case's uses
// verbatim and must never alias its arrays.
func (u *Uses) Clone() *Uses {
	return &Uses{
		Construction:     append([]float64(nil), u.Construction...),
		DevelopmentFee:   append([]float64(nil), u.DevelopmentFee...),
		LocalTaxes:       append([]float64(nil), u.LocalTaxes...),
		SeniorIDCAndFees: append([]float64(nil), u.SeniorIDCAndFees...),
		Reserves:         append([]float64(nil), u.Reserves...),
		Total:            append([]float64(nil), u.Total...),
		TotalCumul:       append([]float64(nil), u.TotalCumul...),
	}
}

// OptimizedDevFee solves the development fee against debt capacity: the fee
// absorbs the gap between the DSCR-constrained debt capacity grossed up by the
// gearing cap and the project cost before the fee. Returns 0 in ZERO mode.
func OptimizedDevFee(a *assumption.Assumptions, debtCapacityDSCR, usesWithoutFee float64) float64 {
	if a.DevFee.Mode != assumption.DevFeeOptimize {
		return 0
	}
	fee := debtCapacityDSCR/(a.Debt.MaxGearing/100) - usesWithoutFee
	if fee < 0 {
		return 0
	}
	return fee
}
