package energy

import (
	"math"

	"renewable_finance/pkg/core/assumption"
	"renewable_finance/pkg/core/timeline"
)

// Prices holds the stage-5 output series. Real prices are in EUR/MWh of the
// base date; nominal prices carry the compounding indexation.
type Prices struct {
	ContractIndexation []float64
	MerchantIndexation []float64
	OpexIndexation     []float64
	LeaseIndexation    []float64

	ContractReal    []float64
	ContractNominal []float64
	MerchantReal    []float64
	MerchantNominal []float64
}

// BuildPrices computes the four indexation vectors and both price curves.
// The inflation sensitivity (percentage points) shifts every indexation rate.
func BuildPrices(a *assumption.Assumptions, tl *timeline.Timeline) *Prices {
	inflation := a.Sensitivity.Inflation

	p := &Prices{
		ContractIndexation: indexationVector(a.Contract.IndexationRate+inflation, tl.Series.YearsFromContractIndex),
		MerchantIndexation: indexationVector(a.Merchant.IndexationRate+inflation, tl.Series.YearsFromMerchantIndex),
		OpexIndexation:     indexationVector(a.Opex.OpexIndexationRate+inflation, tl.Series.YearsFromOpexIndex),
		LeaseIndexation:    indexationVector(a.Opex.LeaseIndexationRate+inflation, tl.Series.YearsFromLeaseIndex),
	}

	n := tl.N
	p.ContractReal = make([]float64, n)
	p.ContractNominal = make([]float64, n)
	p.MerchantReal = make([]float64, n)
	p.MerchantNominal = make([]float64, n)

	curve := a.Merchant.SelectedPrices()
	for k := range tl.Periods {
		p.ContractReal[k] = a.Contract.PriceEURMWh * tl.Flags.Contract[k]
		p.ContractNominal[k] = p.ContractReal[k] * p.ContractIndexation[k]

		// Merchant price looked up by EOP calendar year; missing years price
		// at zero rather than failing.
		p.MerchantReal[k] = curve[tl.Periods[k].End.Year()]
		p.MerchantNominal[k] = p.MerchantReal[k] * p.MerchantIndexation[k]
	}

	return p
}

// indexationVector compounds (1+rate)^yearsFromBase; 1.0 at and before the
// base date.
func indexationVector(ratePct float64, yearsFromBase []float64) []float64 {
	out := make([]float64, len(yearsFromBase))
	for k, y := range yearsFromBase {
		out[k] = math.Pow(1+ratePct/100, y)
	}
	return out
}
