package statements

import (
	"gonum.org/v1/gonum/floats"

	"renewable_finance/pkg/core/timeline"
)

// BalanceSheet is the end-of-period position, in kEUR.
type BalanceSheet struct {
	PPE              []float64
	Receivables      []float64
	DSRABalance      []float64
	DistributionCash []float64
	OperatingCash    []float64
	TotalAssets      []float64

	SHLBalance       []float64
	ShareCapital     []float64
	RetainedEarnings []float64
	SeniorDebt       []float64
	Payables         []float64
	TotalLiabilities []float64
}

// BalanceSheetInputs collects every EOP series entering the position.
type BalanceSheetInputs struct {
	Construction        []float64
	DevelopmentFee      []float64
	LocalTaxes          []float64
	SeniorIDCAndFees    []float64
	SHLInterestConstr   []float64
	Depreciation        []float64 // negative
	ReceivablesEOP      []float64
	DSRAEOP             []float64
	DistributionEOP     []float64
	OperatingEOP        []float64
	SHLEOP              []float64
	ShareCapitalEOP     []float64
	RetainedEarningsEOP []float64
	SeniorDebtEOP       []float64
	PayablesEOP         []float64
}

// BuildBalanceSheet rolls PPE forward from the capitalized construction
// spend (construction, development fee, local taxes, debt construction costs,
// capitalized SHL construction interest) net of cumulative depreciation, and
// stacks both sides of the position.
func BuildBalanceSheet(tl *timeline.Timeline, in BalanceSheetInputs) *BalanceSheet {
	n := tl.N
	bs := &BalanceSheet{
		PPE:              make([]float64, n),
		Receivables:      append([]float64(nil), in.ReceivablesEOP...),
		DSRABalance:      append([]float64(nil), in.DSRAEOP...),
		DistributionCash: append([]float64(nil), in.DistributionEOP...),
		OperatingCash:    append([]float64(nil), in.OperatingEOP...),
		TotalAssets:      make([]float64, n),
		SHLBalance:       append([]float64(nil), in.SHLEOP...),
		ShareCapital:     append([]float64(nil), in.ShareCapitalEOP...),
		RetainedEarnings: append([]float64(nil), in.RetainedEarningsEOP...),
		SeniorDebt:       append([]float64(nil), in.SeniorDebtEOP...),
		Payables:         append([]float64(nil), in.PayablesEOP...),
		TotalLiabilities: make([]float64, n),
	}

	capitalized := make([]float64, n)
	for k := 0; k < n; k++ {
		capitalized[k] = in.Construction[k] + in.DevelopmentFee[k] + in.LocalTaxes[k] +
			in.SeniorIDCAndFees[k] + in.SHLInterestConstr[k] + in.Depreciation[k]
	}
	floats.CumSum(bs.PPE, capitalized)

	for k := 0; k < n; k++ {
		bs.TotalAssets[k] = bs.PPE[k] + bs.Receivables[k] + bs.DSRABalance[k] +
			bs.DistributionCash[k] + bs.OperatingCash[k]
		bs.TotalLiabilities[k] = bs.SHLBalance[k] + bs.ShareCapital[k] +
			bs.RetainedEarnings[k] + bs.SeniorDebt[k] + bs.Payables[k]
	}

	return bs
}

// ImbalanceSum is the audit quantity: the summed gap between the two sides.
func (bs *BalanceSheet) ImbalanceSum() float64 {
	var sum float64
	for k := range bs.TotalAssets {
		sum += bs.TotalAssets[k] - bs.TotalLiabilities[k]
	}
	return sum
}
