// Package operating turns volumes and prices into the revenue, cost and
// working-capital series: contracted and merchant revenues, indexed opex and
// lease, EBITDA, deferred receipts/payables and the working-capital movement.
package operating

import (
	"renewable_finance/pkg/core/assumption"
	"renewable_finance/pkg/core/energy"
	"renewable_finance/pkg/core/timeline"
)

// Revenues holds revenue, cost and margin series, all in kEUR.
type Revenues struct {
	Contract []float64
	Merchant []float64
	Total    []float64

	OperatingCosts []float64
	LeaseCosts     []float64
	TotalCosts     []float64

	EBITDA       []float64
	EBITDAMargin []float64
}

// WorkingCapital holds the deferred cash series derived from payment delays.
type WorkingCapital struct {
	RevenuesPaid   []float64
	ReceivablesBOP []float64
	ReceivablesEOP []float64
	CostsPaid      []float64
	PayablesBOP    []float64
	PayablesEOP    []float64
	Movement       []float64
}

// BuildRevenues computes revenues, costs and EBITDA. The opex sensitivity
// (percent) scales operating costs only.
func BuildRevenues(a *assumption.Assumptions, tl *timeline.Timeline, prod *energy.Production, prices *energy.Prices) *Revenues {
	n := tl.N
	r := &Revenues{
		Contract:       make([]float64, n),
		Merchant:       make([]float64, n),
		Total:          make([]float64, n),
		OperatingCosts: make([]float64, n),
		LeaseCosts:     make([]float64, n),
		TotalCosts:     make([]float64, n),
		EBITDA:         make([]float64, n),
		EBITDAMargin:   make([]float64, n),
	}

	opexSensi := 1 + a.Sensitivity.Opex/100

	for k := 0; k < n; k++ {
		pctContract := tl.Series.PctInContract[k]
		pctOps := tl.Series.PctInOperations[k]

		// Prices are EUR/MWh and volumes MWh; dividing by 1000 lands in kEUR.
		r.Contract[k] = prod.Total[k] * prices.ContractNominal[k] / 1000 * pctContract * pctOps
		r.Merchant[k] = prod.Total[k] * prices.MerchantNominal[k] / 1000 * (1 - pctContract) * pctOps
		r.Total[k] = r.Contract[k] + r.Merchant[k]

		r.OperatingCosts[k] = a.Opex.AnnualOpex * prices.OpexIndexation[k] *
			tl.Series.YearsDuringOperations[k] * opexSensi
		r.LeaseCosts[k] = a.Opex.AnnualLease * prices.LeaseIndexation[k] *
			tl.Series.YearsDuringOperations[k]
		r.TotalCosts[k] = r.OperatingCosts[k] + r.LeaseCosts[k]

		r.EBITDA[k] = r.Total[k] - r.TotalCosts[k]
		if r.Total[k] > 0 {
			r.EBITDAMargin[k] = r.EBITDA[k] / r.Total[k]
		}
	}

	return r
}

// BuildWorkingCapital derives deferred receipts and payables from the payment
// delays. The delay/days ratio is clipped to [0, 1] so a delay longer than a
// period defers the whole period rather than producing negative receipts.
func BuildWorkingCapital(a *assumption.Assumptions, tl *timeline.Timeline, rev *Revenues) *WorkingCapital {
	n := tl.N
	wc := &WorkingCapital{
		RevenuesPaid:   make([]float64, n),
		ReceivablesBOP: make([]float64, n),
		ReceivablesEOP: make([]float64, n),
		CostsPaid:      make([]float64, n),
		PayablesBOP:    make([]float64, n),
		PayablesEOP:    make([]float64, n),
		Movement:       make([]float64, n),
	}

	for k := 0; k < n; k++ {
		revRatio := deferralRatio(a.Opex.PaymentDelayRevenues, tl.Days.Model[k])
		costRatio := deferralRatio(a.Opex.PaymentDelayCosts, tl.Days.Model[k])

		wc.RevenuesPaid[k] = (1 - revRatio) * rev.Total[k]
		wc.ReceivablesEOP[k] = rev.Total[k] - wc.RevenuesPaid[k]
		wc.CostsPaid[k] = (1 - costRatio) * rev.TotalCosts[k]
		wc.PayablesEOP[k] = rev.TotalCosts[k] - wc.CostsPaid[k]
	}

	for k := 1; k < n; k++ {
		wc.ReceivablesBOP[k] = wc.ReceivablesEOP[k-1]
		wc.PayablesBOP[k] = wc.PayablesEOP[k-1]
	}

	// First differences seeded by the opening values.
	for k := 0; k < n; k++ {
		wc.Movement[k] = (wc.PayablesEOP[k] - wc.PayablesBOP[k]) -
			(wc.ReceivablesEOP[k] - wc.ReceivablesBOP[k])
	}

	return wc
}

func deferralRatio(delayDays, periodDays float64) float64 {
	if periodDays <= 0 {
		return 0
	}
	ratio := delayDays / periodDays
	if ratio > 1 {
		return 1
	}
	if ratio < 0 {
		return 0
	}
	return ratio
}
