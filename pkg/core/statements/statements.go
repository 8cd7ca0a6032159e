// Package statements articulates the three financial statements from the
// operating and financing series: straight-line depreciation, income
// statement, cash-flow statement with its CFADS variants, and the balance
// sheet whose identity doubles as the model's main audit.
package statements

import (
	"renewable_finance/pkg/core/assumption"
	"renewable_finance/pkg/core/timeline"
)

// IncomeStatement holds the per-period P&L, in kEUR. Depreciation is stored
// negative; interest and tax are stored positive and subtracted.
type IncomeStatement struct {
	EBITDA       []float64
	Depreciation []float64
	EBIT         []float64
	EBT          []float64
	Tax          []float64
	NetIncome    []float64
}

// BuildIncome computes depreciation and the P&L. The depreciable base is
// spread over the operating life weighted by each period's operating-year
// fraction.
func BuildIncome(a *assumption.Assumptions, tl *timeline.Timeline, ebitda []float64, depreciableBase float64, seniorInterestOps, shlInterestOps []float64) *IncomeStatement {
	n := tl.N
	is := &IncomeStatement{
		EBITDA:       append([]float64(nil), ebitda...),
		Depreciation: make([]float64, n),
		EBIT:         make([]float64, n),
		EBT:          make([]float64, n),
		Tax:          make([]float64, n),
		NetIncome:    make([]float64, n),
	}

	taxRate := a.Taxes.CorporateIncomeTaxRate / 100
	life := float64(a.OperatingLife)

	for k := 0; k < n; k++ {
		is.Depreciation[k] = -depreciableBase * tl.Series.YearsDuringOperations[k] *
			tl.Series.PctInOperations[k] / life
		is.EBIT[k] = ebitda[k] + is.Depreciation[k]
		is.EBT[k] = is.EBIT[k] - seniorInterestOps[k] - shlInterestOps[k]
		if is.EBT[k] > 0 {
			is.Tax[k] = taxRate * is.EBT[k]
		}
		is.NetIncome[k] = is.EBT[k] - is.Tax[k]
	}

	return is
}

// CashFlowStatement holds operating, investing and financing flows plus the
// CFADS variants used by debt sizing and the DSRA.
type CashFlowStatement struct {
	Operating []float64
	Investing []float64
	Financing []float64
	CFADS     []float64
	CFADSAmo  []float64
}

// CashFlowInputs gathers the series feeding the CFS.
type CashFlowInputs struct {
	EBITDA             []float64
	WorkingCapMovement []float64
	Tax                []float64
	Construction       []float64
	DevelopmentFee     []float64
	LocalTaxes         []float64
	DrawdownsDebt      []float64
	DrawdownsEquity    []float64
	UpfrontFee         []float64
	InterestConstr     []float64
	CommitmentFee      []float64
}

// BuildCashFlow assembles CFO/CFI/CFF and CFADS. Construction-phase debt
// costs are financing outflows; senior operations interest and principal stay
// out of CFADS by definition.
func BuildCashFlow(tl *timeline.Timeline, in CashFlowInputs) *CashFlowStatement {
	n := tl.N
	cf := &CashFlowStatement{
		Operating: make([]float64, n),
		Investing: make([]float64, n),
		Financing: make([]float64, n),
		CFADS:     make([]float64, n),
		CFADSAmo:  make([]float64, n),
	}

	for k := 0; k < n; k++ {
		cf.Operating[k] = in.EBITDA[k] + in.WorkingCapMovement[k] - in.Tax[k]
		cf.Investing[k] = -(in.Construction[k] + in.DevelopmentFee[k] + in.LocalTaxes[k])
		cf.Financing[k] = in.DrawdownsDebt[k] + in.DrawdownsEquity[k] -
			in.UpfrontFee[k] - in.InterestConstr[k] - in.CommitmentFee[k]
		cf.CFADS[k] = cf.Operating[k] + cf.Investing[k] + cf.Financing[k]
		cf.CFADSAmo[k] = cf.CFADS[k] * tl.Flags.DebtAmo[k]
	}

	return cf
}
