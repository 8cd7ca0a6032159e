package model

import (
	"time"

	"renewable_finance/pkg/core/assumption"
	"renewable_finance/pkg/core/energy"
	"renewable_finance/pkg/core/finance"
	"renewable_finance/pkg/core/metrics"
	"renewable_finance/pkg/core/operating"
	"renewable_finance/pkg/core/statements"
	"renewable_finance/pkg/core/timeline"
	"renewable_finance/pkg/core/waterfall"
)

// Results is the complete output of one run: every per-period series each
// stage produced, plus the scalar summary.
type Results struct {
	Assumptions *assumption.Assumptions
	Timeline    *timeline.Timeline

	Production     *energy.Production
	Prices         *energy.Prices
	Revenues       *operating.Revenues
	WorkingCapital *operating.WorkingCapital

	Uses   *finance.Uses
	Plan   *finance.Plan
	Debt   *finance.DebtSchedule
	Sizing *finance.Sizing
	DSRA   *finance.DSRA

	Income       *statements.IncomeStatement
	CashFlow     *statements.CashFlowStatement
	BalanceSheet *statements.BalanceSheet
	Accounts     *waterfall.Accounts

	Coverage *metrics.Coverage

	// Equity-side cash-flow vectors at EOP dates, kept for inspection and for
	// re-discounting at other rates.
	ShareCapitalCF  []float64
	SHLCF           []float64
	EquityCF        []float64
	ProjectCFPreTax []float64
	ProjectCFPost   []float64
	SeniorDebtCF    []float64

	Summary    Summary
	Iterations int // outer sizing iterations used (0 in locked mode)
}

// Summary holds the scalar metrics of a run. IRRs and the discount-rate
// inputs are percents; undefined IRRs are NaN.
type Summary struct {
	SeniorDebtAmount float64
	EffectiveGearing float64 // fraction
	DebtTenorYears   float64
	AverageDebtLife  float64 // repayment-weighted years from COD
	DebtConstraint   string

	DSCRAvg float64
	DSCRMin float64
	LLCRMin float64

	IRREquity         float64
	IRRShareCapital   float64
	IRRSHL            float64
	IRRProjectPreTax  float64
	IRRProjectPostTax float64
	IRRSeniorDebt     float64

	Valuation      float64
	ValuationLess1 float64
	ValuationPlus1 float64

	PaybackDefined bool
	PaybackDate    time.Time
	PaybackYears   float64

	CheckFinancingPlan bool
	CheckBalanceSheet  bool
	CheckDebtMaturity  bool
}

// Lock freezes the financing of a converged base case so sensitivity runs can
// inherit it. Everything is deep-copied; a locked run must never write into
// the base case's arrays.
type Lock struct {
	SeniorDebtAmount float64
	Repayments       []float64
	Uses             *finance.Uses
	Constraint       string
}

// Lock extracts the financing lock from a converged run.
func (r *Results) Lock() *Lock {
	return &Lock{
		SeniorDebtAmount: r.Debt.Amount,
		Repayments:       append([]float64(nil), r.Debt.Repayments...),
		Uses:             r.Uses.Clone(),
		Constraint:       r.Sizing.Constraint,
	}
}
