// Package model is the engine driver: it runs the pipeline stages in order,
// iterates the debt-sizing fixed point and the waterfall fixed point to
// convergence, and assembles the Results record with its scalar summary and
// audit flags. One Build call is a pure function of its Assumptions.
package model

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"renewable_finance/pkg/core/assumption"
	"renewable_finance/pkg/core/energy"
	"renewable_finance/pkg/core/finance"
	"renewable_finance/pkg/core/metrics"
	"renewable_finance/pkg/core/operating"
	"renewable_finance/pkg/core/statements"
	"renewable_finance/pkg/core/timeline"
	"renewable_finance/pkg/core/waterfall"
)

const (
	maxSizingIterations    = 50
	maxWaterfallIterations = 50

	debtTolerance  = 0.01
	repaymentRtol  = 1e-5
	repaymentAtol  = 1e-3
	auditTolerance = 0.01

	// The inner loop converges much tighter than the outer one: SHL interest
	// left stale by the final iteration leaks straight into the balance-sheet
	// identity, so the residual must sit well below the audit tolerance.
	waterfallRtol = 1e-9
	waterfallAtol = 1e-9

	// Threshold below which a debt balance counts as repaid, used by the
	// maturity audit.
	residualBalance = 0.1
)

// Build runs the full model in sizing mode: the debt amount, the sculpted
// repayments, the development fee, IDC and the DSRA pre-funding are solved
// together by iterative substitution until both residuals vanish.
func Build(a *assumption.Assumptions) (*Results, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	tl := timeline.Build(a)
	prod := energy.BuildProduction(a, tl)
	prices := energy.BuildPrices(a, tl)
	rev := operating.BuildRevenues(a, tl, prod, prices)
	wc := operating.BuildWorkingCapital(a, tl, rev)

	// Seed the fixed point from the cheapest consistent state: uses without
	// financing costs, debt at the gearing cap, no repayments.
	seed := finance.BuildUses(a, tl, finance.UsesInputs{})
	debtAmount := seed.Sum() * a.Debt.MaxGearing / 100
	repayments := make([]float64, tl.N)

	var (
		devFee      float64
		idcAndFees  []float64
		dsraInitial []float64

		uses   *finance.Uses
		plan   *finance.Plan
		debt   *finance.DebtSchedule
		sizing *finance.Sizing
		fin    *financials
		err    error

		converged  bool
		iterations int
		dDebt      float64
		dRepay     float64
	)

	for iter := 1; iter <= maxSizingIterations; iter++ {
		iterations = iter

		uses = finance.BuildUses(a, tl, finance.UsesInputs{
			SeniorIDCAndFees: idcAndFees,
			DSRAInitial:      dsraInitial,
			DevFeeTotal:      devFee,
		})
		plan = finance.BuildPlan(a, tl, uses, debtAmount)
		debt = finance.BuildDebtSchedule(a, tl, debtAmount, plan.DrawdownsDebt, repayments)

		fin, err = runFinancials(a, tl, rev, wc, uses, plan, debt)
		if err != nil {
			return nil, err
		}

		sizing = finance.ComputeSizing(a, tl, debt, fin.CashFlow.CFADSAmo, uses.Sum())
		devFee = finance.OptimizedDevFee(a, sizing.TargetDebtDSCR,
			uses.Sum()-floats.Sum(uses.DevelopmentFee))
		idcAndFees = debt.IDCAndFees
		dsraInitial = fin.DSRA.InitialFunding

		dDebt = math.Abs(sizing.TargetDebtAmount - debtAmount)
		dRepay = maxAbsDiff(sizing.TargetRepayments, repayments)
		done := dDebt < debtTolerance &&
			allclose(sizing.TargetRepayments, repayments, repaymentRtol, repaymentAtol)

		debtAmount = sizing.TargetDebtAmount
		repayments = append([]float64(nil), sizing.TargetRepayments...)

		if done {
			converged = true
			break
		}
	}
	if !converged {
		return nil, &ConvergenceError{
			Loop:              LoopSizing,
			Iterations:        maxSizingIterations,
			DebtResidual:      dDebt,
			RepaymentResidual: dRepay,
		}
	}

	// One last pass so every series reflects the converged financing exactly.
	uses = finance.BuildUses(a, tl, finance.UsesInputs{
		SeniorIDCAndFees: idcAndFees,
		DSRAInitial:      dsraInitial,
		DevFeeTotal:      devFee,
	})
	plan = finance.BuildPlan(a, tl, uses, debtAmount)
	debt = finance.BuildDebtSchedule(a, tl, debtAmount, plan.DrawdownsDebt, repayments)
	fin, err = runFinancials(a, tl, rev, wc, uses, plan, debt)
	if err != nil {
		return nil, err
	}
	sizing = finance.ComputeSizing(a, tl, debt, fin.CashFlow.CFADSAmo, uses.Sum())

	r, err := assemble(a, tl, prod, prices, rev, wc, uses, plan, debt, sizing, fin, sizing.Constraint)
	if err != nil {
		return nil, err
	}
	r.Iterations = iterations
	return r, nil
}

// BuildLocked runs the model in sensitivity mode: sizing and sculpting are
// skipped, the base case's uses, debt amount and repayments are taken as
// given, and only the operating side responds to the perturbed assumptions.
func BuildLocked(a *assumption.Assumptions, lock *Lock) (*Results, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	tl := timeline.Build(a)
	prod := energy.BuildProduction(a, tl)
	prices := energy.BuildPrices(a, tl)
	rev := operating.BuildRevenues(a, tl, prod, prices)
	wc := operating.BuildWorkingCapital(a, tl, rev)

	uses := lock.Uses.Clone()
	repayments := append([]float64(nil), lock.Repayments...)
	plan := finance.BuildPlan(a, tl, uses, lock.SeniorDebtAmount)
	debt := finance.BuildDebtSchedule(a, tl, lock.SeniorDebtAmount, plan.DrawdownsDebt, repayments)

	fin, err := runFinancials(a, tl, rev, wc, uses, plan, debt)
	if err != nil {
		return nil, err
	}

	// Sizing is computed for its rate and discount series only; its targets
	// are ignored because the financing is locked.
	sizing := finance.ComputeSizing(a, tl, debt, fin.CashFlow.CFADSAmo, uses.Sum())

	return assemble(a, tl, prod, prices, rev, wc, uses, plan, debt, sizing, fin, lock.Constraint)
}

// financials is the statement block recomputed on every waterfall iteration.
type financials struct {
	Income   *statements.IncomeStatement
	CashFlow *statements.CashFlowStatement
	DSRA     *finance.DSRA
	Accounts *waterfall.Accounts
}

// runFinancials iterates the statement block to its fixed point: SHL interest
// feeds the income statement, tax feeds CFADS, CFADS feeds the DSRA and the
// waterfall, and the waterfall's SHL balance feeds interest back. Each step
// only consumes cash the previous one left, so the iteration contracts.
func runFinancials(a *assumption.Assumptions, tl *timeline.Timeline, rev *operating.Revenues, wc *operating.WorkingCapital, uses *finance.Uses, plan *finance.Plan, debt *finance.DebtSchedule) (*financials, error) {
	n := tl.N
	shlIntConstr := make([]float64, n)
	shlIntOps := make([]float64, n)

	capexBase := floats.Sum(uses.Construction) + floats.Sum(uses.DevelopmentFee) +
		floats.Sum(uses.LocalTaxes) + floats.Sum(debt.IDCAndFees)

	var f *financials
	var residual float64
	for iter := 1; iter <= maxWaterfallIterations; iter++ {
		depreciableBase := capexBase + floats.Sum(shlIntConstr)

		is := statements.BuildIncome(a, tl, rev.EBITDA, depreciableBase,
			debt.InterestOperations, shlIntOps)
		cfs := statements.BuildCashFlow(tl, statements.CashFlowInputs{
			EBITDA:             rev.EBITDA,
			WorkingCapMovement: wc.Movement,
			Tax:                is.Tax,
			Construction:       uses.Construction,
			DevelopmentFee:     uses.DevelopmentFee,
			LocalTaxes:         uses.LocalTaxes,
			DrawdownsDebt:      plan.DrawdownsDebt,
			DrawdownsEquity:    plan.DrawdownsEquity,
			UpfrontFee:         debt.UpfrontFee,
			InterestConstr:     debt.InterestConstruction,
			CommitmentFee:      debt.CommitmentFee,
		})
		dsra := finance.BuildDSRA(a, tl, debt.EffectiveDebtService, cfs.CFADSAmo)
		acc := waterfall.Pass(a, tl, waterfall.Inputs{
			CFADS:                  cfs.CFADS,
			EffectiveDebtService:   debt.EffectiveDebtService,
			DSRAMovement:           dsra.Movement,
			NetIncome:              is.NetIncome,
			SHLInjections:          plan.DrawdownsSHL,
			ShareCapitalInjections: plan.DrawdownsShareCapital,
		})

		f = &financials{Income: is, CashFlow: cfs, DSRA: dsra, Accounts: acc}

		residual = math.Max(maxAbsDiff(acc.SHLInterestConstruction, shlIntConstr),
			maxAbsDiff(acc.SHLInterestOperations, shlIntOps))
		if allclose(acc.SHLInterestConstruction, shlIntConstr, waterfallRtol, waterfallAtol) &&
			allclose(acc.SHLInterestOperations, shlIntOps, waterfallRtol, waterfallAtol) {
			return f, nil
		}
		shlIntConstr = acc.SHLInterestConstruction
		shlIntOps = acc.SHLInterestOperations
	}

	return nil, &ConvergenceError{
		Loop:              LoopWaterfall,
		Iterations:        maxWaterfallIterations,
		RepaymentResidual: residual,
	}
}

// assemble builds the balance sheet, ratios, IRRs and audit flags from a
// finished statement block.
func assemble(a *assumption.Assumptions, tl *timeline.Timeline, prod *energy.Production, prices *energy.Prices, rev *operating.Revenues, wc *operating.WorkingCapital, uses *finance.Uses, plan *finance.Plan, debt *finance.DebtSchedule, sizing *finance.Sizing, fin *financials, constraint string) (*Results, error) {
	n := tl.N
	acc := fin.Accounts

	bs := statements.BuildBalanceSheet(tl, statements.BalanceSheetInputs{
		Construction:        uses.Construction,
		DevelopmentFee:      uses.DevelopmentFee,
		LocalTaxes:          uses.LocalTaxes,
		SeniorIDCAndFees:    debt.IDCAndFees,
		SHLInterestConstr:   acc.SHLInterestConstruction,
		Depreciation:        fin.Income.Depreciation,
		ReceivablesEOP:      wc.ReceivablesEOP,
		DSRAEOP:             fin.DSRA.BalanceEOP,
		DistributionEOP:     acc.DistributionEOP,
		OperatingEOP:        acc.OperatingEOP,
		SHLEOP:              acc.SHLEOP,
		ShareCapitalEOP:     acc.ShareCapitalEOP,
		RetainedEarningsEOP: acc.RetainedEOP,
		SeniorDebtEOP:       debt.BalanceEOP,
		PayablesEOP:         wc.PayablesEOP,
	})

	cov := metrics.BuildCoverage(tl, metrics.CoverageInputs{
		CFADS:       fin.CashFlow.CFADS,
		CFADSAmo:    fin.CashFlow.CFADSAmo,
		EffectiveDS: debt.EffectiveDebtService,
		BalanceEOP:  debt.BalanceEOP,
		AverageRate: sizing.AverageRate,
	})

	r := &Results{
		Assumptions:    a,
		Timeline:       tl,
		Production:     prod,
		Prices:         prices,
		Revenues:       rev,
		WorkingCapital: wc,
		Uses:           uses,
		Plan:           plan,
		Debt:           debt,
		Sizing:         sizing,
		DSRA:           fin.DSRA,
		Income:         fin.Income,
		CashFlow:       fin.CashFlow,
		BalanceSheet:   bs,
		Accounts:       acc,
		Coverage:       cov,
	}

	// Equity and lender cash-flow vectors at EOP dates.
	r.ShareCapitalCF = make([]float64, n)
	r.SHLCF = make([]float64, n)
	r.EquityCF = make([]float64, n)
	r.ProjectCFPreTax = make([]float64, n)
	r.ProjectCFPost = make([]float64, n)
	r.SeniorDebtCF = make([]float64, n)
	for k := 0; k < n; k++ {
		r.ShareCapitalCF[k] = -plan.DrawdownsShareCapital[k] + acc.Dividends[k] + acc.ShareCapitalRepayments[k]
		r.SHLCF[k] = -plan.DrawdownsSHL[k] + acc.SHLInterestPaid[k] + acc.SHLRepayments[k]
		r.EquityCF[k] = r.ShareCapitalCF[k] + r.SHLCF[k]
		r.ProjectCFPreTax[k] = -uses.Total[k] + rev.EBITDA[k]
		r.ProjectCFPost[k] = r.ProjectCFPreTax[k] - fin.Income.Tax[k]
		r.SeniorDebtCF[k] = -debt.Drawdowns[k] + debt.Repayments[k] + debt.InterestTotal[k] +
			debt.UpfrontFee[k] + debt.CommitmentFee[k]
	}

	if err := scanFinite([]namedSeries{
		{"cfads", fin.CashFlow.CFADS},
		{"net_income", fin.Income.NetIncome},
		{"senior_debt_eop", debt.BalanceEOP},
		{"dsra_eop", fin.DSRA.BalanceEOP},
		{"distribution_eop", acc.DistributionEOP},
		{"total_assets", bs.TotalAssets},
		{"total_liabilities", bs.TotalLiabilities},
		{"equity_cf", r.EquityCF},
	}); err != nil {
		return nil, err
	}

	r.Summary = summarize(a, tl, r, constraint)
	return r, nil
}

func summarize(a *assumption.Assumptions, tl *timeline.Timeline, r *Results, constraint string) Summary {
	s := Summary{
		SeniorDebtAmount: r.Debt.Amount,
		EffectiveGearing: r.Plan.EffectiveGearing,
		DebtTenorYears:   float64(a.Debt.TenorYears),
		DebtConstraint:   constraint,
		DSCRAvg:          r.Coverage.DSCRAvg,
		DSCRMin:          r.Coverage.DSCRMin,
		LLCRMin:          r.Coverage.LLCRMin,
	}

	// Average debt life: repayment-weighted years from COD.
	totalRepaid := floats.Sum(r.Debt.Repayments)
	if totalRepaid > 0 {
		var weighted float64
		for k := 0; k < tl.N; k++ {
			weighted += r.Debt.Repayments[k] * tl.Series.YearsFromCODEOP[k]
		}
		s.AverageDebtLife = weighted / totalRepaid
	}

	dates := tl.EndDates()
	s.IRREquity = irrPct(r.EquityCF, dates)
	s.IRRShareCapital = irrPct(r.ShareCapitalCF, dates)
	s.IRRSHL = irrPct(r.SHLCF, dates)
	s.IRRProjectPreTax = irrPct(r.ProjectCFPreTax, dates)
	s.IRRProjectPostTax = irrPct(r.ProjectCFPost, dates)
	s.IRRSeniorDebt = irrPct(r.SeniorDebtCF, dates)

	asOf := a.ValuationDate()
	d0 := a.Valuation.DiscountRate
	s.Valuation = metrics.NPVDated(d0, r.EquityCF, dates, asOf)
	s.ValuationLess1 = metrics.NPVDated(d0-1, r.EquityCF, dates, asOf)
	s.ValuationPlus1 = metrics.NPVDated(d0+1, r.EquityCF, dates, asOf)

	if date, ok := metrics.Payback(r.EquityCF, dates); ok {
		s.PaybackDefined = true
		s.PaybackDate = date
		s.PaybackYears = date.Sub(a.ConstructionStart.Time).Hours() / 24 / 365
	}

	var sourcesGap float64
	for k := 0; k < tl.N; k++ {
		sourcesGap += r.Uses.Total[k] - r.Plan.Total[k]
	}
	s.CheckFinancingPlan = math.Abs(sourcesGap) < auditTolerance
	s.CheckBalanceSheet = math.Abs(r.BalanceSheet.ImbalanceSum()) < auditTolerance

	lastFunded := -1
	for k := 0; k < tl.N; k++ {
		if r.Debt.BalanceBOP[k] > residualBalance {
			lastFunded = k
		}
	}
	s.CheckDebtMaturity = lastFunded >= 0 &&
		tl.Periods[lastFunded].End.Equal(tl.DebtMaturity)

	return s
}

// irrPct runs XIRR and reports the rate in percent, NaN when undefined.
func irrPct(cashflows []float64, dates []time.Time) float64 {
	if r, ok := metrics.XIRR(cashflows, dates); ok {
		return r * 100
	}
	return math.NaN()
}

// allclose mirrors the usual elementwise |a-b| <= atol + rtol*|b| test.
func allclose(a, b []float64, rtol, atol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > atol+rtol*math.Abs(b[i]) {
			return false
		}
	}
	return true
}

func maxAbsDiff(a, b []float64) float64 {
	var max float64
	for i := range a {
		if d := math.Abs(a[i] - b[i]); d > max {
			max = d
		}
	}
	return max
}

type namedSeries struct {
	name   string
	values []float64
}

// scanFinite walks the key output series and reports the first NaN or Inf.
func scanFinite(series []namedSeries) error {
	for _, s := range series {
		for i, v := range s.values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &NumericalError{Series: s.name, Index: i}
			}
		}
	}
	return nil
}
