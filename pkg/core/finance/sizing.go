package finance

import (
	"gonum.org/v1/gonum/floats"

	"renewable_finance/pkg/core/assumption"
	"renewable_finance/pkg/core/timeline"
)

// Debt constraint labels.
const (
	ConstraintGearing = "Gearing"
	ConstraintDSCR    = "DSCR"
)

// Sizing is the output of one debt-sizing pass: the discounting machinery,
// the two capacity caps and the sculpted repayment profile.
type Sizing struct {
	AverageRate       []float64
	DiscountFactor    []float64
	DiscountFactorCum []float64
	TargetDebtService []float64

	TargetDebtDSCR    float64
	TargetDebtGearing float64
	TargetDebtAmount  float64
	Constraint        string

	SculptDSCR       float64
	TargetRepayments []float64
}

// ComputeSizing derives the debt capacity from CFADS and the gearing cap, and
// sculpts repayments so achieved DSCR tracks the target.
//
// The per-period discount factor reconstructs the achieved all-in rate from
// the schedule itself (interest over opening balance, re-annualized on
// actual/360), so the capacity stays consistent with the interest actually
// accrued at the current fixed-point iterate.
func ComputeSizing(a *assumption.Assumptions, tl *timeline.Timeline, debt *DebtSchedule, cfadsAmo []float64, totalUses float64) *Sizing {
	n := tl.N
	s := &Sizing{
		AverageRate:       make([]float64, n),
		DiscountFactor:    make([]float64, n),
		DiscountFactorCum: make([]float64, n),
		TargetDebtService: make([]float64, n),
		TargetRepayments:  make([]float64, n),
	}

	for k := 0; k < n; k++ {
		if debt.BalanceBOP[k] > 0 && tl.Days.DebtOperations[k] > 0 {
			s.AverageRate[k] = debt.InterestOperations[k] / debt.BalanceBOP[k] * 360 / tl.Days.DebtOperations[k]
		}
		if tl.Flags.DebtAmo[k] == 1 {
			s.DiscountFactor[k] = 1 / (1 + s.AverageRate[k]*tl.Days.DebtOperations[k]/360)
		} else {
			s.DiscountFactor[k] = 1
		}
		s.TargetDebtService[k] = cfadsAmo[k] / a.Debt.TargetDSCR
	}
	floats.CumProd(s.DiscountFactorCum, s.DiscountFactor)

	for k := 0; k < n; k++ {
		s.TargetDebtDSCR += s.TargetDebtService[k] * s.DiscountFactorCum[k]
	}
	s.TargetDebtGearing = totalUses * a.Debt.MaxGearing / 100

	s.TargetDebtAmount = s.TargetDebtDSCR
	s.Constraint = ConstraintDSCR
	if s.TargetDebtGearing < s.TargetDebtDSCR {
		s.TargetDebtAmount = s.TargetDebtGearing
		s.Constraint = ConstraintGearing
	}
	// Negative CFADS supports no debt at all.
	if s.TargetDebtAmount < 0 {
		s.TargetDebtAmount = 0
	}

	// Sculpting: scale repayments so the discounted CFADS absorbs exactly the
	// drawn amount, then bound each period by cash above interest and by the
	// outstanding balance.
	drawn := floats.Sum(debt.Drawdowns)
	s.SculptDSCR = 1
	if drawn > 0 {
		var discounted float64
		for k := 0; k < n; k++ {
			discounted += cfadsAmo[k] * s.DiscountFactorCum[k]
		}
		s.SculptDSCR = discounted / drawn
	}
	if s.SculptDSCR <= 0 {
		// No positive cash over the amortization window: nothing to sculpt.
		s.SculptDSCR = 1
	}
	for k := 0; k < n; k++ {
		target := cfadsAmo[k]/s.SculptDSCR - debt.InterestOperations[k]
		if target > debt.BalanceBOP[k] {
			target = debt.BalanceBOP[k]
		}
		if target < 0 {
			target = 0
		}
		s.TargetRepayments[k] = target
	}

	return s
}
