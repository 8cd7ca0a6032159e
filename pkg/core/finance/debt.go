package finance

import (
	"renewable_finance/pkg/core/assumption"
	"renewable_finance/pkg/core/timeline"
)

// DebtSchedule is the senior facility ledger: balances, actual/360 interest
// on the construction and operations day counts, and the two fees.
type DebtSchedule struct {
	Amount float64

	Drawdowns  []float64
	Repayments []float64
	BalanceBOP []float64
	BalanceEOP []float64

	InterestConstruction []float64
	InterestOperations   []float64
	InterestTotal        []float64
	UpfrontFee           []float64
	CommitmentFee        []float64

	// IDCAndFees is the construction-phase debt cost entering uses of funds.
	IDCAndFees []float64

	EffectiveDebtService []float64 // repayments + operations interest
}

// BuildDebtSchedule rolls the facility forward from drawdowns and repayments.
func BuildDebtSchedule(a *assumption.Assumptions, tl *timeline.Timeline, amount float64, drawdowns, repayments []float64) *DebtSchedule {
	n := tl.N
	d := &DebtSchedule{
		Amount:               amount,
		Drawdowns:            append([]float64(nil), drawdowns...),
		Repayments:           append([]float64(nil), repayments...),
		BalanceBOP:           make([]float64, n),
		BalanceEOP:           make([]float64, n),
		InterestConstruction: make([]float64, n),
		InterestOperations:   make([]float64, n),
		InterestTotal:        make([]float64, n),
		UpfrontFee:           make([]float64, n),
		CommitmentFee:        make([]float64, n),
		IDCAndFees:           make([]float64, n),
		EffectiveDebtService: make([]float64, n),
	}

	rate := a.Debt.Margin / 100
	upfrontRate := a.Debt.UpfrontFee / 100
	commitmentRate := a.Debt.CommitmentFee / 100

	var balance float64
	for k := 0; k < n; k++ {
		d.BalanceBOP[k] = balance
		balance += drawdowns[k] - repayments[k]
		d.BalanceEOP[k] = balance

		d.InterestConstruction[k] = d.BalanceBOP[k] * rate * tl.Days.DebtConstruction[k] / 360
		d.InterestOperations[k] = d.BalanceBOP[k] * rate * tl.Days.DebtOperations[k] / 360
		d.InterestTotal[k] = d.InterestConstruction[k] + d.InterestOperations[k]

		d.UpfrontFee[k] = amount * upfrontRate * tl.Flags.ConstructionStart[k]

		// Commitment fee accrues on the undrawn commitment during construction.
		available := (amount - d.BalanceBOP[k]) * tl.Flags.Construction[k]
		d.CommitmentFee[k] = available * commitmentRate * tl.Days.Model[k] / 360

		d.IDCAndFees[k] = d.InterestConstruction[k] + d.UpfrontFee[k] + d.CommitmentFee[k]
		d.EffectiveDebtService[k] = repayments[k] + d.InterestOperations[k]
	}

	return d
}
