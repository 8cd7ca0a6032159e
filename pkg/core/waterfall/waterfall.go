// Package waterfall runs the cash accounts below CFADS: the operating
// account with its minimum-cash floor, and the distribution waterfall paying
// shareholder-loan interest, dividends, shareholder-loan principal and the
// terminal share-capital redemption, with the matching equity-side
// rollforwards (SHL, share capital, retained earnings).
package waterfall

import (
	"renewable_finance/pkg/core/assumption"
	"renewable_finance/pkg/core/timeline"
)

// Accounts is one full pass over the cash and equity ledgers, in kEUR.
type Accounts struct {
	OperatingBOP []float64
	OperatingEOP []float64
	Transfer     []float64

	DistributionBOP []float64
	DistributionEOP []float64

	SHLInterestConstruction []float64 // accrued and capitalized
	SHLInterestOperations   []float64 // accrued
	SHLInterestPaid         []float64
	SHLInterestCapitalized  []float64 // unpaid operations accrual

	Dividends              []float64 // amounts paid, positive
	SHLRepayments          []float64
	ShareCapitalRepayments []float64

	SHLBOP          []float64
	SHLEOP          []float64
	ShareCapitalBOP []float64
	ShareCapitalEOP []float64
	RetainedBOP     []float64
	RetainedEOP     []float64
}

// Inputs feeds one waterfall pass. NetIncome must already include the SHL
// interest expense of the previous pass; the caller iterates passes to the
// fixed point.
type Inputs struct {
	CFADS                  []float64
	EffectiveDebtService   []float64
	DSRAMovement           []float64
	NetIncome              []float64
	SHLInjections          []float64
	ShareCapitalInjections []float64
}

// Pass walks the periods once, top of the waterfall to the bottom. Every step
// can only consume cash left by the previous one, which is what makes the
// enclosing fixed-point iteration converge monotonically.
func Pass(a *assumption.Assumptions, tl *timeline.Timeline, in Inputs) *Accounts {
	n := tl.N
	acc := &Accounts{
		OperatingBOP:            make([]float64, n),
		OperatingEOP:            make([]float64, n),
		Transfer:                make([]float64, n),
		DistributionBOP:         make([]float64, n),
		DistributionEOP:         make([]float64, n),
		SHLInterestConstruction: make([]float64, n),
		SHLInterestOperations:   make([]float64, n),
		SHLInterestPaid:         make([]float64, n),
		SHLInterestCapitalized:  make([]float64, n),
		Dividends:               make([]float64, n),
		SHLRepayments:           make([]float64, n),
		ShareCapitalRepayments:  make([]float64, n),
		SHLBOP:                  make([]float64, n),
		SHLEOP:                  make([]float64, n),
		ShareCapitalBOP:         make([]float64, n),
		ShareCapitalEOP:         make([]float64, n),
		RetainedBOP:             make([]float64, n),
		RetainedEOP:             make([]float64, n),
	}

	shlRate := a.Equity.SHLMargin / 100

	var opBalance, distBalance, shl, shareCapital, retained float64
	for k := 0; k < n; k++ {
		acc.OperatingBOP[k] = opBalance
		acc.DistributionBOP[k] = distBalance
		acc.SHLBOP[k] = shl
		acc.ShareCapitalBOP[k] = shareCapital
		acc.RetainedBOP[k] = retained

		// Operating account: cash above the minimum moves to distribution.
		pre := opBalance + in.CFADS[k] - in.EffectiveDebtService[k] - in.DSRAMovement[k]
		floor := a.Equity.CashMin * tl.Flags.Operations[k]
		transfer := pre - floor
		if transfer < 0 {
			transfer = 0
		}
		acc.Transfer[k] = transfer
		opBalance = pre - transfer
		acc.OperatingEOP[k] = opBalance

		// SHL interest accrues on the opening balance, actual/360.
		acc.SHLInterestConstruction[k] = shlRate * shl * tl.Days.Construction[k] / 360
		acc.SHLInterestOperations[k] = shlRate * shl * tl.Days.Operations[k] / 360

		available := distBalance + transfer

		// 1. SHL operations interest, paid up to cash; shortfall capitalizes.
		paid := acc.SHLInterestOperations[k]
		if paid > available {
			paid = available
		}
		acc.SHLInterestPaid[k] = paid
		acc.SHLInterestCapitalized[k] = acc.SHLInterestOperations[k] - paid
		available -= paid

		// 2. Dividends, bounded by distributable profit.
		distributable := retained + in.NetIncome[k]
		if distributable < 0 {
			distributable = 0
		}
		dividends := distributable
		if dividends > available {
			dividends = available
		}
		acc.Dividends[k] = dividends
		available -= dividends

		// 3. SHL principal, bounded by the balance including this period's
		// injections and capitalized interest.
		shlOutstanding := shl + in.SHLInjections[k] +
			acc.SHLInterestConstruction[k] + acc.SHLInterestCapitalized[k]
		repay := shlOutstanding
		if repay > available {
			repay = available
		}
		acc.SHLRepayments[k] = repay
		available -= repay

		// 4. Terminal share-capital redemption sweeps the account.
		if tl.Flags.LiquidationEnd[k] == 1 {
			redemption := shareCapital + in.ShareCapitalInjections[k]
			if redemption > available {
				redemption = available
			}
			acc.ShareCapitalRepayments[k] = redemption
			available -= redemption
		}

		distBalance = available
		acc.DistributionEOP[k] = distBalance

		shl = shlOutstanding - repay
		acc.SHLEOP[k] = shl
		shareCapital += in.ShareCapitalInjections[k] - acc.ShareCapitalRepayments[k]
		acc.ShareCapitalEOP[k] = shareCapital
		retained += in.NetIncome[k] - dividends
		acc.RetainedEOP[k] = retained
	}

	return acc
}
