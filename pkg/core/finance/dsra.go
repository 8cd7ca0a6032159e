package finance

import (
	"renewable_finance/pkg/core/assumption"
	"renewable_finance/pkg/core/timeline"
)

// DSRA is the debt service reserve account ledger.
type DSRA struct {
	Target         []float64
	InitialFunding []float64
	CashAvailable  []float64
	Additions      []float64
	Releases       []float64
	BalanceBOP     []float64
	BalanceEOP     []float64
	Movement       []float64
}

// BuildDSRA sizes the reserve on the next L periods of effective debt service
// and rolls it forward: funded at construction end, topped up from surplus
// cash, released on shortfalls and when above target.
func BuildDSRA(a *assumption.Assumptions, tl *timeline.Timeline, effectiveDS, cfadsAmo []float64) *DSRA {
	n := tl.N
	d := &DSRA{
		Target:         make([]float64, n),
		InitialFunding: make([]float64, n),
		CashAvailable:  make([]float64, n),
		Additions:      make([]float64, n),
		Releases:       make([]float64, n),
		BalanceBOP:     make([]float64, n),
		BalanceEOP:     make([]float64, n),
		Movement:       make([]float64, n),
	}

	lookahead := a.Debt.DSRAMonths / a.PeriodicityMonths
	for k := 0; k < n; k++ {
		var sum float64
		for j := k + 1; j <= k+lookahead && j < n; j++ {
			sum += effectiveDS[j]
		}
		d.Target[k] = sum * tl.Flags.DebtAmo[k]
	}

	// The first strictly positive target is pre-funded as a construction use.
	var initial float64
	for k := 0; k < n; k++ {
		if d.Target[k] > 0 {
			initial = d.Target[k]
			break
		}
	}
	for k := 0; k < n; k++ {
		d.InitialFunding[k] = initial * tl.Flags.ConstructionEnd[k]
	}

	var bop float64
	for k := 0; k < n; k++ {
		d.BalanceBOP[k] = bop
		d.CashAvailable[k] = cfadsAmo[k] - effectiveDS[k]

		current := bop + d.InitialFunding[k]
		effTarget := d.Target[k] + d.InitialFunding[k]

		if d.CashAvailable[k] < 0 {
			// Shortfall: the reserve covers it, then sheds any excess above
			// target as well.
			release := -d.CashAvailable[k]
			if release > current {
				release = current
			}
			current -= release
			if current > effTarget {
				release += current - effTarget
			}
			d.Releases[k] = release
		} else {
			gap := effTarget - current
			if gap > 0 {
				add := gap
				if add > d.CashAvailable[k] {
					add = d.CashAvailable[k]
				}
				d.Additions[k] = add
			} else {
				d.Releases[k] = -gap
			}
		}

		eop := bop + d.InitialFunding[k] + d.Additions[k] - d.Releases[k]
		if eop < 0 {
			eop = 0
		}
		if eop > effTarget {
			eop = effTarget
		}
		d.BalanceEOP[k] = eop
		d.Movement[k] = eop - bop
		bop = eop
	}

	return d
}
