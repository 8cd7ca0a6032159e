package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"renewable_finance/pkg/core/timeline"
)

// Coverage holds the lender ratios.
type Coverage struct {
	DSCR    []float64
	DSCRAvg float64
	DSCRMin float64

	LLCR    []float64
	LLCRMin float64
	PLCR    []float64

	// DiscountRate is the mean achieved all-in rate used for LLCR/PLCR, as a
	// fraction.
	DiscountRate float64
}

// CoverageInputs collects the series the ratios are built from.
type CoverageInputs struct {
	CFADS       []float64
	CFADSAmo    []float64
	EffectiveDS []float64
	BalanceEOP  []float64
	AverageRate []float64 // per-period achieved rate, fraction
}

const balanceFloor = 0.1

// BuildCoverage computes per-period DSCR and the forward-NPV loan-life and
// project-life cover ratios, with min/avg taken over amortization periods.
func BuildCoverage(tl *timeline.Timeline, in CoverageInputs) *Coverage {
	n := tl.N
	c := &Coverage{
		DSCR: make([]float64, n),
		LLCR: make([]float64, n),
		PLCR: make([]float64, n),
	}

	var positiveRates []float64
	for _, r := range in.AverageRate {
		if r > 0 {
			positiveRates = append(positiveRates, r)
		}
	}
	if len(positiveRates) > 0 {
		c.DiscountRate = stat.Mean(positiveRates, nil)
	}

	lastAmo := -1
	for k := 0; k < n; k++ {
		if tl.Flags.DebtAmo[k] == 1 {
			lastAmo = k
		}
	}

	var dscrSum float64
	var dscrCount int
	c.DSCRMin = math.Inf(1)
	for k := 0; k < n; k++ {
		if in.EffectiveDS[k] > 1e-9 {
			c.DSCR[k] = in.CFADSAmo[k] / in.EffectiveDS[k]
		}
		if tl.Flags.DebtAmo[k] == 1 && in.EffectiveDS[k] > 1e-9 {
			dscrSum += c.DSCR[k]
			dscrCount++
			if c.DSCR[k] < c.DSCRMin {
				c.DSCRMin = c.DSCR[k]
			}
		}
	}
	if dscrCount > 0 {
		c.DSCRAvg = dscrSum / float64(dscrCount)
	} else {
		c.DSCRMin = 0
	}

	// Forward NPV of CFADS from each period, discounted on operating years.
	c.LLCRMin = math.Inf(1)
	anyLLCR := false
	for k := 0; k < n; k++ {
		if in.BalanceEOP[k] <= balanceFloor {
			continue
		}
		var npvLoan, npvProject float64
		for j := k + 1; j < n; j++ {
			years := tl.Series.YearsFromCODEOP[j] - tl.Series.YearsFromCODEOP[k]
			df := math.Pow(1+c.DiscountRate, -years)
			if j <= lastAmo {
				npvLoan += in.CFADSAmo[j] * df
			}
			npvProject += in.CFADS[j] * df
		}
		c.LLCR[k] = npvLoan / in.BalanceEOP[k]
		c.PLCR[k] = npvProject / in.BalanceEOP[k]

		// The final amortization period divides a near-zero balance by a
		// near-zero tail; keep it out of the minimum.
		if tl.Flags.DebtAmo[k] == 1 && k < lastAmo {
			anyLLCR = true
			if c.LLCR[k] < c.LLCRMin {
				c.LLCRMin = c.LLCR[k]
			}
		}
	}
	if !anyLLCR {
		c.LLCRMin = 0
	}

	return c
}
