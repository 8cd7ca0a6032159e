package timeline

import (
	"gonum.org/v1/gonum/floats"

	"renewable_finance/pkg/core/assumption"
)

// Series are the derived per-period time vectors of stage 3.
type Series struct {
	DaysInYear            []float64
	YearsInPeriod         []float64
	YearsDuringOperations []float64
	YearsFromCODBOP       []float64
	YearsFromCODEOP       []float64
	YearsFromCODAvg       []float64
	PctInOperations       []float64
	PctInContract         []float64

	// Fractional years elapsed under each indexation window, from its base.
	YearsFromContractIndex []float64
	YearsFromMerchantIndex []float64
	YearsFromOpexIndex     []float64
	YearsFromLeaseIndex    []float64
}

func (t *Timeline) buildSeries(a *assumption.Assumptions) {
	n := t.N
	s := Series{
		DaysInYear:            make([]float64, n),
		YearsInPeriod:         make([]float64, n),
		YearsDuringOperations: make([]float64, n),
		YearsFromCODBOP:       make([]float64, n),
		YearsFromCODEOP:       make([]float64, n),
		YearsFromCODAvg:       make([]float64, n),
		PctInOperations:       make([]float64, n),
		PctInContract:         make([]float64, n),
	}

	for k, p := range t.Periods {
		if isLeap(p.End.Year()) {
			s.DaysInYear[k] = 366
		} else {
			s.DaysInYear[k] = 365
		}
		s.YearsInPeriod[k] = t.Days.Model[k] / s.DaysInYear[k]
		s.YearsDuringOperations[k] = s.YearsInPeriod[k] * t.Flags.Operations[k]

		// Zero-on-zero rule: coverage fractions default to 0, never NaN.
		if t.Days.Model[k] > 0 {
			s.PctInOperations[k] = t.Days.Operations[k] / t.Days.Model[k]
		}
		if t.Days.Operations[k] > 0 {
			s.PctInContract[k] = t.Days.Contract[k] / t.Days.Operations[k]
		}
	}

	floats.CumSum(s.YearsFromCODEOP, s.YearsDuringOperations)
	for k := range s.YearsFromCODEOP {
		s.YearsFromCODBOP[k] = s.YearsFromCODEOP[k] - s.YearsDuringOperations[k]
		s.YearsFromCODAvg[k] = (s.YearsFromCODBOP[k] + s.YearsFromCODEOP[k]) / 2
	}

	s.YearsFromContractIndex = t.yearsFromBase(t.Days.ContractIndex, s.DaysInYear)
	s.YearsFromMerchantIndex = t.yearsFromBase(t.Days.MerchantIndex, s.DaysInYear)
	s.YearsFromOpexIndex = t.yearsFromBase(t.Days.OpexIndex, s.DaysInYear)
	s.YearsFromLeaseIndex = t.yearsFromBase(t.Days.LeaseIndex, s.DaysInYear)

	t.Series = s
}

// yearsFromBase accumulates activity days into fractional years elapsed.
func (t *Timeline) yearsFromBase(days, daysInYear []float64) []float64 {
	frac := make([]float64, t.N)
	for k := range frac {
		frac[k] = days[k] / daysInYear[k]
	}
	out := make([]float64, t.N)
	floats.CumSum(out, frac)
	return out
}
