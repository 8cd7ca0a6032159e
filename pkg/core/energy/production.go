// Package energy computes the physical and price series of the model:
// capacity after degradation, day-weighted seasonality allocation, energy
// production split between contracted and merchant volumes, compounding
// indexation vectors and the nominal price curves.
package energy

import (
	"math"
	"time"

	"renewable_finance/pkg/core/assumption"
	"renewable_finance/pkg/core/timeline"
)

// Production holds the stage-4 output series.
type Production struct {
	CapacityAfterDegradation []float64 // kW, during operations only
	Seasonality              []float64 // day-weighted monthly allocation per period
	Total                    []float64 // MWh
	Contract                 []float64 // MWh sold under the PPA
	ContractCumInYear        []float64 // MWh, resets each January period
}

// BuildProduction computes capacity, seasonality and production volumes.
// The production sensitivity (percent) scales volumes uniformly.
func BuildProduction(a *assumption.Assumptions, tl *timeline.Timeline) *Production {
	n := tl.N
	tech := a.Technology()
	installed := tech.InstalledCapacityKW()
	degradation := tech.DegradationRate() / 100

	p := &Production{
		CapacityAfterDegradation: make([]float64, n),
		Seasonality:              make([]float64, n),
		Total:                    make([]float64, n),
		Contract:                 make([]float64, n),
		ContractCumInYear:        make([]float64, n),
	}

	// Specific yield in MWh per kW per year; percentiles arrive in kWh/kW.
	yield := a.Production.Selected() / 1000
	sensi := 1 + a.Sensitivity.Production/100

	for k := range tl.Periods {
		p.CapacityAfterDegradation[k] = installed * tl.Flags.Operations[k] *
			math.Pow(1+degradation, -tl.Series.YearsFromCODAvg[k])
		p.Seasonality[k] = allocateSeasonality(tl.Periods[k], a.Production.Seasonality)
		p.Total[k] = yield * p.Seasonality[k] * p.CapacityAfterDegradation[k] * sensi
		p.Contract[k] = p.Total[k] * tl.Series.PctInContract[k] * tl.Series.PctInOperations[k]
	}

	// Cumulative contracted volume within each calendar year.
	var cum float64
	for k := range p.Contract {
		if tl.Flags.StartYear[k] == 1 {
			cum = 0
		}
		cum += p.Contract[k]
		p.ContractCumInYear[k] = cum
	}

	return p
}

// allocateSeasonality spreads the 12 monthly factors over an arbitrary period
// by day overlap: each month contributes its factor scaled by the share of its
// days falling inside the period. A full calendar year of periods therefore
// sums back to exactly 1.
func allocateSeasonality(p timeline.Period, monthly []float64) float64 {
	var total float64
	for m := firstOfMonth(p.Start); !m.After(p.End); m = m.AddDate(0, 1, 0) {
		monthEnd := m.AddDate(0, 1, -1)
		overlapStart := maxTime(p.Start, m)
		overlapEnd := minTime(p.End, monthEnd)
		overlapDays := overlapEnd.Sub(overlapStart).Hours()/24 + 1
		monthDays := monthEnd.Sub(m).Hours()/24 + 1
		total += overlapDays / monthDays * monthly[m.Month()-1]
	}
	return total
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
