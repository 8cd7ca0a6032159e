// Package timeline builds the period grid of a model run: monthly
// construction periods, quarter-aligned operations periods, per-activity
// sub-timelines, boolean flags, day counts and the derived time vectors every
// later stage consumes. Built once per run and read-only afterwards.
package timeline

import (
	"time"

	"renewable_finance/pkg/core/assumption"
)

// Period is one row of the grid.
type Period struct {
	Start time.Time
	End   time.Time
}

// Timeline is the fully materialized stage-1..3 output.
type Timeline struct {
	Periods []Period
	N       int

	// Derived date identities
	COD             time.Time
	EndOfOperations time.Time
	LiquidationDate time.Time
	DebtMaturity    time.Time

	ConstructionPeriods int // leading monthly periods

	Flags  Flags
	Days   Days
	Series Series
}

// Flags are per-period 0/1 masks stored as float64 so they compose directly
// with the series arithmetic.
type Flags struct {
	Construction       []float64
	ConstructionStart  []float64
	ConstructionEnd    []float64
	Operations         []float64
	OperationsEnd      []float64
	Liquidation        []float64
	LiquidationEnd     []float64
	DebtAmo            []float64
	Contract           []float64
	ContractIndexation []float64
	MerchantIndexation []float64
	OpexIndexation     []float64
	LeaseIndexation    []float64
	StartYear          []float64
}

// Days are per-period day counts for each activity window.
type Days struct {
	Model            []float64
	Construction     []float64
	Operations       []float64
	Contract         []float64
	DebtConstruction []float64
	DebtOperations   []float64
	ContractIndex    []float64
	MerchantIndex    []float64
	OpexIndex        []float64
	LeaseIndex       []float64
}

// Build materializes the grid for a validated assumption set.
func Build(a *assumption.Assumptions) *Timeline {
	tl := &Timeline{
		COD:             a.COD(),
		EndOfOperations: a.EndOfOperations(),
		LiquidationDate: a.LiquidationDate(),
		DebtMaturity:    a.DebtMaturity(),
	}

	cs := a.ConstructionStart.Time
	ce := a.ConstructionEnd.Time

	// Construction: one period per month, first clipped up to the start day,
	// last clipped down to the end day.
	for m := firstOfMonth(cs); !m.After(ce); m = m.AddDate(0, 1, 0) {
		tl.Periods = append(tl.Periods, Period{
			Start: maxDate(m, cs),
			End:   minDate(lastOfMonth(m), ce),
		})
	}
	tl.ConstructionPeriods = len(tl.Periods)

	// Operations: the first period runs from COD to the Q-th quarter-end on
	// or after the first day following the construction-end month, so that
	// both quarterly and semi-annual grids stay anchored to the calendar and
	// the last amortization period can end exactly at debt maturity.
	q := a.PeriodicityMonths / 3
	start := tl.COD
	end := nthQuarterEnd(lastOfMonth(ce).AddDate(0, 0, 1), q)
	for {
		tl.Periods = append(tl.Periods, Period{Start: start, End: end})
		if !end.Before(tl.LiquidationDate) {
			break
		}
		start = end.AddDate(0, 0, 1)
		end = lastOfMonth(firstOfMonth(end).AddDate(0, a.PeriodicityMonths, 0))
	}
	tl.N = len(tl.Periods)

	tl.buildFlags(a)
	tl.buildDays(a)
	tl.buildSeries(a)
	return tl
}

// rangeFlag marks every period whose [start, end] intersects [lo, hi].
func (t *Timeline) rangeFlag(lo, hi time.Time) []float64 {
	out := make([]float64, t.N)
	for k, p := range t.Periods {
		if !p.End.Before(lo) && !p.Start.After(hi) {
			out[k] = 1
		}
	}
	return out
}

// activityDays counts, per period, the days of overlap with [lo, hi].
func (t *Timeline) activityDays(lo, hi time.Time) []float64 {
	out := make([]float64, t.N)
	for k, p := range t.Periods {
		if p.End.Before(lo) || p.Start.After(hi) {
			continue
		}
		subStart := clipDate(p.Start, lo, hi)
		subEnd := clipDate(p.End, lo, hi)
		out[k] = daysBetween(subStart, subEnd)
	}
	return out
}

func (t *Timeline) buildFlags(a *assumption.Assumptions) {
	cs := a.ConstructionStart.Time
	ce := a.ConstructionEnd.Time

	t.Flags = Flags{
		Construction:       t.rangeFlag(cs, ce),
		ConstructionStart:  t.rangeFlag(cs, cs),
		ConstructionEnd:    t.rangeFlag(ce, ce),
		Operations:         t.rangeFlag(t.COD, t.EndOfOperations),
		OperationsEnd:      t.rangeFlag(t.EndOfOperations, t.EndOfOperations),
		Liquidation:        t.rangeFlag(t.EndOfOperations.AddDate(0, 0, 1), t.LiquidationDate),
		LiquidationEnd:     t.rangeFlag(t.LiquidationDate, t.LiquidationDate),
		Contract:           t.rangeFlag(a.Contract.Start.Time, a.Contract.End.Time),
		ContractIndexation: t.rangeFlag(a.Contract.IndexationStart.Time, t.LiquidationDate),
		MerchantIndexation: t.rangeFlag(a.Merchant.IndexationStart.Time, t.LiquidationDate),
		OpexIndexation:     t.rangeFlag(a.Opex.OpexIndexationStart.Time, t.LiquidationDate),
		LeaseIndexation:    t.rangeFlag(a.Opex.LeaseIndexationStart.Time, t.LiquidationDate),
	}

	// Debt amortization: operations periods fully inside the debt tenor.
	t.Flags.DebtAmo = make([]float64, t.N)
	for k, p := range t.Periods {
		if t.Flags.Operations[k] == 1 && !p.End.After(t.DebtMaturity) {
			t.Flags.DebtAmo[k] = 1
		}
	}

	t.Flags.StartYear = make([]float64, t.N)
	for k, p := range t.Periods {
		if p.Start.Month() == time.January {
			t.Flags.StartYear[k] = 1
		}
	}
}

func (t *Timeline) buildDays(a *assumption.Assumptions) {
	cs := a.ConstructionStart.Time
	ce := a.ConstructionEnd.Time

	model := make([]float64, t.N)
	for k, p := range t.Periods {
		model[k] = daysBetween(p.Start, p.End)
	}

	t.Days = Days{
		Model:            model,
		Construction:     t.activityDays(cs, ce),
		Operations:       t.activityDays(t.COD, t.EndOfOperations),
		Contract:         t.activityDays(a.Contract.Start.Time, a.Contract.End.Time),
		DebtConstruction: t.activityDays(cs, ce),
		DebtOperations:   t.activityDays(t.COD, t.DebtMaturity),
		ContractIndex:    t.activityDays(a.Contract.IndexationStart.Time, t.LiquidationDate),
		MerchantIndex:    t.activityDays(a.Merchant.IndexationStart.Time, t.LiquidationDate),
		OpexIndex:        t.activityDays(a.Opex.OpexIndexationStart.Time, t.LiquidationDate),
		LeaseIndex:       t.activityDays(a.Opex.LeaseIndexationStart.Time, t.LiquidationDate),
	}
}

// EndDates returns the EOP date of every period, used for XIRR and lookups.
func (t *Timeline) EndDates() []time.Time {
	out := make([]time.Time, t.N)
	for k, p := range t.Periods {
		out[k] = p.End
	}
	return out
}
