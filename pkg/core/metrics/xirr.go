// Package metrics computes the return and coverage metrics of a finished
// run: XIRR over dated cash flows, dated NPV, DSCR/LLCR/PLCR and payback.
package metrics

import (
	"math"
	"time"
)

const (
	xirrTolerance  = 1e-9
	xirrMaxNewton  = 60
	xirrMaxBisect  = 200
	xirrBracketLow = -0.9999
	xirrBracketHi  = 10.0
)

// XIRR solves the actual-day-count internal rate of return of an irregular
// cash-flow stream: the r with sum(cf_i * (1+r)^(-days_i/365)) = 0, days
// measured from the first date. Newton first, bracketing bisection as the
// fallback. ok is false when the stream never changes sign or no root is
// bracketed.
func XIRR(cashflows []float64, dates []time.Time) (float64, bool) {
	if len(cashflows) == 0 || len(cashflows) != len(dates) {
		return 0, false
	}

	hasPos, hasNeg := false, false
	for _, cf := range cashflows {
		if cf > 0 {
			hasPos = true
		}
		if cf < 0 {
			hasNeg = true
		}
	}
	if !hasPos || !hasNeg {
		return 0, false
	}

	years := make([]float64, len(dates))
	for i, d := range dates {
		years[i] = d.Sub(dates[0]).Hours() / 24 / 365
	}

	npv := func(r float64) (float64, float64) {
		var f, df float64
		for i, cf := range cashflows {
			v := math.Pow(1+r, -years[i])
			f += cf * v
			df += cf * -years[i] * v / (1 + r)
		}
		return f, df
	}

	// Newton from a conventional starting guess.
	r := 0.1
	for i := 0; i < xirrMaxNewton; i++ {
		f, df := npv(r)
		if math.Abs(f) < xirrTolerance {
			return r, true
		}
		if df == 0 || math.IsNaN(df) || math.IsInf(df, 0) {
			break
		}
		next := r - f/df
		if next <= xirrBracketLow || next > xirrBracketHi || math.IsNaN(next) {
			break
		}
		if math.Abs(next-r) < xirrTolerance {
			return next, true
		}
		r = next
	}

	// Bisection over a fixed bracket.
	lo, hi := xirrBracketLow, xirrBracketHi
	flo, _ := npv(lo)
	fhi, _ := npv(hi)
	if flo*fhi > 0 {
		return 0, false
	}
	for i := 0; i < xirrMaxBisect; i++ {
		mid := (lo + hi) / 2
		fmid, _ := npv(mid)
		if math.Abs(fmid) < xirrTolerance || hi-lo < xirrTolerance {
			return mid, true
		}
		if flo*fmid <= 0 {
			hi = mid
		} else {
			lo, flo = mid, fmid
		}
	}
	return (lo + hi) / 2, true
}

// NPVDated discounts dated flows at ratePct (percent) back to asOf. Flows
// on or before asOf are carried at face value.
func NPVDated(ratePct float64, cashflows []float64, dates []time.Time, asOf time.Time) float64 {
	var npv float64
	for i, cf := range cashflows {
		years := dates[i].Sub(asOf).Hours() / 24 / 365
		if years < 0 {
			years = 0
		}
		npv += cf * math.Pow(1+ratePct/100, -years)
	}
	return npv
}

// Payback returns the first EOP date at which the cumulative cash flow turns
// non-negative.
func Payback(cashflows []float64, dates []time.Time) (time.Time, bool) {
	var cum float64
	for i, cf := range cashflows {
		cum += cf
		if cum >= 0 {
			return dates[i], true
		}
	}
	return time.Time{}, false
}
