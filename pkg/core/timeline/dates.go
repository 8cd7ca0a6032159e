package timeline

import "time"

// Calendar helpers. All dates are midnight UTC, day precision.

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func lastOfMonth(t time.Time) time.Time {
	return firstOfMonth(t).AddDate(0, 1, -1)
}

// endOfQuarter returns the last day of the calendar quarter containing t.
func endOfQuarter(t time.Time) time.Time {
	qEndMonth := time.Month(((int(t.Month())-1)/3)*3 + 3)
	return lastOfMonth(time.Date(t.Year(), qEndMonth, 1, 0, 0, 0, 0, time.UTC))
}

// nthQuarterEnd walks n quarter-ends starting from the quarter containing t:
// the first step lands on t's own quarter end, each further step advances one
// calendar quarter.
func nthQuarterEnd(t time.Time, n int) time.Time {
	qe := endOfQuarter(t)
	for i := 1; i < n; i++ {
		qe = endOfQuarter(qe.AddDate(0, 0, 1))
	}
	return qe
}

// daysBetween counts days from start to end inclusive.
func daysBetween(start, end time.Time) float64 {
	return end.Sub(start).Hours()/24 + 1
}

func minDate(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func maxDate(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

// clipDate bounds t into [lo, hi].
func clipDate(t, lo, hi time.Time) time.Time {
	return maxDate(lo, minDate(t, hi))
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func daysInMonth(year int, month time.Month) float64 {
	return daysBetween(
		time.Date(year, month, 1, 0, 0, 0, 0, time.UTC),
		lastOfMonth(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)))
}
