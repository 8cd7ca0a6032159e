package model

import "fmt"

// Loop labels for ConvergenceError.
const (
	LoopSizing    = "debt sizing"
	LoopWaterfall = "waterfall"
)

// ConvergenceError reports a fixed-point loop that hit its iteration cap.
// It carries the last residuals so the caller can tell a near-miss from a
// genuine divergence.
type ConvergenceError struct {
	Loop              string
	Iterations        int
	DebtResidual      float64
	RepaymentResidual float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%s loop did not converge after %d iterations (|Δdebt|=%.6f, max|Δrepayments|=%.6f)",
		e.Loop, e.Iterations, e.DebtResidual, e.RepaymentResidual)
}

// NumericalError reports a NaN or Inf that slipped past the zero-on-zero
// guards. This is a bug in the inputs or the engine, not a user error.
type NumericalError struct {
	Series string
	Index  int
}

func (e *NumericalError) Error() string {
	return fmt.Sprintf("non-finite value in %s at period %d", e.Series, e.Index)
}
