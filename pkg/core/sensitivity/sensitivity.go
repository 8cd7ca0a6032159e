// Package sensitivity orchestrates a base run plus named perturbed runs that
// inherit the base case's financing. The base case is sized and sculpted
// once; every sensitivity case reuses its uses, debt amount and repayments
// copy-on-entry and only re-runs the operating and statement stages.
package sensitivity

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/phuslu/log"

	"renewable_finance/pkg/core/assumption"
	"renewable_finance/pkg/core/model"
)

// Case names one perturbation of the frozen base assumptions.
type Case struct {
	Name       string
	Production float64 // percent, e.g. -10
	Opex       float64 // percent
	Inflation  float64 // percentage points on every indexation rate

	// Percentile, when set, replaces the base production estimate (e.g. a P50
	// upside run against P90 financing).
	Percentile assumption.Percentile
}

// DefaultCases is the conventional downside screen run when the caller does
// not name its own cases.
func DefaultCases() []Case {
	return []Case{
		{Name: "production_minus_10", Production: -10},
		{Name: "opex_plus_10", Opex: 10},
		{Name: "inflation_plus_1", Inflation: 1},
		{Name: "inflation_minus_1", Inflation: -1},
		{Name: "p50_volumes", Percentile: assumption.PercentileP50},
	}
}

// CaseResult pairs a named case with its run.
type CaseResult struct {
	Case    Case
	Results *model.Results
}

// RunSet is the output of one orchestrated run.
type RunSet struct {
	RunID string
	Base  *model.Results
	Cases []CaseResult
}

// Run sizes the base case, then replays every named case against the locked
// base financing. The base assumptions are cloned per case and never mutated.
func Run(a *assumption.Assumptions, cases []Case, logger log.Logger) (*RunSet, error) {
	set := &RunSet{RunID: uuid.NewString()}

	logger.Info().
		Str("run_id", set.RunID).
		Str("assumptions", a.String()).
		Msg("sizing base case")

	base, err := model.Build(a)
	if err != nil {
		return nil, fmt.Errorf("base case: %w", err)
	}
	set.Base = base

	logger.Info().
		Str("run_id", set.RunID).
		Int("iterations", base.Iterations).
		Float64("senior_debt", base.Summary.SeniorDebtAmount).
		Str("constraint", base.Summary.DebtConstraint).
		Msg("base case converged")

	lock := base.Lock()
	for _, c := range cases {
		perturbed := a.Clone()
		perturbed.Sensitivity.Production += c.Production
		perturbed.Sensitivity.Opex += c.Opex
		perturbed.Sensitivity.Inflation += c.Inflation
		if c.Percentile != "" {
			perturbed.Production.Choice = c.Percentile
		}

		res, err := model.BuildLocked(perturbed, lock)
		if err != nil {
			return nil, fmt.Errorf("case %s: %w", c.Name, err)
		}
		set.Cases = append(set.Cases, CaseResult{Case: c, Results: res})

		logger.Info().
			Str("run_id", set.RunID).
			Str("case", c.Name).
			Float64("irr_equity", res.Summary.IRREquity).
			Float64("dscr_min", res.Summary.DSCRMin).
			Msg("sensitivity case done")
	}

	return set, nil
}
