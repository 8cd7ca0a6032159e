package main

import (
	"errors"
	"flag"
	"os"

	"github.com/joho/godotenv"
	"github.com/phuslu/log"

	"renewable_finance/pkg/core/assumption"
	"renewable_finance/pkg/core/model"
	"renewable_finance/pkg/core/sensitivity"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, assuming environment variables are set")
	}

	var (
		path      = flag.String("assumptions", os.Getenv("MODEL_ASSUMPTIONS"), "path to the assumptions file (yaml or hjson)")
		withSensi = flag.Bool("sensitivities", false, "run the default sensitivity screen after the base case")
		level     = flag.String("log-level", envOr("MODEL_LOG_LEVEL", "info"), "log level")
	)
	flag.Parse()

	logger := log.Logger{
		Level:  log.ParseLevel(*level),
		Writer: &log.ConsoleWriter{ColorOutput: false},
	}

	if *path == "" {
		logger.Fatal().Msg("no assumptions file: pass -assumptions or set MODEL_ASSUMPTIONS")
	}

	a, err := assumption.LoadFile(*path)
	if err != nil {
		var cfgErr *assumption.ConfigurationError
		if errors.As(err, &cfgErr) {
			logger.Fatal().Str("field", cfgErr.Field).Str("reason", cfgErr.Reason).Msg("invalid assumptions")
		}
		logger.Fatal().Err(err).Str("path", *path).Msg("cannot load assumptions")
	}

	if *withSensi {
		set, err := sensitivity.Run(a, sensitivity.DefaultCases(), logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("sensitivity run failed")
		}
		logSummary(logger, "base", &set.Base.Summary)
		for _, cr := range set.Cases {
			logSummary(logger, cr.Case.Name, &cr.Results.Summary)
		}
		return
	}

	res, err := model.Build(a)
	if err != nil {
		var convErr *model.ConvergenceError
		if errors.As(err, &convErr) {
			logger.Fatal().
				Str("loop", convErr.Loop).
				Float64("debt_residual", convErr.DebtResidual).
				Float64("repayment_residual", convErr.RepaymentResidual).
				Msg("model did not converge")
		}
		logger.Fatal().Err(err).Msg("model run failed")
	}
	logger.Info().Int("iterations", res.Iterations).Msg("converged")
	logSummary(logger, "base", &res.Summary)
}

func logSummary(logger log.Logger, name string, s *model.Summary) {
	e := logger.Info().
		Str("case", name).
		Float64("senior_debt", s.SeniorDebtAmount).
		Float64("effective_gearing", s.EffectiveGearing).
		Str("constraint", s.DebtConstraint).
		Float64("avg_debt_life", s.AverageDebtLife).
		Float64("dscr_avg", s.DSCRAvg).
		Float64("dscr_min", s.DSCRMin).
		Float64("llcr_min", s.LLCRMin).
		Float64("irr_equity_pct", s.IRREquity).
		Float64("irr_project_post_tax_pct", s.IRRProjectPostTax).
		Float64("valuation", s.Valuation).
		Bool("check_financing_plan", s.CheckFinancingPlan).
		Bool("check_balance_sheet", s.CheckBalanceSheet).
		Bool("check_debt_maturity", s.CheckDebtMaturity)
	if s.PaybackDefined {
		e = e.Str("payback_date", s.PaybackDate.Format("2006-01-02")).
			Float64("payback_years", s.PaybackYears)
	}
	e.Msg("results")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
