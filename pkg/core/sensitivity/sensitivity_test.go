package sensitivity

import (
	"io"
	"testing"
	"time"

	"github.com/phuslu/log"

	"renewable_finance/pkg/core/assumption"
)

func fixture() *assumption.Assumptions {
	merchant := map[int]float64{}
	for y := 2022; y <= 2050; y++ {
		merchant[y] = 50
	}
	return &assumption.Assumptions{
		ConstructionStart: assumption.NewDate(2022, time.January, 1),
		ConstructionEnd:   assumption.NewDate(2022, time.December, 31),
		OperatingLife:     25,
		LiquidationMonths: 6,
		PeriodicityMonths: 6,
		TechnologyKind:    assumption.TechnologySolar,
		Solar: &assumption.SolarParams{
			PanelsCapacityKWP: 2500,
			AnnualDegradation: 0.4,
		},
		Production: assumption.ProductionParams{
			P90:    1700,
			P75:    1750,
			P50:    1800,
			Choice: assumption.PercentileP90,
			Seasonality: []float64{
				0.03, 0.05, 0.09, 0.11, 0.13, 0.13,
				0.13, 0.12, 0.10, 0.06, 0.03, 0.02,
			},
		},
		ConstructionCosts: []float64{200, 0, 500, 300, 0, 1000, 700, 600, 200, 300, 0, 500},
		Contract: assumption.ContractParams{
			Start:           assumption.NewDate(2023, time.January, 1),
			End:             assumption.NewDate(2042, time.December, 31),
			PriceEURMWh:     130,
			IndexationStart: assumption.NewDate(2023, time.January, 1),
			IndexationRate:  2,
		},
		Merchant: assumption.MerchantParams{
			Scenario:        assumption.MerchantLow,
			Prices:          map[assumption.MerchantScenario]map[int]float64{assumption.MerchantLow: merchant},
			IndexationStart: assumption.NewDate(2022, time.January, 1),
			IndexationRate:  2,
		},
		Opex: assumption.OpexParams{
			AnnualOpex:           50,
			OpexIndexationStart:  assumption.NewDate(2024, time.January, 1),
			OpexIndexationRate:   2,
			AnnualLease:          50,
			LeaseIndexationStart: assumption.NewDate(2024, time.January, 1),
			LeaseIndexationRate:  2,
		},
		Taxes: assumption.TaxParams{CorporateIncomeTaxRate: 30},
		Debt: assumption.DebtParams{
			TargetDSCR:    1.15,
			MaxGearing:    90,
			TenorYears:    20,
			Margin:        5,
			UpfrontFee:    1.5,
			CommitmentFee: 1,
			DSRAMonths:    6,
		},
		Equity: assumption.EquityParams{
			InjectionMode: assumption.InjectionEquityFirst,
			Subgearing:    90,
			SHLMargin:     3,
		},
		Valuation: assumption.ValuationParams{DiscountRate: 8},
		DevFee:    assumption.DevFeeParams{Mode: assumption.DevFeeZero},
	}
}

func TestRunKeepsBaseFrozen(t *testing.T) {
	a := fixture()
	logger := log.Logger{Level: log.ErrorLevel, Writer: &log.IOWriter{Writer: io.Discard}}

	set, err := Run(a, DefaultCases(), logger)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if set.RunID == "" {
		t.Error("missing run id")
	}
	if len(set.Cases) != len(DefaultCases()) {
		t.Fatalf("got %d cases, want %d", len(set.Cases), len(DefaultCases()))
	}

	// The input record stays at base values after all perturbed runs.
	if a.Sensitivity.Production != 0 || a.Sensitivity.Opex != 0 || a.Sensitivity.Inflation != 0 {
		t.Error("base assumptions were mutated")
	}

	// Every case inherits the base financing.
	for _, cr := range set.Cases {
		if cr.Results.Summary.SeniorDebtAmount != set.Base.Summary.SeniorDebtAmount {
			t.Errorf("case %s re-sized the debt", cr.Case.Name)
		}
		for k := range cr.Results.Debt.Repayments {
			if cr.Results.Debt.Repayments[k] != set.Base.Debt.Repayments[k] {
				t.Fatalf("case %s changed the repayment schedule", cr.Case.Name)
			}
		}
	}

	// Lower production must not help the equity case; the P50 volume upside
	// must not hurt it.
	for _, cr := range set.Cases {
		switch cr.Case.Name {
		case "production_minus_10":
			if cr.Results.Summary.IRREquity >= set.Base.Summary.IRREquity {
				t.Errorf("production downside raised the equity IRR: %f >= %f",
					cr.Results.Summary.IRREquity, set.Base.Summary.IRREquity)
			}
		case "p50_volumes":
			if cr.Results.Summary.IRREquity <= set.Base.Summary.IRREquity {
				t.Errorf("P50 upside lowered the equity IRR: %f <= %f",
					cr.Results.Summary.IRREquity, set.Base.Summary.IRREquity)
			}
		}
	}
	if a.Production.Choice != assumption.PercentileP90 {
		t.Error("base percentile choice was mutated")
	}
}
