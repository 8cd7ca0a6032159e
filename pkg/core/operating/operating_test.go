package operating

import (
	"math"
	"testing"
	"time"

	"renewable_finance/pkg/core/assumption"
	"renewable_finance/pkg/core/energy"
	"renewable_finance/pkg/core/timeline"
)

func fixture() *assumption.Assumptions {
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
			Choice: assumption.PercentileP90,
			Seasonality: []float64{
				0.03, 0.05, 0.09, 0.11, 0.13, 0.13,
				0.13, 0.12, 0.10, 0.06, 0.03, 0.02,
			},
		},
		Contract: assumption.ContractParams{
			Start:           assumption.NewDate(2023, time.January, 1),
			End:             assumption.NewDate(2042, time.December, 31),
			PriceEURMWh:     130,
			IndexationStart: assumption.NewDate(2023, time.January, 1),
			IndexationRate:  2,
		},
		Merchant: assumption.MerchantParams{
			Scenario:        assumption.MerchantLow,
			Prices:          map[assumption.MerchantScenario]map[int]float64{assumption.MerchantLow: {}},
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
		Debt: assumption.DebtParams{TenorYears: 20},
	}
}

func build(a *assumption.Assumptions) (*timeline.Timeline, *Revenues) {
	tl := timeline.Build(a)
	prod := energy.BuildProduction(a, tl)
	prices := energy.BuildPrices(a, tl)
	return tl, BuildRevenues(a, tl, prod, prices)
}

func TestRevenuesDuringConstructionAreZero(t *testing.T) {
	a := fixture()
	tl, rev := build(a)

	for k := 0; k < tl.ConstructionPeriods; k++ {
		if rev.Total[k] != 0 {
			t.Fatalf("period %d: revenue %f during construction", k, rev.Total[k])
		}
		// Zero revenue keeps the margin at zero instead of dividing by zero.
		if rev.EBITDAMargin[k] != 0 {
			t.Fatalf("period %d: margin %f on zero revenue", k, rev.EBITDAMargin[k])
		}
	}
}

func TestOpexCoversHalfYearPerPeriod(t *testing.T) {
	a := fixture()
	tl, rev := build(a)

	// First full operating period (H1 2023) predates the opex indexation base:
	// 50 kEUR/yr x (181/365)y, factor 1. Same for the lease.
	k := tl.ConstructionPeriods
	wantOpex := 50.0 * 181 / 365
	if math.Abs(rev.OperatingCosts[k]-wantOpex) > 1e-9 {
		t.Errorf("H1 2023 opex %f, want %f", rev.OperatingCosts[k], wantOpex)
	}
	if math.Abs(rev.LeaseCosts[k]-wantOpex) > 1e-9 {
		t.Errorf("H1 2023 lease %f, want %f", rev.LeaseCosts[k], wantOpex)
	}
}

func TestOpexSensitivityLeavesLeaseAlone(t *testing.T) {
	a := fixture()
	_, base := build(a)

	up := a.Clone()
	up.Sensitivity.Opex = 10
	_, scaled := build(up)

	for k := range base.OperatingCosts {
		want := base.OperatingCosts[k] * 1.1
		if math.Abs(scaled.OperatingCosts[k]-want) > 1e-9 {
			t.Fatalf("period %d: opex %f, want %f", k, scaled.OperatingCosts[k], want)
		}
		if scaled.LeaseCosts[k] != base.LeaseCosts[k] {
			t.Fatalf("period %d: lease moved under opex sensitivity", k)
		}
	}
}

func TestWorkingCapitalDeferral(t *testing.T) {
	a := fixture()
	a.Opex.PaymentDelayRevenues = 60
	a.Opex.PaymentDelayCosts = 30
	tl := timeline.Build(a)
	prod := energy.BuildProduction(a, tl)
	prices := energy.BuildPrices(a, tl)
	rev := BuildRevenues(a, tl, prod, prices)
	wc := BuildWorkingCapital(a, tl, rev)

	for k := range tl.Periods {
		days := tl.Days.Model[k]
		// 60 of ~181 days deferred into receivables.
		wantAR := rev.Total[k] * 60 / days
		if math.Abs(wc.ReceivablesEOP[k]-wantAR) > 1e-9 {
			t.Fatalf("period %d: receivables %f, want %f", k, wc.ReceivablesEOP[k], wantAR)
		}
		// Paid + deferred recompose the accrued amounts.
		if math.Abs(wc.RevenuesPaid[k]+wc.ReceivablesEOP[k]-rev.Total[k]) > 1e-9 {
			t.Fatalf("period %d: revenue split broken", k)
		}
		if math.Abs(wc.CostsPaid[k]+wc.PayablesEOP[k]-rev.TotalCosts[k]) > 1e-9 {
			t.Fatalf("period %d: cost split broken", k)
		}
	}
}

func TestWorkingCapitalDelayClipping(t *testing.T) {
	a := fixture()
	// A delay longer than any period defers everything, never more.
	a.Opex.PaymentDelayRevenues = 400
	tl := timeline.Build(a)
	prod := energy.BuildProduction(a, tl)
	prices := energy.BuildPrices(a, tl)
	rev := BuildRevenues(a, tl, prod, prices)
	wc := BuildWorkingCapital(a, tl, rev)

	for k := range tl.Periods {
		if wc.RevenuesPaid[k] != 0 && rev.Total[k] > 0 {
			t.Fatalf("period %d: paid %f with a delay beyond the period",
				k, wc.RevenuesPaid[k])
		}
		if wc.ReceivablesEOP[k] < 0 {
			t.Fatalf("period %d: negative receivables %f", k, wc.ReceivablesEOP[k])
		}
	}
}

func TestWorkingCapitalMovementTelescopes(t *testing.T) {
	a := fixture()
	a.Opex.PaymentDelayRevenues = 45
	a.Opex.PaymentDelayCosts = 45
	tl := timeline.Build(a)
	prod := energy.BuildProduction(a, tl)
	prices := energy.BuildPrices(a, tl)
	rev := BuildRevenues(a, tl, prod, prices)
	wc := BuildWorkingCapital(a, tl, rev)

	// Summed movements collapse to the final net position.
	var sum float64
	for k := range wc.Movement {
		sum += wc.Movement[k]
	}
	n := tl.N
	want := wc.PayablesEOP[n-1] - wc.ReceivablesEOP[n-1]
	if math.Abs(sum-want) > 1e-9 {
		t.Errorf("movement sum %f, want %f", sum, want)
	}
}
