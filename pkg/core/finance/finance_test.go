package finance

import (
	"math"
	"testing"

	"renewable_finance/pkg/core/assumption"
	"renewable_finance/pkg/core/timeline"
)

// usesOf wraps a raw cost vector into a Uses ledger.
func usesOf(total []float64) *Uses {
	u := &Uses{
		Construction: append([]float64(nil), total...),
		Total:        append([]float64(nil), total...),
		TotalCumul:   make([]float64, len(total)),
	}
	var cum float64
	for k, v := range total {
		cum += v
		u.TotalCumul[k] = cum
	}
	return u
}

func TestEquityFirstCrossover(t *testing.T) {
	// Costs 100/100/100/100, debt 250 => equity 150. Equity funds periods 1-2
	// in full, splits period 3 (50 equity / 50 debt), debt funds period 4.
	a := &assumption.Assumptions{
		Equity: assumption.EquityParams{InjectionMode: assumption.InjectionEquityFirst, Subgearing: 90},
	}
	tl := &timeline.Timeline{N: 4}
	uses := usesOf([]float64{100, 100, 100, 100})

	p := BuildPlan(a, tl, uses, 250)

	if p.EquityRequired != 150 {
		t.Fatalf("equity required %f, want 150", p.EquityRequired)
	}
	wantEquity := []float64{100, 50, 0, 0}
	wantDebt := []float64{0, 50, 100, 100}
	for k := 0; k < 4; k++ {
		if math.Abs(p.DrawdownsEquity[k]-wantEquity[k]) > 1e-9 {
			t.Errorf("period %d: equity %f, want %f", k, p.DrawdownsEquity[k], wantEquity[k])
		}
		if math.Abs(p.DrawdownsDebt[k]-wantDebt[k]) > 1e-9 {
			t.Errorf("period %d: debt %f, want %f", k, p.DrawdownsDebt[k], wantDebt[k])
		}
		// Subgearing 90: SHL takes 90% of each equity euro.
		if math.Abs(p.DrawdownsSHL[k]-0.9*p.DrawdownsEquity[k]) > 1e-9 {
			t.Errorf("period %d: SHL split broken", k)
		}
		if math.Abs(p.Total[k]-uses.Total[k]) > 1e-9 {
			t.Errorf("period %d: sources %f != uses %f", k, p.Total[k], uses.Total[k])
		}
	}
}

func TestProRataTracksGearing(t *testing.T) {
	// Debt 300 over cost 400 => 75% gearing in every period.
	a := &assumption.Assumptions{
		Equity: assumption.EquityParams{InjectionMode: assumption.InjectionProRata},
	}
	tl := &timeline.Timeline{N: 4}
	uses := usesOf([]float64{100, 50, 150, 100})

	p := BuildPlan(a, tl, uses, 300)

	if math.Abs(p.EffectiveGearing-0.75) > 1e-12 {
		t.Fatalf("effective gearing %f, want 0.75", p.EffectiveGearing)
	}
	for k := 0; k < 4; k++ {
		if math.Abs(p.DrawdownsDebt[k]-0.75*uses.Total[k]) > 1e-9 {
			t.Errorf("period %d: debt %f, want %f", k, p.DrawdownsDebt[k], 0.75*uses.Total[k])
		}
	}
}

func TestDebtScheduleInterestAndFees(t *testing.T) {
	// One construction period of 180 days followed by one operations period of
	// 180 days. Draw 1000 upfront, repay everything at the end.
	a := &assumption.Assumptions{
		Debt: assumption.DebtParams{Margin: 4, UpfrontFee: 2, CommitmentFee: 1},
	}
	tl := &timeline.Timeline{
		N: 2,
		Flags: timeline.Flags{
			Construction:      []float64{1, 0},
			ConstructionStart: []float64{1, 0},
		},
		Days: timeline.Days{
			Model:            []float64{180, 180},
			DebtConstruction: []float64{180, 0},
			DebtOperations:   []float64{0, 180},
		},
	}

	d := BuildDebtSchedule(a, tl, 1000, []float64{1000, 0}, []float64{0, 1000})

	// Upfront: 1000 x 2% = 20 at financial close.
	if d.UpfrontFee[0] != 20 {
		t.Errorf("upfront fee %f, want 20", d.UpfrontFee[0])
	}
	// BOP is zero in period 1, so no construction interest and full commitment
	// fee: 1000 x 1% x 180/360 = 5.
	if d.InterestConstruction[0] != 0 {
		t.Errorf("construction interest %f, want 0", d.InterestConstruction[0])
	}
	if math.Abs(d.CommitmentFee[0]-5) > 1e-9 {
		t.Errorf("commitment fee %f, want 5", d.CommitmentFee[0])
	}
	// Period 2: 1000 x 4% x 180/360 = 20 of operations interest.
	if math.Abs(d.InterestOperations[1]-20) > 1e-9 {
		t.Errorf("operations interest %f, want 20", d.InterestOperations[1])
	}
	if d.BalanceEOP[1] != 0 {
		t.Errorf("final balance %f, want 0", d.BalanceEOP[1])
	}
	// Effective debt service = repayment + operations interest = 1020.
	if math.Abs(d.EffectiveDebtService[1]-1020) > 1e-9 {
		t.Errorf("debt service %f, want 1020", d.EffectiveDebtService[1])
	}
}

func TestDSRATargetLooksForward(t *testing.T) {
	// Semi-annual periods, 6-month DSRA => lookahead of exactly one period.
	a := &assumption.Assumptions{
		PeriodicityMonths: 6,
		Debt:              assumption.DebtParams{DSRAMonths: 6},
	}
	tl := &timeline.Timeline{
		N: 4,
		Flags: timeline.Flags{
			ConstructionEnd: []float64{1, 0, 0, 0},
			DebtAmo:         []float64{0, 1, 1, 1},
		},
	}
	effectiveDS := []float64{0, 100, 110, 120}
	cfads := []float64{0, 150, 150, 150}

	d := BuildDSRA(a, tl, effectiveDS, cfads)

	// Target in each amo period is the next period's debt service.
	if d.Target[1] != 110 || d.Target[2] != 120 || d.Target[3] != 0 {
		t.Errorf("targets %v, want [_, 110, 120, 0]", d.Target)
	}
	// Initial funding is the first positive target, placed at construction end:
	// target_1 = 110 pre-funded in period 0.
	if d.InitialFunding[0] != 110 {
		t.Errorf("initial funding %f, want 110", d.InitialFunding[0])
	}
	// Period 2 tops up to 120; period 3's target is zero so the full reserve
	// releases.
	if math.Abs(d.BalanceEOP[1]-110) > 1e-9 {
		t.Errorf("period 1 balance %f, want 110", d.BalanceEOP[1])
	}
	if math.Abs(d.BalanceEOP[2]-120) > 1e-9 {
		t.Errorf("period 2 balance %f, want 120", d.BalanceEOP[2])
	}
	if d.BalanceEOP[3] != 0 {
		t.Errorf("final balance %f, want 0", d.BalanceEOP[3])
	}
	// Movements net out once the reserve unwinds.
	var sum float64
	for _, m := range d.Movement {
		sum += m
	}
	if math.Abs(sum) > 1e-9 {
		t.Errorf("movement sum %f, want 0", sum)
	}
}

func TestDSRAReleasesOnShortfall(t *testing.T) {
	a := &assumption.Assumptions{
		PeriodicityMonths: 6,
		Debt:              assumption.DebtParams{DSRAMonths: 6},
	}
	tl := &timeline.Timeline{
		N: 3,
		Flags: timeline.Flags{
			ConstructionEnd: []float64{1, 0, 0},
			DebtAmo:         []float64{0, 1, 1},
		},
	}
	effectiveDS := []float64{0, 100, 100}
	// Period 1 is 40 short of its debt service.
	cfads := []float64{0, 60, 150}

	d := BuildDSRA(a, tl, effectiveDS, cfads)

	if d.Releases[1] < 40-1e-9 {
		t.Errorf("release %f, want at least 40", d.Releases[1])
	}
	if d.BalanceEOP[1] >= d.BalanceBOP[1] {
		t.Errorf("reserve did not drop: %f -> %f", d.BalanceBOP[1], d.BalanceEOP[1])
	}
	if d.BalanceEOP[1] < 0 {
		t.Errorf("negative reserve %f", d.BalanceEOP[1])
	}
}

func TestOptimizedDevFee(t *testing.T) {
	a := &assumption.Assumptions{
		Debt:   assumption.DebtParams{MaxGearing: 90},
		DevFee: assumption.DevFeeParams{Mode: assumption.DevFeeOptimize},
	}

	// Capacity 900 grossed up by 90% gearing supports 1000 of uses; with 800
	// of other uses the fee absorbs the remaining 200.
	fee := OptimizedDevFee(a, 900, 800)
	if math.Abs(fee-200) > 1e-9 {
		t.Errorf("fee %f, want 200", fee)
	}

	// Never negative.
	if fee := OptimizedDevFee(a, 900, 1200); fee != 0 {
		t.Errorf("fee %f, want 0", fee)
	}

	// ZERO mode forces it off.
	a.DevFee.Mode = assumption.DevFeeZero
	if fee := OptimizedDevFee(a, 900, 800); fee != 0 {
		t.Errorf("fee %f in ZERO mode", fee)
	}
}
