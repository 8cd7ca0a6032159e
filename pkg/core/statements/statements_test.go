package statements

import (
	"math"
	"testing"

	"renewable_finance/pkg/core/assumption"
	"renewable_finance/pkg/core/timeline"
)

// One construction period and two operating half-years.
func fixture() (*assumption.Assumptions, *timeline.Timeline) {
	a := &assumption.Assumptions{
		OperatingLife: 20,
		Taxes:         assumption.TaxParams{CorporateIncomeTaxRate: 25},
	}
	tl := &timeline.Timeline{
		N: 3,
		Flags: timeline.Flags{
			DebtAmo: []float64{0, 1, 1},
		},
		Series: timeline.Series{
			YearsDuringOperations: []float64{0, 0.5, 0.5},
			PctInOperations:       []float64{0, 1, 1},
		},
	}
	return a, tl
}

func TestIncomeDepreciationAndTaxFloor(t *testing.T) {
	a, tl := fixture()

	// Base 4000 over 20 years = 200/yr, so 100 per operating half-year.
	is := BuildIncome(a, tl,
		[]float64{0, 300, 50}, // EBITDA
		4000,
		[]float64{0, 120, 120}, // senior operations interest
		[]float64{0, 10, 10},   // SHL operations interest
	)

	if is.Depreciation[0] != 0 {
		t.Errorf("construction depreciation %f, want 0", is.Depreciation[0])
	}
	if math.Abs(is.Depreciation[1]+100) > 1e-9 {
		t.Errorf("depreciation %f, want -100", is.Depreciation[1])
	}
	// Period 1: EBT = 300 - 100 - 120 - 10 = 70, tax = 17.5, NI = 52.5.
	if math.Abs(is.EBT[1]-70) > 1e-9 {
		t.Errorf("EBT %f, want 70", is.EBT[1])
	}
	if math.Abs(is.Tax[1]-17.5) > 1e-9 {
		t.Errorf("tax %f, want 17.5", is.Tax[1])
	}
	// Period 2: EBT = 50 - 100 - 120 - 10 = -180, taxed at zero, not negative.
	if is.Tax[2] != 0 {
		t.Errorf("tax on a loss %f, want 0", is.Tax[2])
	}
	if math.Abs(is.NetIncome[2]+180) > 1e-9 {
		t.Errorf("net income %f, want -180", is.NetIncome[2])
	}
}

func TestCashFlowComposition(t *testing.T) {
	_, tl := fixture()

	cf := BuildCashFlow(tl, CashFlowInputs{
		EBITDA:             []float64{0, 300, 300},
		WorkingCapMovement: []float64{0, -20, 5},
		Tax:                []float64{0, 17.5, 0},
		Construction:       []float64{1000, 0, 0},
		DrawdownsDebt:      []float64{800, 0, 0},
		DrawdownsEquity:    []float64{260, 0, 0},
		UpfrontFee:         []float64{16, 0, 0},
		InterestConstr:     []float64{24, 0, 0},
		CommitmentFee:      []float64{4, 0, 0},
		DevelopmentFee:     make([]float64, 3),
		LocalTaxes:         make([]float64, 3),
	})

	// Construction period: CFADS = -1000 + (800 + 260 - 16 - 24 - 4) = 16.
	if math.Abs(cf.CFADS[0]-16) > 1e-9 {
		t.Errorf("construction CFADS %f, want 16", cf.CFADS[0])
	}
	// CFADS_amo masks non-amortization periods.
	if cf.CFADSAmo[0] != 0 {
		t.Errorf("CFADS_amo %f outside amortization", cf.CFADSAmo[0])
	}
	// Operating period: 300 - 20 - 17.5 = 262.5.
	if math.Abs(cf.CFADS[1]-262.5) > 1e-9 {
		t.Errorf("operating CFADS %f, want 262.5", cf.CFADS[1])
	}
	if cf.CFADSAmo[1] != cf.CFADS[1] {
		t.Errorf("CFADS_amo %f, want %f", cf.CFADSAmo[1], cf.CFADS[1])
	}
}

func TestBalanceSheetIdentity(t *testing.T) {
	_, tl := fixture()

	// A hand-balanced position: 1000 of PPE funded 800 debt / 200 share
	// capital in period 0, then 100 of depreciation charged to retained
	// earnings each operating period.
	bs := BuildBalanceSheet(tl, BalanceSheetInputs{
		Construction:        []float64{1000, 0, 0},
		DevelopmentFee:      make([]float64, 3),
		LocalTaxes:          make([]float64, 3),
		SeniorIDCAndFees:    make([]float64, 3),
		SHLInterestConstr:   make([]float64, 3),
		Depreciation:        []float64{0, -100, -100},
		ReceivablesEOP:      make([]float64, 3),
		DSRAEOP:             make([]float64, 3),
		DistributionEOP:     make([]float64, 3),
		OperatingEOP:        make([]float64, 3),
		SHLEOP:              make([]float64, 3),
		ShareCapitalEOP:     []float64{200, 200, 200},
		RetainedEarningsEOP: []float64{0, -100, -200},
		SeniorDebtEOP:       []float64{800, 800, 800},
		PayablesEOP:         make([]float64, 3),
	})

	want := []float64{1000, 900, 800}
	for k := 0; k < 3; k++ {
		if math.Abs(bs.PPE[k]-want[k]) > 1e-9 {
			t.Errorf("period %d: PPE %f, want %f", k, bs.PPE[k], want[k])
		}
		if math.Abs(bs.TotalAssets[k]-bs.TotalLiabilities[k]) > 1e-9 {
			t.Errorf("period %d: %f vs %f", k, bs.TotalAssets[k], bs.TotalLiabilities[k])
		}
	}
	if math.Abs(bs.ImbalanceSum()) > 1e-9 {
		t.Errorf("imbalance %f", bs.ImbalanceSum())
	}
}
