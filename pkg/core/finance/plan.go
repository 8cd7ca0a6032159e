package finance

import (
	"renewable_finance/pkg/core/assumption"
	"renewable_finance/pkg/core/timeline"
)

// Plan is the financing plan: who funds each period of construction.
type Plan struct {
	EffectiveGearing float64 // senior debt / total uses, as a fraction
	EquityRequired   float64

	DrawdownsDebt         []float64
	DrawdownsEquity       []float64
	DrawdownsShareCapital []float64
	DrawdownsSHL          []float64
	Total                 []float64
}

// BuildPlan splits the period costs between senior debt and equity following
// the configured injection mode, then splits equity between share capital and
// shareholder loan by subgearing.
func BuildPlan(a *assumption.Assumptions, tl *timeline.Timeline, uses *Uses, debtAmount float64) *Plan {
	n := tl.N
	p := &Plan{
		DrawdownsDebt:         make([]float64, n),
		DrawdownsEquity:       make([]float64, n),
		DrawdownsShareCapital: make([]float64, n),
		DrawdownsSHL:          make([]float64, n),
		Total:                 make([]float64, n),
	}

	totalUses := uses.Sum()
	if totalUses > 0 {
		p.EffectiveGearing = debtAmount / totalUses
	}
	p.EquityRequired = totalUses - debtAmount

	switch a.Equity.InjectionMode {
	case assumption.InjectionProRata:
		p.drawProRata(uses, debtAmount)
	default:
		p.drawEquityFirst(uses)
	}

	subgearing := a.Equity.Subgearing / 100
	for k := 0; k < n; k++ {
		p.DrawdownsShareCapital[k] = p.DrawdownsEquity[k] * (1 - subgearing)
		p.DrawdownsSHL[k] = p.DrawdownsEquity[k] * subgearing
		p.Total[k] = p.DrawdownsDebt[k] + p.DrawdownsEquity[k]
	}

	return p
}

// drawEquityFirst spends the full equity commitment before the first euro of
// debt, splitting the crossover period.
func (p *Plan) drawEquityFirst(uses *Uses) {
	for k := range uses.Total {
		cost := uses.Total[k]
		cumAfter := uses.TotalCumul[k]
		cumBefore := cumAfter - cost

		switch {
		case cumBefore >= p.EquityRequired:
			p.DrawdownsDebt[k] = cost
		case cumAfter <= p.EquityRequired:
			p.DrawdownsEquity[k] = cost
		default:
			p.DrawdownsEquity[k] = p.EquityRequired - cumBefore
			p.DrawdownsDebt[k] = cost - p.DrawdownsEquity[k]
		}
	}
}

// drawProRata keeps cumulative debt at gearing times cumulative cost, capped
// at the facility size.
func (p *Plan) drawProRata(uses *Uses, debtAmount float64) {
	var prevCumDebt float64
	for k := range uses.Total {
		cumDebt := uses.TotalCumul[k] * p.EffectiveGearing
		if cumDebt > debtAmount {
			cumDebt = debtAmount
		}
		p.DrawdownsDebt[k] = cumDebt - prevCumDebt
		p.DrawdownsEquity[k] = uses.Total[k] - p.DrawdownsDebt[k]
		prevCumDebt = cumDebt
	}
}
