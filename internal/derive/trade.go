package derive

import (
	"math"

	"dyadpanel/internal/dyad"
	"dyadpanel/pkg/contracts/domain"
)

// TradeTotal sums the two directed flows. Missing and negative flows count as
// zero: negative values are source artifacts, not trade.
func TradeTotal(flowAtoB, flowBtoA domain.Float) float64 {
	return nonNegative(flowAtoB) + nonNegative(flowBtoA)
}

func nonNegative(f domain.Float) float64 {
	if v, ok := f.Get(); ok && v > 0 {
		return v
	}
	return 0
}

// Dependence is trade as a percentage of a state's GDP. It is undefined
// when the total or GDP is undefined, or GDP is not positive.
func Dependence(total domain.Float, gdp domain.Float) domain.Float {
	t, ok := total.Get()
	if !ok {
		return domain.None()
	}
	g, ok := gdp.Get()
	if !ok || g <= 0 {
		return domain.None()
	}
	return domain.Some(100 * t / g)
}

// TradeMeasures derives the dependence, asymmetry and vulnerability measures
// from a dyad-year's trade total and both states' GDP.
func TradeMeasures(total domain.Float, gdp1, gdp2 domain.Float) domain.TradeVariables {
	tv := domain.TradeVariables{
		Total:       total,
		Dependence1: Dependence(total, gdp1),
		Dependence2: Dependence(total, gdp2),
	}

	d1, ok1 := tv.Dependence1.Get()
	d2, ok2 := tv.Dependence2.Get()
	switch {
	case ok1 && ok2:
		tv.Lower = domain.Some(math.Min(d1, d2))
		tv.Higher = domain.Some(math.Max(d1, d2))
		tv.Asymmetry = domain.Some(math.Abs(d1 - d2))
	case ok1:
		tv.Lower, tv.Higher = tv.Dependence1, tv.Dependence1
	case ok2:
		tv.Lower, tv.Higher = tv.Dependence2, tv.Dependence2
	}

	tv.Vulnerability = VulnerabilityRatio(tv.Lower, tv.Higher)
	return tv
}

// VulnerabilityRatio is higher/lower dependence, defined only when the lower
// dependence is positive.
func VulnerabilityRatio(lower, higher domain.Float) domain.Float {
	lo, ok := lower.Get()
	if !ok || lo <= 0 {
		return domain.None()
	}
	hi, ok := higher.Get()
	if !ok {
		return domain.None()
	}
	return domain.Some(hi / lo)
}

// TradeIndex looks up bilateral trade totals by undirected dyad-year.
type TradeIndex struct {
	totals     map[dyad.YearPair]float64
	duplicates int
}

// NewTradeIndex indexes trade flows. The first record of an undirected
// dyad-year wins; later ones are counted as duplicates.
func NewTradeIndex(flows []domain.TradeFlow) *TradeIndex {
	idx := &TradeIndex{totals: make(map[dyad.YearPair]float64, len(flows))}
	for _, f := range flows {
		key := dyad.NewYearPair(f.StateA, f.StateB, f.Year)
		if _, ok := idx.totals[key]; ok {
			idx.duplicates++
			continue
		}
		idx.totals[key] = TradeTotal(f.FlowAtoB, f.FlowBtoA)
	}
	return idx
}

// Total returns the trade total of the dyad-year, undefined when no record exists.
func (t *TradeIndex) Total(a, b, year int) domain.Float {
	if t == nil {
		return domain.None()
	}
	v, ok := t.totals[dyad.NewYearPair(a, b, year)]
	if !ok {
		return domain.None()
	}
	return domain.Some(v)
}

// Duplicates is the number of trade records ignored as repeats.
func (t *TradeIndex) Duplicates() int {
	if t == nil {
		return 0
	}
	return t.duplicates
}
