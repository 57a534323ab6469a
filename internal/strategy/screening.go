package strategy

import (
	"math"

	"StockLens/internal/currency"
	"StockLens/internal/model"
)

// Screen rates the snapshot on the fixed factor grid with the default policy.
func Screen(s model.FundamentalsSnapshot, c model.Currency) model.ScreeningResult {
	return DefaultPolicy().Screen(s, c)
}

// Screen rates every factor of the grid. Undefined ratios, such as PSR with
// zero revenue or cash ratios with zero market cap, rate poor.
func (p Policy) Screen(s model.FundamentalsSnapshot, c model.Currency) model.ScreeningResult {
	sp := p.Screening
	return model.ScreeningResult{
		model.FactorMarketCap:   sp.rateMarketCap(s.MarketCap, c),
		model.FactorROE:         sp.ROE.Match(s.ReturnOnEquity * 100).Rating,
		model.FactorPSR:         ratePositive(sp.PSR, ratio(s.MarketCap, s.Revenue)),
		model.FactorCashRich:    sp.CashRich.Match(percentOf(s.TotalCash, s.MarketCap)).Rating,
		model.FactorPositiveCF:  sp.PositiveCF.Match(percentOf(s.OperatingCashflow, s.MarketCap)).Rating,
		model.FactorPER:         ratePositive(sp.PER, s.PER),
		model.FactorPBR:         ratePositive(sp.PBR, s.PBR),
		model.FactorROA:         sp.ROA.Match(s.ROA * 100).Rating,
		model.FactorEquityRatio: sp.EquityRatio.Match(s.EquityRatio).Rating,
		model.FactorEPS:         sp.epsLadder(c).Match(s.EPS).Rating,
	}
}

func (sp ScreeningPolicy) rateMarketCap(raw float64, c model.Currency) model.Rating {
	bands, ok := sp.MarketCap[c]
	if !ok {
		bands = sp.MarketCap[model.USD]
	}
	v := currency.ScaleMarketCap(raw, c)
	switch {
	case v <= 0 || math.IsNaN(v) || math.IsInf(v, 0):
		return model.RatingPoor
	case bands.Excellent.contains(v):
		return model.RatingExcellent
	case bands.Good.contains(v):
		return model.RatingGood
	case v >= bands.FairMin:
		return model.RatingFair
	default:
		return model.RatingPoor
	}
}

func (sp ScreeningPolicy) epsLadder(c model.Currency) Ladder {
	if l, ok := sp.EPS[c]; ok {
		return l
	}
	return sp.EPS[model.USD]
}

// ratePositive rates ratios that are only meaningful above zero.
func ratePositive(l Ladder, v float64) model.Rating {
	if !(v > 0) {
		return model.RatingPoor
	}
	return l.Match(v).Rating
}

// ratio returns NaN when the denominator cannot carry a meaningful ratio.
func ratio(num, den float64) float64 {
	if den <= 0 {
		return math.NaN()
	}
	return num / den
}

func percentOf(part, whole float64) float64 {
	return ratio(part, whole) * 100
}
