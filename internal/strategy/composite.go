package strategy

import (
	"fmt"
	"math"

	"StockLens/internal/currency"
	"StockLens/internal/model"
)

// Composite factor names, in evaluation order.
const (
	FactorRevenueCAGR   = "売上高CAGR"
	FactorAcceleration  = "直近成長率"
	FactorSweetSpot     = "時価総額"
	FactorPricePosition = "52週安値比"
	FactorProfitability = "ROE"
	FactorOCFMargin     = "営業CF率"
	FactorValuation     = "PER"
)

const noData = "データなし"

// GrowthInput is everything the composite score reads. Growth figures are
// percentages; nil means the figure is unavailable.
type GrowthInput struct {
	Snapshot        model.FundamentalsSnapshot
	Currency        model.Currency
	RevenueCAGR     *float64
	RecentGrowth    *float64
	CurrentPrice    float64
	FiftyTwoWeekLow float64
}

// Composite scores growth potential with the default policy.
func Composite(in GrowthInput) model.CompositeScore {
	return DefaultPolicy().Composite(in)
}

// Composite sums the sub-factor points. Missing inputs contribute zero.
// Rationale entries follow the evaluation order.
func (p Policy) Composite(in GrowthInput) model.CompositeScore {
	cp := p.Growth
	factors := []model.FactorScore{
		cp.scoreCAGR(in),
		cp.scoreAcceleration(in),
		cp.scoreSweetSpot(in),
		cp.scorePricePosition(in),
		cp.scoreROE(in),
		cp.scoreOCFMargin(in),
		cp.scorePER(in),
	}

	total := 0.0
	rationale := make([]string, 0, len(factors))
	for _, f := range factors {
		total += f.Points
		rationale = append(rationale, fmt.Sprintf("%s %s: %s", f.Rating.Symbol(), f.Name, f.Commentary))
	}

	return model.CompositeScore{
		Rating:       cp.Tiers.Match(total).Rating,
		NumericScore: int(math.Round(total)),
		Rationale:    rationale,
		Factors:      factors,
	}
}

func factor(name string, s Step, max float64, commentary string) model.FactorScore {
	return model.FactorScore{
		Name:       name,
		Rating:     s.Rating,
		Points:     s.Points,
		MaxPoints:  max,
		Commentary: commentary,
	}
}

func missing(name string, max float64) model.FactorScore {
	return model.FactorScore{Name: name, Rating: model.RatingPoor, MaxPoints: max, Commentary: noData}
}

// scoreCAGR: up to 30 points.
func (cp CompositePolicy) scoreCAGR(in GrowthInput) model.FactorScore {
	if in.RevenueCAGR == nil || !finite(*in.RevenueCAGR) {
		return missing(FactorRevenueCAGR, 30)
	}
	cagr := *in.RevenueCAGR
	return factor(FactorRevenueCAGR, cp.CAGR.Match(cagr), 30, fmt.Sprintf("%.1f%%", cagr))
}

// scoreAcceleration: ±10 points, recent growth against the CAGR trend.
func (cp CompositePolicy) scoreAcceleration(in GrowthInput) model.FactorScore {
	if in.RevenueCAGR == nil || in.RecentGrowth == nil || !finite(*in.RevenueCAGR) || !finite(*in.RecentGrowth) {
		return missing(FactorAcceleration, 10)
	}
	diff := *in.RecentGrowth - *in.RevenueCAGR
	return factor(FactorAcceleration, cp.Acceleration.Match(diff), 10,
		fmt.Sprintf("%.1f%% (CAGR比 %+.1fpt)", *in.RecentGrowth, diff))
}

// scoreSweetSpot: up to 20 points, peaking in the small/mid-cap band.
func (cp CompositePolicy) scoreSweetSpot(in GrowthInput) model.FactorScore {
	mcap := in.Snapshot.MarketCap
	if !(mcap > 0) {
		return missing(FactorSweetSpot, 20)
	}
	l, ok := cp.MarketCap[in.Currency]
	if !ok {
		l = cp.MarketCap[model.USD]
	}
	scaled := currency.ScaleMarketCap(mcap, in.Currency)
	return factor(FactorSweetSpot, l.Match(scaled), 20, currency.FormatMarketCap(mcap, in.Currency))
}

// scorePricePosition: up to 15 points, rewarding proximity to the 52-week low.
func (cp CompositePolicy) scorePricePosition(in GrowthInput) model.FactorScore {
	if !(in.CurrentPrice > 0) || !(in.FiftyTwoWeekLow > 0) {
		return missing(FactorPricePosition, 15)
	}
	multiple := in.CurrentPrice / in.FiftyTwoWeekLow
	return factor(FactorPricePosition, cp.PricePosition.Match(multiple), 15, fmt.Sprintf("%.1f倍", multiple))
}

// scoreROE: up to 10 points. Negative ROE scores zero, not below.
func (cp CompositePolicy) scoreROE(in GrowthInput) model.FactorScore {
	roe := in.Snapshot.ReturnOnEquity * 100
	s := cp.ROE.Match(roe)
	if s.Points < 0 {
		s.Points = 0
	}
	return factor(FactorProfitability, s, 10, fmt.Sprintf("%.1f%%", roe))
}

// scoreOCFMargin: up to 5 points.
func (cp CompositePolicy) scoreOCFMargin(in GrowthInput) model.FactorScore {
	margin := percentOf(in.Snapshot.OperatingCashflow, in.Snapshot.Revenue)
	if !finite(margin) {
		return missing(FactorOCFMargin, 5)
	}
	return factor(FactorOCFMargin, cp.OCFMargin.Match(margin), 5, fmt.Sprintf("%.1f%%", margin))
}

// scorePER: up to 10 points; extreme multiples subtract.
func (cp CompositePolicy) scorePER(in GrowthInput) model.FactorScore {
	per := in.Snapshot.PER
	if !(per > 0) || !finite(per) {
		return missing(FactorValuation, 10)
	}
	return factor(FactorValuation, cp.PER.Match(per), 10, fmt.Sprintf("%.1f倍", per))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
