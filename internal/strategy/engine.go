// Package strategy holds the screening grid, the composite growth score and
// the long-term suitability classifier. Everything here is a pure function of
// its inputs.
package strategy

import (
	"fmt"
	"strings"

	"StockLens/internal/calculator"
	"StockLens/internal/currency"
	"StockLens/internal/model"
)

// Input is the raw material for one report.
type Input struct {
	Symbol       string
	Currency     model.Currency
	Prices       []model.PricePoint
	Fundamentals model.FundamentalsSnapshot
	// AnnualRevenue is ordered oldest first.
	AnnualRevenue []float64
	ExchangeRate  float64
}

// Analyze builds the report with the default policy.
func Analyze(in Input) model.Report {
	return DefaultPolicy().Analyze(in)
}

// Analyze assembles stats, screening grid, composite score and long-term
// suitability for one symbol.
func (p Policy) Analyze(in Input) model.Report {
	snap := in.Fundamentals
	rep := model.Report{
		Symbol:       in.Symbol,
		Currency:     in.Currency,
		ExchangeRate: in.ExchangeRate,
		Stats:        calculator.Summarize(in.Prices),
		MarketCapUSD: currency.ToUSD(snap.MarketCap, in.Currency, in.ExchangeRate),
	}

	growth := GrowthInput{
		Snapshot:        snap,
		Currency:        in.Currency,
		FiftyTwoWeekLow: snap.FiftyTwoWeekLow,
	}
	if last, ok := calculator.LastPrice(in.Prices); ok {
		rep.LastPrice = last.Price
		growth.CurrentPrice = last.Price
	} else {
		rep.Warnings = append(rep.Warnings, "no price data")
	}
	if growth.FiftyTwoWeekLow <= 0 {
		if _, low, ok := calculator.Calculate52WeekRange(in.Prices); ok {
			growth.FiftyTwoWeekLow = low
		}
	}
	if cagr, ok := calculator.RevenueCAGR(in.AnnualRevenue); ok {
		growth.RevenueCAGR = &cagr
	}
	// A zero growth figure is indistinguishable from an omitted one.
	if snap.RevenueGrowth != 0 {
		recent := snap.RevenueGrowth * 100
		growth.RecentGrowth = &recent
	}

	rep.ScreeningResults = p.Screen(snap, in.Currency)
	rep.CompositeScore = p.Composite(growth)
	rep.LongTermSuitability = p.LongTerm(rep.ScreeningResults)

	if m := snap.MissingFields(); len(m) > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("incomplete fundamentals: %s", strings.Join(m, ", ")))
	}
	return rep
}
