package model

import "fmt"

// Rating is one of the four ordinal tiers. Higher is better.
type Rating int

const (
	RatingPoor Rating = iota
	RatingFair
	RatingGood
	RatingExcellent
)

// Symbol returns the conventional mark for the tier.
func (r Rating) Symbol() string {
	switch r {
	case RatingExcellent:
		return "◎"
	case RatingGood:
		return "〇"
	case RatingFair:
		return "△"
	default:
		return "×"
	}
}

func (r Rating) String() string {
	switch r {
	case RatingExcellent:
		return "excellent"
	case RatingGood:
		return "good"
	case RatingFair:
		return "fair"
	default:
		return "poor"
	}
}

// MarshalText renders the tier symbol so JSON maps read like the UI grid.
func (r Rating) MarshalText() ([]byte, error) {
	return []byte(r.Symbol()), nil
}

// UnmarshalText accepts either the tier symbol or its name.
func (r *Rating) UnmarshalText(b []byte) error {
	for _, c := range []Rating{RatingExcellent, RatingGood, RatingFair, RatingPoor} {
		if s := string(b); s == c.Symbol() || s == c.String() {
			*r = c
			return nil
		}
	}
	return fmt.Errorf("unknown rating %q", b)
}

// Screening factor keys. The set is fixed.
const (
	FactorMarketCap   = "marketCap"
	FactorROE         = "roe"
	FactorPSR         = "psr"
	FactorCashRich    = "cashRich"
	FactorPositiveCF  = "positiveCF"
	FactorPER         = "per"
	FactorPBR         = "pbr"
	FactorROA         = "roa"
	FactorEquityRatio = "equityRatio"
	FactorEPS         = "eps"
)

// ScreeningFactors lists the screening keys in display order.
var ScreeningFactors = []string{
	FactorMarketCap,
	FactorROE,
	FactorPSR,
	FactorCashRich,
	FactorPositiveCF,
	FactorPER,
	FactorPBR,
	FactorROA,
	FactorEquityRatio,
	FactorEPS,
}

// ScreeningResult maps each screening factor to its tier.
type ScreeningResult map[string]Rating

// FactorScore is one sub-factor of the composite score.
type FactorScore struct {
	Name       string  `json:"name"`
	Rating     Rating  `json:"rating"`
	Points     float64 `json:"points"`
	MaxPoints  float64 `json:"maxPoints"`
	Commentary string  `json:"commentary"`
}

// CompositeScore is the weighted growth-potential score.
type CompositeScore struct {
	Rating       Rating        `json:"rating"`
	NumericScore int           `json:"numericScore"`
	Rationale    []string      `json:"rationale"`
	Factors      []FactorScore `json:"factors"`
}

// LongTermSuitability is the short-circuit classifier over the screening grid.
type LongTermSuitability struct {
	Rating            Rating   `json:"rating"`
	ExcellentCount    int      `json:"excellentCount"`
	GoodOrBetterCount int      `json:"goodOrBetterCount"`
	HardFailFactors   []string `json:"hardFailFactors,omitempty"`
}

// Report is the per-symbol response assembled from the core.
type Report struct {
	Symbol              string              `json:"symbol"`
	Currency            Currency            `json:"currency"`
	LastPrice           float64             `json:"lastPrice"`
	MarketCapUSD        float64             `json:"marketCapUSD"`
	ExchangeRate        float64             `json:"exchangeRate"`
	Stats               *Stats              `json:"stats"`
	ScreeningResults    ScreeningResult     `json:"screeningResults"`
	CompositeScore      CompositeScore      `json:"compositeScore"`
	LongTermSuitability LongTermSuitability `json:"longTermSuitability"`
	Warnings            []string            `json:"warnings,omitempty"`
}
