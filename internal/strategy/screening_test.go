package strategy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockLens/internal/model"
)

func sampleSnapshot() model.FundamentalsSnapshot {
	return model.FundamentalsSnapshot{
		Symbol:            "SAMPLE",
		ReturnOnEquity:    0.20,
		MarketCap:         30e9,
		Revenue:           20e9,
		TotalCash:         15e9,
		OperatingCashflow: 2e9,
		PER:               18,
		PBR:               4,
		ROA:               0.09,
		EquityRatio:       55,
		EPS:               2.1,
	}
}

func TestScreen_USDScenario(t *testing.T) {
	got := Screen(sampleSnapshot(), model.USD)

	want := map[string]string{
		model.FactorMarketCap:   "〇",
		model.FactorROE:         "◎",
		model.FactorPSR:         "〇",
		model.FactorCashRich:    "◎",
		model.FactorPositiveCF:  "◎",
		model.FactorPER:         "〇",
		model.FactorPBR:         "×",
		model.FactorROA:         "◎",
		model.FactorEquityRatio: "〇",
		model.FactorEPS:         "◎",
	}
	for factor, sym := range want {
		assert.Equal(t, sym, got[factor].Symbol(), factor)
	}
}

func TestScreen_Totality(t *testing.T) {
	snapshots := []model.FundamentalsSnapshot{
		{},
		sampleSnapshot(),
		{MarketCap: -1, Revenue: -5, PER: -3, PBR: -1, EPS: -2, EquityRatio: -10},
		{MarketCap: math.NaN(), Revenue: math.Inf(1), TotalCash: math.Inf(-1), PER: math.NaN()},
		{MarketCap: 1e15, Revenue: 1, TotalCash: 1e15, OperatingCashflow: -1e15},
	}
	for _, s := range snapshots {
		for _, c := range []model.Currency{model.USD, model.JPY, model.Currency("EUR")} {
			got := Screen(s, c)
			require.Len(t, got, len(model.ScreeningFactors))
			for _, f := range model.ScreeningFactors {
				r, ok := got[f]
				require.True(t, ok, "missing factor %s", f)
				assert.GreaterOrEqual(t, r, model.RatingPoor)
				assert.LessOrEqual(t, r, model.RatingExcellent)
			}
		}
	}
}

func TestScreen_UndefinedRatiosArePoor(t *testing.T) {
	s := sampleSnapshot()
	s.Revenue = 0
	s.MarketCap = 0
	s.PER = -12
	s.PBR = 0
	got := Screen(s, model.USD)
	assert.Equal(t, model.RatingPoor, got[model.FactorPSR])
	assert.Equal(t, model.RatingPoor, got[model.FactorCashRich])
	assert.Equal(t, model.RatingPoor, got[model.FactorPositiveCF])
	assert.Equal(t, model.RatingPoor, got[model.FactorPER])
	assert.Equal(t, model.RatingPoor, got[model.FactorPBR])
	assert.Equal(t, model.RatingPoor, got[model.FactorMarketCap])
}

func TestScreen_MarketCapBands(t *testing.T) {
	tests := []struct {
		raw  float64
		c    model.Currency
		want model.Rating
	}{
		{100e9, model.USD, model.RatingExcellent},
		{50e9, model.USD, model.RatingExcellent},
		{500e9, model.USD, model.RatingExcellent},
		{800e9, model.USD, model.RatingGood},
		{10e9, model.USD, model.RatingGood},
		{3000e9, model.USD, model.RatingFair},
		{5e9, model.USD, model.RatingFair},
		{1e9, model.USD, model.RatingPoor},
		{10e12, model.JPY, model.RatingExcellent}, // 100,000 oku
		{2e12, model.JPY, model.RatingGood},       // 20,000 oku
		{300e9, model.JPY, model.RatingFair},      // 3,000 oku
		{50e9, model.JPY, model.RatingPoor},       // 500 oku
	}
	for _, tt := range tests {
		got := Screen(model.FundamentalsSnapshot{MarketCap: tt.raw}, tt.c)
		assert.Equal(t, tt.want, got[model.FactorMarketCap], "%g %s", tt.raw, tt.c)
	}
}

func TestScreen_EPSBandsByCurrency(t *testing.T) {
	tests := []struct {
		eps  float64
		c    model.Currency
		want model.Rating
	}{
		{1, model.USD, model.RatingExcellent},
		{0.5, model.USD, model.RatingGood},
		{0.1, model.USD, model.RatingFair},
		{0.09, model.USD, model.RatingPoor},
		{2.1, model.JPY, model.RatingPoor},
		{100, model.JPY, model.RatingExcellent},
		{50, model.JPY, model.RatingGood},
		{10, model.JPY, model.RatingFair},
	}
	for _, tt := range tests {
		got := Screen(model.FundamentalsSnapshot{EPS: tt.eps}, tt.c)
		assert.Equal(t, tt.want, got[model.FactorEPS], "%g %s", tt.eps, tt.c)
	}
}

func TestScreen_Boundaries(t *testing.T) {
	base := model.FundamentalsSnapshot{MarketCap: 100, Revenue: 100}

	s := base
	s.PER = 15
	assert.Equal(t, model.RatingExcellent, Screen(s, model.USD)[model.FactorPER])
	s.PER = 30
	assert.Equal(t, model.RatingFair, Screen(s, model.USD)[model.FactorPER])
	s.PER = 30.1
	assert.Equal(t, model.RatingPoor, Screen(s, model.USD)[model.FactorPER])

	s = base
	s.PBR = 1
	assert.Equal(t, model.RatingGood, Screen(s, model.USD)[model.FactorPBR])
	s.PBR = 0.99
	assert.Equal(t, model.RatingExcellent, Screen(s, model.USD)[model.FactorPBR])

	s = base
	s.OperatingCashflow = 0
	assert.Equal(t, model.RatingGood, Screen(s, model.USD)[model.FactorPositiveCF])
	s.OperatingCashflow = -20
	assert.Equal(t, model.RatingPoor, Screen(s, model.USD)[model.FactorPositiveCF])

	s = base
	s.EquityRatio = 60
	assert.Equal(t, model.RatingExcellent, Screen(s, model.USD)[model.FactorEquityRatio])
	s.EquityRatio = 19.9
	assert.Equal(t, model.RatingPoor, Screen(s, model.USD)[model.FactorEquityRatio])
}

func TestScreen_ROAPolicyVersions(t *testing.T) {
	s := model.FundamentalsSnapshot{ROA: 0.06}
	assert.Equal(t, model.RatingGood, DefaultPolicy().Screen(s, model.USD)[model.FactorROA])
	assert.Equal(t, model.RatingExcellent, LegacyPolicy().Screen(s, model.USD)[model.FactorROA])

	s.ROA = 0.02
	assert.Equal(t, model.RatingPoor, DefaultPolicy().Screen(s, model.USD)[model.FactorROA])
	assert.Equal(t, model.RatingFair, LegacyPolicy().Screen(s, model.USD)[model.FactorROA])
	assert.Equal(t, model.RatingExcellent, DefaultPolicy().WithROA(2, 1, 0.5).Screen(s, model.USD)[model.FactorROA])
}
