package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRating_Symbols(t *testing.T) {
	assert.Equal(t, "◎", RatingExcellent.Symbol())
	assert.Equal(t, "〇", RatingGood.Symbol())
	assert.Equal(t, "△", RatingFair.Symbol())
	assert.Equal(t, "×", RatingPoor.Symbol())
	assert.True(t, RatingExcellent > RatingGood && RatingGood > RatingFair && RatingFair > RatingPoor)
}

func TestRating_JSONUsesSymbols(t *testing.T) {
	grid := ScreeningResult{FactorROE: RatingExcellent, FactorPBR: RatingPoor}
	b, err := json.Marshal(grid)
	require.NoError(t, err)
	assert.JSONEq(t, `{"roe":"◎","pbr":"×"}`, string(b))

	var back ScreeningResult
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, grid, back)
}

func TestRating_UnmarshalByName(t *testing.T) {
	var r Rating
	require.NoError(t, r.UnmarshalText([]byte("good")))
	assert.Equal(t, RatingGood, r)
	assert.Error(t, r.UnmarshalText([]byte("great")))
}

func TestParseGranularity(t *testing.T) {
	tests := []struct {
		in   string
		want Granularity
		ok   bool
	}{
		{"", GranularityDay, true},
		{"day", GranularityDay, true},
		{"weekly", GranularityWeek, true},
		{"1mo", GranularityMonth, true},
		{"Month", GranularityMonth, true},
		{"year", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseGranularity(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.in)
		}
	}
}

func TestMissingFields(t *testing.T) {
	s := FundamentalsSnapshot{
		ReturnOnEquity: 0.1, MarketCap: 1, Revenue: 1, TotalCash: 1, OperatingCashflow: -1,
		PER: 10, PBR: 1, ROA: 0.05, EquityRatio: 50, EPS: 1, FiftyTwoWeekLow: 1, RevenueGrowth: 0.1,
	}
	assert.Equal(t, []string{"fiftyTwoWeekHigh"}, s.MissingFields())
	assert.Len(t, FundamentalsSnapshot{}.MissingFields(), 13)
}
