package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockLens/internal/cache"
	"StockLens/internal/model"
	"StockLens/internal/strategy"
)

var quiet = zerolog.New(nil).Level(zerolog.Disabled)

func series(symbol string, prices ...float64) []model.PricePoint {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.PricePoint, len(prices))
	for i, p := range prices {
		out[i] = model.PricePoint{Symbol: symbol, Date: start.AddDate(0, 0, i), Price: p}
	}
	return out
}

func TestCollect_Bundle(t *testing.T) {
	m := &MockFetcher{
		Series: map[string][]model.PricePoint{"AAPL": series("AAPL", 100, 110, 105)},
		Fundamentals: map[string]Fundamentals{"AAPL": {
			Snapshot:      model.FundamentalsSnapshot{MarketCap: 3e12, PER: 30},
			Currency:      "USD",
			AnnualRevenue: []float64{3.6e11, 3.9e11},
		}},
		Rate: 148,
	}
	c := NewCollector(m, nil, quiet)

	data, err := c.Collect(context.Background(), " aapl ")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", data.Symbol)
	assert.Equal(t, model.USD, data.Currency)
	assert.Len(t, data.Prices, 3)
	assert.Equal(t, 3e12, data.Fundamentals.MarketCap)
	assert.Equal(t, "AAPL", data.Fundamentals.Symbol)
	assert.Equal(t, 148.0, data.ExchangeRate)
	assert.Equal(t, "mock", data.Source)
	assert.Empty(t, data.Warnings)
}

func TestCollect_DomesticCode(t *testing.T) {
	m := &MockFetcher{Price: 2500}
	data, err := NewCollector(m, nil, quiet).Collect(context.Background(), "7203")
	require.NoError(t, err)
	assert.Equal(t, "7203.T", data.Symbol)
	assert.Equal(t, model.JPY, data.Currency)
	assert.Len(t, data.Prices, 3*252)
}

func TestCollect_FundamentalsFailureIsTolerated(t *testing.T) {
	m := &MockFetcher{Price: 100, FundamentalsErr: errors.New("upstream 500")}
	data, err := NewCollector(m, nil, quiet).Collect(context.Background(), "MSFT")
	require.NoError(t, err)
	require.Len(t, data.Warnings, 1)
	assert.Contains(t, data.Warnings[0], "upstream 500")

	rep := data.Analyze(strategy.DefaultPolicy())
	assert.Equal(t, data.Warnings[0], rep.Warnings[0])
	assert.Len(t, rep.ScreeningResults, 10)
}

func TestCollect_RateLimitedFundamentalsFail(t *testing.T) {
	m := &MockFetcher{
		Price:           100,
		FundamentalsErr: &FetchError{Op: "quoteSummary", Symbol: "MSFT", Err: ErrRateLimited},
	}
	_, err := NewCollector(m, nil, quiet).Collect(context.Background(), "MSFT")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRateLimited))
}

func TestCollect_MissingPrices(t *testing.T) {
	_, err := NewCollector(&MockFetcher{}, nil, quiet).Collect(context.Background(), "NOPE")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoData))
}

func TestCollect_BlankSymbol(t *testing.T) {
	_, err := NewCollector(&MockFetcher{}, nil, quiet).Collect(context.Background(), "   ")
	assert.True(t, errors.Is(err, ErrInvalidSymbol))
}

func TestCollect_UsesCache(t *testing.T) {
	store, err := cache.NewBadger(time.Minute, quiet)
	require.NoError(t, err)
	defer store.Close()

	m := &MockFetcher{Series: map[string][]model.PricePoint{"AAPL": series("AAPL", 1, 2, 3)}}
	c := NewCollector(m, store, quiet)

	first, err := c.Collect(context.Background(), "AAPL")
	require.NoError(t, err)
	second, err := c.Collect(context.Background(), "aapl")
	require.NoError(t, err)

	assert.Equal(t, 1, m.Calls("prices"))
	assert.Equal(t, 1, m.Calls("fundamentals"))
	require.Len(t, second.Prices, 3)
	assert.Equal(t, first.Prices[2].Price, second.Prices[2].Price)

	prices, err := c.Prices(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Len(t, prices, 3)
	assert.Equal(t, 1, m.Calls("prices"))
}

func TestPrices_CachesSeparately(t *testing.T) {
	store, err := cache.NewBadger(time.Minute, quiet)
	require.NoError(t, err)
	defer store.Close()

	m := &MockFetcher{Price: 50}
	c := NewCollector(m, store, quiet)
	for i := 0; i < 3; i++ {
		_, err := c.Prices(context.Background(), "XOM")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, m.Calls("prices"))
	assert.Zero(t, m.Calls("fundamentals"))
}

func TestCollect_CachedDatesStayUTC(t *testing.T) {
	orig := time.Local
	time.Local = time.FixedZone("EST", -5*3600)
	t.Cleanup(func() { time.Local = orig })

	store, err := cache.NewBadger(time.Minute, quiet)
	require.NoError(t, err)
	defer store.Close()

	monday := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	m := &MockFetcher{Series: map[string][]model.PricePoint{
		"AAPL": {{Symbol: "AAPL", Date: monday, Price: 185}},
	}}
	c := NewCollector(m, store, quiet)

	_, err = c.Collect(context.Background(), "AAPL")
	require.NoError(t, err)
	cached, err := c.Collect(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Equal(t, 1, m.Calls("prices"))

	require.Len(t, cached.Prices, 1)
	assert.Equal(t, monday, cached.Prices[0].Date)
	assert.Equal(t, time.UTC, cached.Prices[0].Date.Location())

	prices, err := c.Prices(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, monday, prices[0].Date)
}
