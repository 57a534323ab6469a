package cache

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockLens/internal/model"
)

func newTestCache(t *testing.T, ttl time.Duration) *Badger {
	t.Helper()
	c, err := NewBadger(ttl, zerolog.New(nil).Level(zerolog.Disabled))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestBadger_RoundTripsPrices(t *testing.T) {
	c := newTestCache(t, time.Minute)
	in := []model.PricePoint{
		{Symbol: "AAPL", Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Price: 180.5},
		{Symbol: "AAPL", Date: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), Price: 182},
	}
	require.NoError(t, c.Set("prices:AAPL", in))

	var out []model.PricePoint
	ok, err := c.Get("prices:AAPL", &out)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, out, 2)
	assert.Equal(t, 180.5, out[0].Price)
	assert.True(t, in[1].Date.Equal(out[1].Date))
}

func TestBadger_Miss(t *testing.T) {
	c := newTestCache(t, time.Minute)
	var out model.FundamentalsSnapshot
	ok, err := c.Get("missing", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBadger_Overwrite(t *testing.T) {
	c := newTestCache(t, 0)
	require.NoError(t, c.Set("k", model.FundamentalsSnapshot{Symbol: "A", PER: 10}))
	require.NoError(t, c.Set("k", model.FundamentalsSnapshot{Symbol: "A", PER: 12}))

	var out model.FundamentalsSnapshot
	ok, err := c.Get("k", &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 12.0, out.PER)
}

func TestBadger_Expires(t *testing.T) {
	c := newTestCache(t, time.Second)
	require.NoError(t, c.Set("k", 1))

	// Badger TTLs have one-second resolution.
	time.Sleep(2100 * time.Millisecond)
	var out int
	ok, err := c.Get("k", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	require.NoError(t, c.Set("k", 1))
	var out int
	ok, err := c.Get("k", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}
