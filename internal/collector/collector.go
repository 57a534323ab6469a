package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"StockLens/internal/cache"
	"StockLens/internal/currency"
	"StockLens/internal/model"
	"StockLens/internal/strategy"
)

// ErrInvalidSymbol is returned for blank symbols.
var ErrInvalidSymbol = errors.New("invalid symbol")

// MarketData is everything collected for one symbol.
type MarketData struct {
	Symbol        string                     `msgpack:"symbol"`
	Currency      model.Currency             `msgpack:"currency"`
	Prices        []model.PricePoint         `msgpack:"prices"`
	Fundamentals  model.FundamentalsSnapshot `msgpack:"fundamentals"`
	AnnualRevenue []float64                  `msgpack:"annual_revenue"`
	ExchangeRate  float64                    `msgpack:"exchange_rate"`
	Source        string                     `msgpack:"source"`
	FetchedAt     time.Time                  `msgpack:"fetched_at"`
	Warnings      []string                   `msgpack:"warnings"`
}

// Input converts the bundle into the analysis input.
func (d *MarketData) Input() strategy.Input {
	return strategy.Input{
		Symbol:        d.Symbol,
		Currency:      d.Currency,
		Prices:        d.Prices,
		Fundamentals:  d.Fundamentals,
		AnnualRevenue: d.AnnualRevenue,
		ExchangeRate:  d.ExchangeRate,
	}
}

// Analyze runs p over the bundle and carries collection warnings into the
// report.
func (d *MarketData) Analyze(p strategy.Policy) model.Report {
	rep := p.Analyze(d.Input())
	rep.Warnings = append(append([]string(nil), d.Warnings...), rep.Warnings...)
	return rep
}

// Collector orchestrates data fetching and caching.
type Collector struct {
	fetcher Fetcher
	cache   cache.Cache
	log     zerolog.Logger
}

// NewCollector creates a new Collector. A nil cache disables caching.
func NewCollector(fetcher Fetcher, c cache.Cache, log zerolog.Logger) *Collector {
	if c == nil {
		c = cache.Nop{}
	}
	return &Collector{
		fetcher: fetcher,
		cache:   c,
		log:     log.With().Str("component", "collector").Logger(),
	}
}

func (c *Collector) cached(key string, dst any) bool {
	ok, err := c.cache.Get(key, dst)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		return false
	}
	return ok
}

func (c *Collector) store(key string, v any) {
	if err := c.cache.Set(key, v); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}

// Collect fetches prices, fundamentals and the exchange rate concurrently.
// Prices are required; missing fundamentals only add a warning unless the
// source is rate limiting.
func (c *Collector) Collect(ctx context.Context, symbol string) (*MarketData, error) {
	sym := currency.NormalizeSymbol(symbol)
	if sym == "" {
		return nil, &FetchError{Op: "collect", Err: ErrInvalidSymbol}
	}

	key := "marketdata:" + sym
	var hit MarketData
	if c.cached(key, &hit) {
		utcDates(hit.Prices)
		c.log.Debug().Str("symbol", sym).Msg("Market data served from cache")
		return &hit, nil
	}

	var (
		prices   []model.PricePoint
		fund     Fundamentals
		rate     float64
		warnings []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		prices, err = c.fetcher.FetchDailyPrices(gctx, sym)
		return err
	})
	g.Go(func() error {
		f, err := c.fetcher.FetchFundamentals(gctx, sym)
		if errors.Is(err, ErrRateLimited) {
			return err
		}
		if err != nil {
			c.log.Warn().Err(err).Str("symbol", sym).Msg("Fundamentals unavailable")
			warnings = append(warnings, fmt.Sprintf("fundamentals unavailable: %v", err))
			return nil
		}
		fund = f
		return nil
	})
	g.Go(func() error {
		rate = c.fetcher.FetchExchangeRate(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("collect %s: %w", sym, err)
	}

	fund.Snapshot.Symbol = sym
	data := &MarketData{
		Symbol:        sym,
		Currency:      currency.Detect(sym, fund.Currency),
		Prices:        prices,
		Fundamentals:  fund.Snapshot,
		AnnualRevenue: fund.AnnualRevenue,
		ExchangeRate:  rate,
		Source:        c.fetcher.Name(),
		FetchedAt:     time.Now().UTC(),
		Warnings:      warnings,
	}
	c.store(key, data)

	c.log.Info().
		Str("symbol", sym).
		Str("currency", string(data.Currency)).
		Int("prices", len(prices)).
		Int("revenues", len(fund.AnnualRevenue)).
		Msg("Market data collected")
	return data, nil
}

// Prices returns the daily series only, for batch jobs that need no
// fundamentals.
func (c *Collector) Prices(ctx context.Context, symbol string) ([]model.PricePoint, error) {
	sym := currency.NormalizeSymbol(symbol)
	if sym == "" {
		return nil, &FetchError{Op: "prices", Err: ErrInvalidSymbol}
	}

	var data MarketData
	if c.cached("marketdata:"+sym, &data) {
		utcDates(data.Prices)
		return data.Prices, nil
	}
	key := "prices:" + sym
	var prices []model.PricePoint
	if c.cached(key, &prices) {
		utcDates(prices)
		return prices, nil
	}

	prices, err := c.fetcher.FetchDailyPrices(ctx, sym)
	if err != nil {
		return nil, fmt.Errorf("prices %s: %w", sym, err)
	}
	c.store(key, prices)
	return prices, nil
}

// utcDates puts decoded dates back in UTC; msgpack restores times in the
// local zone.
func utcDates(points []model.PricePoint) {
	for i := range points {
		points[i].Date = points[i].Date.UTC()
	}
}
