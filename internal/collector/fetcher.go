package collector

import (
	"context"
	"errors"
	"fmt"

	"StockLens/internal/model"
)

var (
	// ErrNoData means the source knows nothing about the symbol.
	ErrNoData = errors.New("no data")
	// ErrRateLimited means the source refused the request for quota reasons.
	ErrRateLimited = errors.New("rate limited")
)

// FetchError wraps a source failure with the operation and symbol involved.
type FetchError struct {
	Op     string
	Symbol string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Symbol, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fundamentals is what a source knows about a company besides its prices.
type Fundamentals struct {
	Snapshot model.FundamentalsSnapshot
	// Currency is the trading currency code when the source states one.
	Currency string
	// AnnualRevenue is ordered oldest first.
	AnnualRevenue []float64
}

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchDailyPrices(ctx context.Context, symbol string) ([]model.PricePoint, error)
	FetchFundamentals(ctx context.Context, symbol string) (Fundamentals, error)
	// FetchExchangeRate returns JPY per USD. Implementations fall back to a
	// fixed rate instead of failing.
	FetchExchangeRate(ctx context.Context) float64
	Name() string
}
