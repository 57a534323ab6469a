package collector

import (
	"context"
	"sync"
	"time"

	"StockLens/internal/calculator"
	"StockLens/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	// Price seeds a generated three-year series for symbols missing from
	// Series. Zero makes unknown symbols fail with ErrNoData.
	Price        float64
	Series       map[string][]model.PricePoint
	Fundamentals map[string]Fundamentals
	Rate         float64
	// Errors fails price lookups per symbol.
	Errors          map[string]error
	FundamentalsErr error

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) record(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[op]++
}

// Calls reports how many times op ("prices", "fundamentals", "rate") ran.
func (m *MockFetcher) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *MockFetcher) FetchDailyPrices(_ context.Context, symbol string) ([]model.PricePoint, error) {
	m.record("prices")
	if err := m.Errors[symbol]; err != nil {
		return nil, err
	}
	if s, ok := m.Series[symbol]; ok {
		return append([]model.PricePoint(nil), s...), nil
	}
	if m.Price <= 0 {
		return nil, &FetchError{Op: "chart", Symbol: symbol, Err: ErrNoData}
	}
	return generateMockPrices(symbol, m.Price, 3*252), nil
}

func (m *MockFetcher) FetchFundamentals(_ context.Context, symbol string) (Fundamentals, error) {
	m.record("fundamentals")
	if m.FundamentalsErr != nil {
		return Fundamentals{}, m.FundamentalsErr
	}
	f := m.Fundamentals[symbol]
	f.Snapshot.Symbol = symbol
	return f, nil
}

func (m *MockFetcher) FetchExchangeRate(context.Context) float64 {
	m.record("rate")
	if m.Rate <= 0 {
		return 150
	}
	return m.Rate
}

// generateMockPrices builds count weekday closes ending yesterday, drifting
// upward by 0.1% a day.
func generateMockPrices(symbol string, basePrice float64, count int) []model.PricePoint {
	points := make([]model.PricePoint, 0, count)
	d := calculator.DateOnly(time.Now()).AddDate(0, 0, -1)
	for len(points) < count {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			points = append(points, model.PricePoint{Symbol: symbol, Date: d})
		}
		d = d.AddDate(0, 0, -1)
	}
	calculator.SortByDate(points)
	for i := range points {
		points[i].Price = basePrice * (1 + float64(i-count/2)*0.001)
	}
	return points
}
