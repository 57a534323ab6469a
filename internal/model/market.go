package model

import (
	"strings"
	"time"
)

// PricePoint is a single daily observation for a symbol. Date carries no
// time-of-day; collectors normalize it to midnight UTC.
type PricePoint struct {
	Symbol string    `json:"symbol" msgpack:"symbol"`
	Date   time.Time `json:"date" msgpack:"date"`
	Price  float64   `json:"price" msgpack:"price"`
}

// ChartPoint is the chart projection of a PricePoint.
type ChartPoint struct {
	X string  `json:"x"`
	Y float64 `json:"y"`
}

// Granularity selects the resampling bucket.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// ParseGranularity accepts the query-string spellings used by the HTTP layer.
func ParseGranularity(s string) (Granularity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "day", "daily", "1d":
		return GranularityDay, true
	case "week", "weekly", "1wk":
		return GranularityWeek, true
	case "month", "monthly", "1mo":
		return GranularityMonth, true
	}
	return "", false
}

// Stats summarizes a price window.
type Stats struct {
	MaxPrice          float64   `json:"maxPrice"`
	MaxDate           time.Time `json:"maxDate"`
	MinPrice          float64   `json:"minPrice"`
	MinDate           time.Time `json:"minDate"`
	PriceRange        float64   `json:"priceRange"`
	PriceRangePercent float64   `json:"priceRangePercent"`
}
