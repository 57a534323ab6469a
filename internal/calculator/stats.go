package calculator

import (
	"math"

	"StockLens/internal/model"
)

// Summarize scans the window for its extremes. Returns nil for an empty
// window. Ties keep the first point encountered.
func Summarize(points []model.PricePoint) *model.Stats {
	if len(points) == 0 {
		return nil
	}
	s := &model.Stats{
		MaxPrice: points[0].Price,
		MaxDate:  points[0].Date,
		MinPrice: points[0].Price,
		MinDate:  points[0].Date,
	}
	for _, p := range points[1:] {
		if p.Price > s.MaxPrice {
			s.MaxPrice = p.Price
			s.MaxDate = p.Date
		}
		if p.Price < s.MinPrice {
			s.MinPrice = p.Price
			s.MinDate = p.Date
		}
	}
	s.PriceRange = s.MaxPrice - s.MinPrice
	if s.MaxPrice != 0 {
		s.PriceRangePercent = s.PriceRange / s.MaxPrice * 100
	}
	return s
}

// LastPrice returns the chronologically latest point.
func LastPrice(points []model.PricePoint) (model.PricePoint, bool) {
	if len(points) == 0 {
		return model.PricePoint{}, false
	}
	last := points[0]
	for _, p := range points[1:] {
		if !p.Date.Before(last.Date) {
			last = p
		}
	}
	return last, true
}

// Calculate52WeekRange returns the high and low of the most recent 252
// trading days.
func Calculate52WeekRange(points []model.PricePoint) (high, low float64, ok bool) {
	if len(points) == 0 {
		return 0, 0, false
	}
	sorted := make([]model.PricePoint, len(points))
	copy(sorted, points)
	SortByDate(sorted)

	start := len(sorted) - 252
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, p := range sorted[start:] {
		if p.Price > high {
			high = p.Price
		}
		if p.Price < low {
			low = p.Price
		}
	}
	return high, low, true
}
