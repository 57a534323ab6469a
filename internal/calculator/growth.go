package calculator

import "math"

// RevenueCAGR computes the compound annual growth rate, in percent, of yearly
// revenues ordered oldest first. Needs at least two years with positive
// endpoints.
func RevenueCAGR(revenues []float64) (float64, bool) {
	if len(revenues) < 2 {
		return 0, false
	}
	first, last := revenues[0], revenues[len(revenues)-1]
	if first <= 0 || last <= 0 {
		return 0, false
	}
	years := float64(len(revenues) - 1)
	cagr := (math.Pow(last/first, 1/years) - 1) * 100
	if math.IsNaN(cagr) || math.IsInf(cagr, 0) {
		return 0, false
	}
	return cagr, true
}

// PeriodReturn is the simple percent change between two prices.
func PeriodReturn(first, last float64) (float64, bool) {
	if first <= 0 || last <= 0 {
		return 0, false
	}
	return (last/first - 1) * 100, true
}
