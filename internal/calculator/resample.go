package calculator

import (
	"sort"
	"time"

	"StockLens/internal/model"
)

// Resample keeps one point per bucket: the chronologically latest point that
// falls into it. Points sharing the latest date in a bucket resolve to the one
// seen last. Output is sorted ascending by date.
func Resample(points []model.PricePoint, g model.Granularity) []model.PricePoint {
	if len(points) == 0 {
		return nil
	}
	latest := make(map[time.Time]model.PricePoint, len(points))
	for _, p := range points {
		key := BucketKey(p.Date, g)
		if cur, ok := latest[key]; !ok || !p.Date.Before(cur.Date) {
			latest[key] = p
		}
	}
	out := make([]model.PricePoint, 0, len(latest))
	for _, p := range latest {
		out = append(out, p)
	}
	SortByDate(out)
	return out
}

// ToWeekly resamples to ISO weeks (Monday start).
func ToWeekly(points []model.PricePoint) []model.PricePoint {
	return Resample(points, model.GranularityWeek)
}

// ToMonthly resamples to calendar months.
func ToMonthly(points []model.PricePoint) []model.PricePoint {
	return Resample(points, model.GranularityMonth)
}

// BucketKey returns the calendar date identifying the bucket of t: the day
// itself, the Monday on or before it, or the first of its month.
func BucketKey(t time.Time, g model.Granularity) time.Time {
	d := DateOnly(t)
	switch g {
	case model.GranularityWeek:
		offset := (int(d.Weekday()) + 6) % 7
		return d.AddDate(0, 0, -offset)
	case model.GranularityMonth:
		return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return d
	}
}

// DateOnly drops the time of day, keeping the UTC calendar date. Decoders
// may hand back midnight UTC in the local zone, so t is converted first.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SortByDate sorts points ascending by date, in place.
func SortByDate(points []model.PricePoint) {
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
}

// ChartPoints projects points onto {x, y} pairs ordered ascending by date.
func ChartPoints(points []model.PricePoint) []model.ChartPoint {
	sorted := make([]model.PricePoint, len(points))
	copy(sorted, points)
	SortByDate(sorted)

	out := make([]model.ChartPoint, len(sorted))
	for i, p := range sorted {
		out[i] = model.ChartPoint{X: DateOnly(p.Date).Format("2006-01-02"), Y: p.Price}
	}
	return out
}
