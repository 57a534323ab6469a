package calculator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockLens/internal/model"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func pt(date string, price float64) model.PricePoint {
	return model.PricePoint{Symbol: "TEST", Date: day(date), Price: price}
}

// dailySeries builds weekday prices oscillating between 150 and 220.
func dailySeries(symbol string, from time.Time, days int) []model.PricePoint {
	var out []model.PricePoint
	for i := 0; i < days; i++ {
		d := from.AddDate(0, 0, i)
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		price := 150 + float64(i%71)
		out = append(out, model.PricePoint{Symbol: symbol, Date: d, Price: price})
	}
	return out
}

func TestResample_Empty(t *testing.T) {
	assert.Empty(t, Resample(nil, model.GranularityWeek))
	assert.Empty(t, Resample([]model.PricePoint{}, model.GranularityMonth))
}

func TestResample_SinglePoint(t *testing.T) {
	in := []model.PricePoint{pt("2024-03-13", 101)}
	assert.Equal(t, in, ToWeekly(in))
	assert.Equal(t, in, ToMonthly(in))
}

func TestResample_WeeklyTakesLatestPointUnsorted(t *testing.T) {
	// 2024-01-01 is a Monday.
	in := []model.PricePoint{
		pt("2024-01-05", 12),
		pt("2024-01-01", 10),
		pt("2024-01-08", 20),
		pt("2024-01-03", 11),
		pt("2024-01-14", 25), // Sunday closes the second week
		pt("2024-01-09", 21),
	}
	out := ToWeekly(in)
	require.Len(t, out, 2)
	assert.Equal(t, day("2024-01-05"), out[0].Date)
	assert.Equal(t, 12.0, out[0].Price)
	assert.Equal(t, day("2024-01-14"), out[1].Date)
	assert.Equal(t, 25.0, out[1].Price)
}

func TestResample_MonthlyBuckets(t *testing.T) {
	in := []model.PricePoint{
		pt("2024-02-29", 30),
		pt("2024-01-31", 20),
		pt("2024-01-02", 10),
		pt("2024-02-01", 25),
		pt("2024-04-15", 40), // March has no data
	}
	out := ToMonthly(in)
	require.Len(t, out, 3)
	assert.Equal(t, []float64{20, 30, 40}, []float64{out[0].Price, out[1].Price, out[2].Price})
}

func TestResample_SameLatestDateLastSeenWins(t *testing.T) {
	in := []model.PricePoint{pt("2024-05-10", 1), pt("2024-05-10", 2)}
	out := ToWeekly(in)
	require.Len(t, out, 1)
	assert.Equal(t, 2.0, out[0].Price)
}

func TestResample_MonthlyIsIdempotent(t *testing.T) {
	in := dailySeries("AAPL", day("2021-01-01"), 3*365)
	once := ToMonthly(in)
	twice := ToMonthly(once)
	assert.Equal(t, once, twice)
}

func TestResample_BucketCompleteness(t *testing.T) {
	in := dailySeries("AAPL", day("2022-06-01"), 400)
	for _, g := range []model.Granularity{model.GranularityDay, model.GranularityWeek, model.GranularityMonth} {
		out := Resample(in, g)
		assert.LessOrEqual(t, len(out), len(in))

		buckets := make(map[time.Time]int)
		for _, p := range out {
			buckets[BucketKey(p.Date, g)]++
		}
		for _, p := range in {
			assert.Equal(t, 1, buckets[BucketKey(p.Date, g)], "point %s not in exactly one bucket", p.Date)
		}
	}
}

func TestToWeekly_ThreeYearsOfDailyPrices(t *testing.T) {
	in := dailySeries("AAPL", day("2021-01-04"), 3*365)
	out := ToWeekly(in)

	seen := make(map[[2]int]bool)
	for i, p := range out {
		y, w := p.Date.ISOWeek()
		key := [2]int{y, w}
		assert.False(t, seen[key], "duplicate ISO week %v", key)
		seen[key] = true
		if i > 0 {
			assert.True(t, out[i-1].Date.Before(p.Date))
		}
		assert.GreaterOrEqual(t, p.Price, 150.0)
		assert.LessOrEqual(t, p.Price, 220.0)
	}

	// Every output point is the last trading day of its week in the input.
	lastOfWeek := make(map[[2]int]model.PricePoint)
	for _, p := range in {
		y, w := p.Date.ISOWeek()
		lastOfWeek[[2]int{y, w}] = p
	}
	assert.Len(t, out, len(lastOfWeek))
	for _, p := range out {
		y, w := p.Date.ISOWeek()
		assert.Equal(t, lastOfWeek[[2]int{y, w}], p)
	}
}

func TestBucketKey_Week(t *testing.T) {
	tests := []struct {
		date   string
		monday string
	}{
		{"2024-01-01", "2024-01-01"},
		{"2024-01-07", "2024-01-01"},
		{"2024-01-08", "2024-01-08"},
		{"2024-03-01", "2024-02-26"},
		{"2021-01-03", "2020-12-28"},
	}
	for _, tt := range tests {
		assert.Equal(t, day(tt.monday), BucketKey(day(tt.date), model.GranularityWeek), tt.date)
	}
}

func TestChartPoints_SortedLabels(t *testing.T) {
	out := ChartPoints([]model.PricePoint{pt("2024-01-03", 3), pt("2024-01-01", 1)})
	assert.Equal(t, []model.ChartPoint{{X: "2024-01-01", Y: 1}, {X: "2024-01-03", Y: 3}}, out)
}

func TestDateOnly_KeepsUTCDateWestOfUTC(t *testing.T) {
	newYork := time.FixedZone("EST", -5*3600)
	// Monday midnight UTC is still Sunday evening in New York.
	monday := day("2024-01-08").In(newYork)

	assert.Equal(t, day("2024-01-08"), DateOnly(monday))
	assert.Equal(t, day("2024-01-08"), BucketKey(monday, model.GranularityWeek))
	assert.Equal(t, day("2024-01-01"), BucketKey(monday, model.GranularityMonth))
	assert.Equal(t, []model.ChartPoint{{X: "2024-01-08", Y: 185}},
		ChartPoints([]model.PricePoint{{Symbol: "AAPL", Date: monday, Price: 185}}))
}
