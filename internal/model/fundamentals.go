package model

// Currency determines monetary bands and unit labels.
type Currency string

const (
	USD Currency = "USD"
	JPY Currency = "JPY"
)

// FundamentalsSnapshot holds the raw fundamentals for one symbol. Fields the
// upstream source omits stay zero. Ratios (ReturnOnEquity, ROA, RevenueGrowth)
// are fractions; EquityRatio is already a percentage.
type FundamentalsSnapshot struct {
	Symbol            string  `json:"symbol" msgpack:"symbol"`
	ReturnOnEquity    float64 `json:"returnOnEquity" msgpack:"roe"`
	MarketCap         float64 `json:"marketCap" msgpack:"market_cap"`
	Revenue           float64 `json:"revenue" msgpack:"revenue"`
	TotalCash         float64 `json:"totalCash" msgpack:"total_cash"`
	OperatingCashflow float64 `json:"operatingCashflow" msgpack:"ocf"`
	PER               float64 `json:"per" msgpack:"per"`
	PBR               float64 `json:"pbr" msgpack:"pbr"`
	ROA               float64 `json:"roa" msgpack:"roa"`
	EquityRatio       float64 `json:"equityRatio" msgpack:"equity_ratio"`
	EPS               float64 `json:"eps" msgpack:"eps"`
	FiftyTwoWeekLow   float64 `json:"fiftyTwoWeekLow" msgpack:"low_52w"`
	FiftyTwoWeekHigh  float64 `json:"fiftyTwoWeekHigh" msgpack:"high_52w"`
	RevenueGrowth     float64 `json:"revenueGrowth" msgpack:"revenue_growth"`
}

// MissingFields lists the numeric fields still at their zero default.
func (f FundamentalsSnapshot) MissingFields() []string {
	fields := []struct {
		name  string
		value float64
	}{
		{"returnOnEquity", f.ReturnOnEquity},
		{"marketCap", f.MarketCap},
		{"revenue", f.Revenue},
		{"totalCash", f.TotalCash},
		{"operatingCashflow", f.OperatingCashflow},
		{"per", f.PER},
		{"pbr", f.PBR},
		{"roa", f.ROA},
		{"equityRatio", f.EquityRatio},
		{"eps", f.EPS},
		{"fiftyTwoWeekLow", f.FiftyTwoWeekLow},
		{"fiftyTwoWeekHigh", f.FiftyTwoWeekHigh},
		{"revenueGrowth", f.RevenueGrowth},
	}
	var missing []string
	for _, fd := range fields {
		if fd.value == 0 {
			missing = append(missing, fd.name)
		}
	}
	return missing
}
