package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/equity"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"StockLens/internal/calculator"
	"StockLens/internal/currency"
	"StockLens/internal/model"
)

const (
	// DefaultBaseURL is the Yahoo Finance query host.
	DefaultBaseURL = "https://query1.finance.yahoo.com"

	// DefaultCookieURL is visited once to obtain the session cookie that
	// the crumb endpoint requires.
	DefaultCookieURL = "https://finance.yahoo.com"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default request rate (requests per second).
	DefaultRateLimit = 2.0

	usdJPYTicker      = "JPY=X"
	maxAnnualRevenues = 4
	summaryModules    = "financialData,defaultKeyStatistics,summaryDetail,incomeStatementHistory"
	browserUserAgent  = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// errUnauthorized marks a 401, which on quoteSummary means the crumb expired.
var errUnauthorized = errors.New("unauthorized")

// YahooFetcher implements Fetcher using the Yahoo Finance public API.
type YahooFetcher struct {
	baseURL      string
	cookieURL    string
	proxyURL     string
	client       *http.Client
	limiter      *rate.Limiter
	log          zerolog.Logger
	fallbackRate float64
	symbolMap    map[string]string // maps index aliases to Yahoo tickers
	lookupEquity func(symbol string) (*finance.Equity, error)

	crumbMu sync.Mutex
	crumb   string
}

// Option configures a YahooFetcher.
type Option func(*YahooFetcher)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) Option {
	return func(f *YahooFetcher) {
		f.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *YahooFetcher) {
		f.client = client
	}
}

// WithCookieURL sets the page visited for the session cookie. It defaults to
// DefaultCookieURL, or to the base URL when that was overridden.
func WithCookieURL(cookieURL string) Option {
	return func(f *YahooFetcher) {
		f.cookieURL = cookieURL
	}
}

// WithProxy routes the chart and quoteSummary requests through proxyURL. It
// is applied after all other options; an unparsable URL is ignored.
func WithProxy(proxyURL string) Option {
	return func(f *YahooFetcher) {
		f.proxyURL = proxyURL
	}
}

// WithRateLimit sets the sustained request rate.
func WithRateLimit(requestsPerSecond float64) Option {
	return func(f *YahooFetcher) {
		burst := int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// WithLogger sets a logger.
func WithLogger(log zerolog.Logger) Option {
	return func(f *YahooFetcher) {
		f.log = log
	}
}

// WithFallbackRate sets the USD/JPY rate used when the live rate is unavailable.
func WithFallbackRate(usdJPY float64) Option {
	return func(f *YahooFetcher) {
		if usdJPY > 0 {
			f.fallbackRate = usdJPY
		}
	}
}

// WithEquityLookup replaces the quote lookup, which otherwise goes through
// finance-go against the live service.
func WithEquityLookup(fn func(symbol string) (*finance.Equity, error)) Option {
	return func(f *YahooFetcher) {
		f.lookupEquity = fn
	}
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(opts ...Option) *YahooFetcher {
	f := &YahooFetcher{
		baseURL:      DefaultBaseURL,
		client:       &http.Client{Timeout: DefaultTimeout},
		limiter:      rate.NewLimiter(rate.Limit(DefaultRateLimit), int(DefaultRateLimit)),
		log:          zerolog.Nop(),
		fallbackRate: currency.DefaultUSDJPY,
		symbolMap: map[string]string{
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
			"NIKKEI": "^N225",
			"N225":   "^N225",
		},
		lookupEquity: equity.Get,
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.proxyURL != "" {
		if u, err := url.Parse(f.proxyURL); err != nil {
			f.log.Warn().Err(err).Str("proxy", f.proxyURL).Msg("Ignoring invalid proxy URL")
		} else {
			f.client = &http.Client{
				Timeout:   DefaultTimeout,
				Transport: &http.Transport{Proxy: http.ProxyURL(u)},
			}
		}
	}
	// The crumb is bound to the session cookie, so the client needs a jar.
	if f.client.Jar == nil {
		jar, _ := cookiejar.New(nil)
		c := *f.client
		c.Jar = jar
		f.client = &c
	}
	if f.cookieURL == "" {
		f.cookieURL = DefaultCookieURL
		if f.baseURL != DefaultBaseURL {
			f.cookieURL = f.baseURL
		}
	}
	return f
}

// HTTPClient returns the client used for chart and quoteSummary requests,
// proxy included.
func (f *YahooFetcher) HTTPClient() *http.Client { return f.client }

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.symbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// rawValue is Yahoo's {"raw": 1.5, "fmt": "1.50"} envelope.
type rawValue struct {
	Raw float64 `json:"raw"`
}

func (r *rawValue) value() float64 {
	if r == nil {
		return 0
	}
	return r.Raw
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// chartResponse is the response structure from the chart API.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"chart"`
}

// summaryResponse is the response structure from the quoteSummary API.
type summaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			FinancialData struct {
				ReturnOnEquity    *rawValue `json:"returnOnEquity"`
				ReturnOnAssets    *rawValue `json:"returnOnAssets"`
				TotalRevenue      *rawValue `json:"totalRevenue"`
				TotalCash         *rawValue `json:"totalCash"`
				OperatingCashflow *rawValue `json:"operatingCashflow"`
				DebtToEquity      *rawValue `json:"debtToEquity"`
				RevenueGrowth     *rawValue `json:"revenueGrowth"`
				FinancialCurrency string    `json:"financialCurrency"`
			} `json:"financialData"`
			DefaultKeyStatistics struct {
				TrailingEps *rawValue `json:"trailingEps"`
				PriceToBook *rawValue `json:"priceToBook"`
			} `json:"defaultKeyStatistics"`
			SummaryDetail struct {
				MarketCap        *rawValue `json:"marketCap"`
				TrailingPE       *rawValue `json:"trailingPE"`
				FiftyTwoWeekLow  *rawValue `json:"fiftyTwoWeekLow"`
				FiftyTwoWeekHigh *rawValue `json:"fiftyTwoWeekHigh"`
				Currency         string    `json:"currency"`
			} `json:"summaryDetail"`
			IncomeStatementHistory struct {
				Statements []struct {
					EndDate      rawValue  `json:"endDate"`
					TotalRevenue *rawValue `json:"totalRevenue"`
				} `json:"incomeStatementHistory"`
			} `json:"incomeStatementHistory"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"quoteSummary"`
}

// getJSON performs a rate-limited GET and decodes the body into dst.
func (f *YahooFetcher) getJSON(ctx context.Context, op, symbol, path string, params url.Values, dst any) error {
	if err := f.limiter.Wait(ctx); err != nil {
		return &FetchError{Op: op, Symbol: symbol, Err: err}
	}

	u := f.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &FetchError{Op: op, Symbol: symbol, Err: err}
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Accept", "application/json")

	f.log.Debug().Str("op", op).Str("symbol", symbol).Msg("Yahoo request")

	resp, err := f.client.Do(req)
	if err != nil {
		return &FetchError{Op: op, Symbol: symbol, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &FetchError{Op: op, Symbol: symbol, Err: ErrRateLimited}
	case resp.StatusCode == http.StatusNotFound:
		return &FetchError{Op: op, Symbol: symbol, Err: ErrNoData}
	case resp.StatusCode == http.StatusUnauthorized:
		return &FetchError{Op: op, Symbol: symbol, Err: errUnauthorized}
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &FetchError{Op: op, Symbol: symbol, Err: fmt.Errorf("status %d: %s", resp.StatusCode, body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return &FetchError{Op: op, Symbol: symbol, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol, rng string) ([]model.PricePoint, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("range", rng)

	var chart chartResponse
	path := "/v8/finance/chart/" + url.PathEscape(f.yahooSymbol(symbol))
	if err := f.getJSON(ctx, "chart", symbol, path, params, &chart); err != nil {
		return nil, err
	}
	if e := chart.Chart.Error; e != nil {
		return nil, &FetchError{Op: "chart", Symbol: symbol, Err: fmt.Errorf("%w: %s", ErrNoData, e.Description)}
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, &FetchError{Op: "chart", Symbol: symbol, Err: ErrNoData}
	}

	result := chart.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close
	points := make([]model.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil || *closes[i] <= 0 {
			continue // null bars (holidays, halts)
		}
		points = append(points, model.PricePoint{
			Symbol: symbol,
			Date:   calculator.DateOnly(time.Unix(ts, 0).UTC()),
			Price:  *closes[i],
		})
	}
	if len(points) == 0 {
		return nil, &FetchError{Op: "chart", Symbol: symbol, Err: ErrNoData}
	}
	calculator.SortByDate(points)
	return points, nil
}

// FetchDailyPrices returns three years of daily closes.
func (f *YahooFetcher) FetchDailyPrices(ctx context.Context, symbol string) ([]model.PricePoint, error) {
	return f.fetchChart(ctx, symbol, "3y")
}

// FetchExchangeRate returns the latest USD/JPY close, or the fallback rate.
func (f *YahooFetcher) FetchExchangeRate(ctx context.Context) float64 {
	points, err := f.fetchChart(ctx, usdJPYTicker, "5d")
	if err != nil {
		f.log.Warn().Err(err).Float64("fallback", f.fallbackRate).Msg("USD/JPY unavailable, using fallback rate")
		return f.fallbackRate
	}
	return points[len(points)-1].Price
}

func (f *YahooFetcher) fetchEquity(ctx context.Context, symbol string) (*finance.Equity, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, &FetchError{Op: "quote", Symbol: symbol, Err: err}
	}
	eq, err := f.lookupEquity(f.yahooSymbol(symbol))
	if err != nil {
		return nil, &FetchError{Op: "quote", Symbol: symbol, Err: err}
	}
	if eq == nil {
		return nil, &FetchError{Op: "quote", Symbol: symbol, Err: ErrNoData}
	}
	return eq, nil
}

// ensureCrumb returns the cached crumb, running the cookie and getcrumb
// handshake first when there is none.
func (f *YahooFetcher) ensureCrumb(ctx context.Context) (string, error) {
	f.crumbMu.Lock()
	defer f.crumbMu.Unlock()
	if f.crumb != "" {
		return f.crumb, nil
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cookieURL, nil)
	if err != nil {
		return "", fmt.Errorf("cookie request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("get cookie: %w", err)
	}
	resp.Body.Close() // only the Set-Cookie headers matter

	if err := f.limiter.Wait(ctx); err != nil {
		return "", err
	}
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/v1/test/getcrumb", nil)
	if err != nil {
		return "", fmt.Errorf("crumb request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Origin", "https://finance.yahoo.com")
	req.Header.Set("Referer", "https://finance.yahoo.com/")
	resp, err = f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("get crumb: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("get crumb: status %d", resp.StatusCode)
	}
	crumb := strings.TrimSpace(string(body))
	if crumb == "" || strings.Contains(crumb, "<") {
		return "", fmt.Errorf("invalid crumb received")
	}
	f.crumb = crumb
	f.log.Debug().Msg("Yahoo crumb refreshed")
	return crumb, nil
}

func (f *YahooFetcher) resetCrumb() {
	f.crumbMu.Lock()
	f.crumb = ""
	f.crumbMu.Unlock()
}

func (f *YahooFetcher) getSummary(ctx context.Context, symbol string, dst *summaryResponse) error {
	params := url.Values{}
	params.Set("modules", summaryModules)
	if crumb, err := f.ensureCrumb(ctx); err != nil {
		f.log.Warn().Err(err).Msg("Yahoo crumb unavailable, requesting quoteSummary without it")
	} else {
		params.Set("crumb", crumb)
	}
	path := "/v10/finance/quoteSummary/" + url.PathEscape(f.yahooSymbol(symbol))
	return f.getJSON(ctx, "quoteSummary", symbol, path, params, dst)
}

func (f *YahooFetcher) fetchSummary(ctx context.Context, symbol string) (*summaryResponse, error) {
	var sum summaryResponse
	err := f.getSummary(ctx, symbol, &sum)
	if errors.Is(err, errUnauthorized) {
		// Crumbs expire with their cookie; redo the handshake once.
		f.resetCrumb()
		sum = summaryResponse{}
		err = f.getSummary(ctx, symbol, &sum)
	}
	if err != nil {
		return nil, err
	}
	if e := sum.QuoteSummary.Error; e != nil {
		return nil, &FetchError{Op: "quoteSummary", Symbol: symbol, Err: fmt.Errorf("%w: %s", ErrNoData, e.Description)}
	}
	if len(sum.QuoteSummary.Result) == 0 {
		return nil, &FetchError{Op: "quoteSummary", Symbol: symbol, Err: ErrNoData}
	}
	return &sum, nil
}

// FetchFundamentals merges the quote lookup with the quoteSummary modules.
// Losing one of the two halves leaves its fields zeroed; losing both fails.
func (f *YahooFetcher) FetchFundamentals(ctx context.Context, symbol string) (Fundamentals, error) {
	eq, eqErr := f.fetchEquity(ctx, symbol)
	sum, sumErr := f.fetchSummary(ctx, symbol)
	if eqErr != nil && sumErr != nil {
		return Fundamentals{}, &FetchError{Op: "fundamentals", Symbol: symbol, Err: errors.Join(eqErr, sumErr)}
	}

	out := Fundamentals{Snapshot: model.FundamentalsSnapshot{Symbol: symbol}}
	if sumErr != nil {
		f.log.Warn().Err(sumErr).Str("symbol", symbol).Msg("quoteSummary unavailable, using quote fields only")
	} else {
		applySummary(&out, sum)
	}
	if eqErr != nil {
		f.log.Warn().Err(eqErr).Str("symbol", symbol).Msg("Quote unavailable, using quoteSummary fields only")
	} else {
		applyEquity(&out, eq)
	}
	return out, nil
}

func applySummary(out *Fundamentals, sum *summaryResponse) {
	r := sum.QuoteSummary.Result[0]
	fd, ks, sd := r.FinancialData, r.DefaultKeyStatistics, r.SummaryDetail

	s := &out.Snapshot
	s.ReturnOnEquity = fd.ReturnOnEquity.value()
	s.ROA = fd.ReturnOnAssets.value()
	s.Revenue = fd.TotalRevenue.value()
	s.TotalCash = fd.TotalCash.value()
	s.OperatingCashflow = fd.OperatingCashflow.value()
	s.RevenueGrowth = fd.RevenueGrowth.value()
	// An omitted debtToEquity reads as zero debt.
	s.EquityRatio = currency.EquityRatioFromDebtToEquity(fd.DebtToEquity.value())
	s.EPS = ks.TrailingEps.value()
	s.PBR = ks.PriceToBook.value()
	s.MarketCap = sd.MarketCap.value()
	s.PER = sd.TrailingPE.value()
	s.FiftyTwoWeekLow = sd.FiftyTwoWeekLow.value()
	s.FiftyTwoWeekHigh = sd.FiftyTwoWeekHigh.value()

	out.Currency = sd.Currency
	if out.Currency == "" {
		out.Currency = fd.FinancialCurrency
	}

	stmts := r.IncomeStatementHistory.Statements
	sort.Slice(stmts, func(i, j int) bool { return stmts[i].EndDate.Raw < stmts[j].EndDate.Raw })
	for _, st := range stmts {
		if v := st.TotalRevenue.value(); v > 0 {
			out.AnnualRevenue = append(out.AnnualRevenue, v)
		}
	}
	if n := len(out.AnnualRevenue); n > maxAnnualRevenues {
		out.AnnualRevenue = out.AnnualRevenue[n-maxAnnualRevenues:]
	}
}

// applyEquity overlays the quote-level fields, which are fresher than the
// summary modules.
func applyEquity(out *Fundamentals, eq *finance.Equity) {
	s := &out.Snapshot
	overlay := func(dst *float64, v float64) {
		if v != 0 {
			*dst = v
		}
	}
	overlay(&s.MarketCap, float64(eq.MarketCap))
	overlay(&s.PER, eq.TrailingPE)
	overlay(&s.PBR, eq.PriceToBook)
	overlay(&s.EPS, eq.EpsTrailingTwelveMonths)
	overlay(&s.FiftyTwoWeekLow, eq.FiftyTwoWeekLow)
	overlay(&s.FiftyTwoWeekHigh, eq.FiftyTwoWeekHigh)
	if eq.CurrencyID != "" {
		out.Currency = eq.CurrencyID
	}
}
