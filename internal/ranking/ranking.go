// Package ranking ranks sectors by the mean lookback return of their
// constituents.
package ranking

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"StockLens/internal/calculator"
	"StockLens/internal/model"
)

// ErrNoResult is returned by Latest before the first successful run.
var ErrNoResult = errors.New("no ranking available yet")

// PriceSource supplies daily prices for a symbol.
type PriceSource interface {
	Prices(ctx context.Context, symbol string) ([]model.PricePoint, error)
}

// Config drives a ranking run.
type Config struct {
	Sectors      map[string][]string
	LookbackDays int
	Concurrency  int
}

// SymbolReturn is one constituent's lookback return, in percent.
type SymbolReturn struct {
	Symbol string  `json:"symbol"`
	Return float64 `json:"return"`
}

// SectorScore is one ranked sector.
type SectorScore struct {
	Rank       int            `json:"rank"`
	Sector     string         `json:"sector"`
	MeanReturn float64        `json:"meanReturn"`
	StdDev     float64        `json:"stdDev"`
	Symbols    []SymbolReturn `json:"symbols"`
}

// SkippedSymbol records a constituent left out of its sector's mean.
type SkippedSymbol struct {
	Sector string `json:"sector"`
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// Result is one completed run.
type Result struct {
	RunID        string          `json:"runId"`
	GeneratedAt  time.Time       `json:"generatedAt"`
	LookbackDays int             `json:"lookbackDays"`
	Sectors      []SectorScore   `json:"sectors"`
	Skipped      []SkippedSymbol `json:"skipped"`
}

// Ranker runs the sector ranking and keeps the latest result.
type Ranker struct {
	src PriceSource
	cfg Config
	log zerolog.Logger

	mu     sync.RWMutex
	latest *Result
}

// New creates a Ranker. Non-positive lookback and concurrency fall back to
// 90 days and 4 workers.
func New(src PriceSource, cfg Config, log zerolog.Logger) *Ranker {
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 90
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Ranker{src: src, cfg: cfg, log: log.With().Str("component", "ranking").Logger()}
}

// Latest returns the most recent result.
func (r *Ranker) Latest() (*Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.latest == nil {
		return nil, ErrNoResult
	}
	return r.latest, nil
}

type job struct {
	sector, symbol string
}

type outcome struct {
	ret    float64
	reason string
}

// Run fetches every configured symbol, computes lookback returns and ranks
// the sectors by their mean. Failed symbols are skipped, not fatal.
func (r *Ranker) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	sectors := make([]string, 0, len(r.cfg.Sectors))
	for s := range r.cfg.Sectors {
		sectors = append(sectors, s)
	}
	sort.Strings(sectors)

	var jobs []job
	for _, s := range sectors {
		for _, sym := range r.cfg.Sectors[s] {
			jobs = append(jobs, job{sector: s, symbol: sym})
		}
	}

	// Map: one return per symbol, each worker writing only its own slot.
	outcomes := make([]outcome, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			prices, err := r.src.Prices(gctx, j.symbol)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				outcomes[i] = outcome{reason: err.Error()}
				return nil
			}
			ret, ok := LookbackReturn(prices, r.cfg.LookbackDays)
			if !ok {
				outcomes[i] = outcome{reason: "not enough prices in lookback window"}
				return nil
			}
			outcomes[i] = outcome{ret: ret}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Reduce: group by sector and average.
	res := &Result{
		RunID:        uuid.NewString(),
		GeneratedAt:  time.Now().UTC(),
		LookbackDays: r.cfg.LookbackDays,
	}
	bySector := make(map[string][]SymbolReturn)
	for i, j := range jobs {
		o := outcomes[i]
		if o.reason != "" {
			res.Skipped = append(res.Skipped, SkippedSymbol{Sector: j.sector, Symbol: j.symbol, Reason: o.reason})
			continue
		}
		bySector[j.sector] = append(bySector[j.sector], SymbolReturn{Symbol: j.symbol, Return: o.ret})
	}
	for _, s := range sectors {
		members := bySector[s]
		if len(members) == 0 {
			continue
		}
		res.Sectors = append(res.Sectors, score(s, members))
	}
	sort.SliceStable(res.Sectors, func(a, b int) bool {
		return res.Sectors[a].MeanReturn > res.Sectors[b].MeanReturn
	})
	for i := range res.Sectors {
		res.Sectors[i].Rank = i + 1
	}

	r.mu.Lock()
	r.latest = res
	r.mu.Unlock()

	r.log.Info().
		Str("run_id", res.RunID).
		Int("sectors", len(res.Sectors)).
		Int("skipped", len(res.Skipped)).
		Dur("took", time.Since(start)).
		Msg("Sector ranking completed")
	return res, nil
}

func score(sector string, members []SymbolReturn) SectorScore {
	returns := make([]float64, len(members))
	for i, m := range members {
		returns[i] = m.Return
	}
	sc := SectorScore{Sector: sector, MeanReturn: stat.Mean(returns, nil), Symbols: members}
	if len(returns) > 1 {
		sc.StdDev = stat.StdDev(returns, nil)
	}
	sort.SliceStable(sc.Symbols, func(a, b int) bool { return sc.Symbols[a].Return > sc.Symbols[b].Return })
	return sc
}

// LookbackReturn is the percent change from the first price on or after
// (last date - days) to the last price.
func LookbackReturn(points []model.PricePoint, days int) (float64, bool) {
	if len(points) < 2 {
		return 0, false
	}
	sorted := make([]model.PricePoint, len(points))
	copy(sorted, points)
	calculator.SortByDate(sorted)

	last := sorted[len(sorted)-1]
	cutoff := last.Date.AddDate(0, 0, -days)
	i := sort.Search(len(sorted), func(k int) bool { return !sorted[k].Date.Before(cutoff) })
	if i >= len(sorted)-1 {
		return 0, false
	}
	return calculator.PeriodReturn(sorted[i].Price, last.Price)
}
