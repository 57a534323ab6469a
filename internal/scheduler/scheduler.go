package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"StockLens/internal/collector"
	"StockLens/internal/notifier"
	"StockLens/internal/ranking"
	"StockLens/internal/strategy"
)

const sendRetries = 3

// MarketData supplies collected data for one symbol.
type MarketData interface {
	Collect(ctx context.Context, symbol string) (*collector.MarketData, error)
}

// Ranking runs and serves the sector ranking.
type Ranking interface {
	Run(ctx context.Context) (*ranking.Result, error)
	Latest() (*ranking.Result, error)
}

// Sender delivers a message, retrying transient failures.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Deps are the collaborators the scheduled jobs use. Notifier may be nil, in
// which case results are only logged.
type Deps struct {
	Data      MarketData
	Ranking   Ranking
	Notifier  Sender
	Policy    strategy.Policy
	Watchlist []string
	Log       zerolog.Logger
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron *cron.Cron
	Deps
	ctx context.Context
	log zerolog.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, deps Deps) *Scheduler {
	l := deps.Log.With().Str("component", "scheduler").Logger()
	cl := cron.PrintfLogger(&l)
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		Deps: deps,
		ctx:  ctx,
		log:  l,
	}
}

// RegisterAll registers the ranking refresh and the watchlist digest.
func (s *Scheduler) RegisterAll(rankingCron, digestCron string) error {
	if _, err := s.Cron.AddFunc(rankingCron, s.rankingTask); err != nil {
		return fmt.Errorf("register ranking task: %w", err)
	}
	if _, err := s.Cron.AddFunc(digestCron, s.digestTask); err != nil {
		return fmt.Errorf("register digest task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Int("jobs", len(s.Cron.Entries())).Msg("Scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("Scheduler stopped")
}

// RunRankingNow executes the ranking task immediately (for RUN_ON_START).
func (s *Scheduler) RunRankingNow() {
	s.rankingTask()
}

func (s *Scheduler) rankingTask() {
	s.log.Info().Msg("Running sector ranking")
	res, err := s.Ranking.Run(s.ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Sector ranking failed")
		s.trySend(fmt.Sprintf("❌ セクターランキング失敗: %v", err))
		return
	}
	s.trySend(notifier.FormatRanking(res))
}

func (s *Scheduler) digestTask() {
	if len(s.Watchlist) == 0 {
		return
	}
	s.log.Info().Int("symbols", len(s.Watchlist)).Msg("Running watchlist digest")

	entries := make([]notifier.DigestEntry, 0, len(s.Watchlist))
	for _, sym := range s.Watchlist {
		e := notifier.DigestEntry{Symbol: sym}
		data, err := s.Data.Collect(s.ctx, sym)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", sym).Msg("Digest collect failed")
			e.Err = err
		} else {
			rep := data.Analyze(s.Policy)
			e.Report = &rep
		}
		entries = append(entries, e)
	}
	s.trySend(notifier.FormatDigest(entries, time.Now()))
}

// HandleCommand processes a bot command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.HelpText
	}
	// Group chats append the bot name: /report@StockLensBot AAPL
	name, _, _ := strings.Cut(fields[0], "@")

	switch strings.ToLower(name) {
	case "/report":
		if len(fields) < 2 {
			return "使い方: /report SYMBOL"
		}
		data, err := s.Data.Collect(ctx, fields[1])
		if err != nil {
			return fmt.Sprintf("❌ %s: %v", fields[1], err)
		}
		return notifier.FormatReport(data.Analyze(s.Policy))
	case "/ranking":
		res, err := s.Ranking.Latest()
		if errors.Is(err, ranking.ErrNoResult) {
			res, err = s.Ranking.Run(ctx)
		}
		if err != nil {
			return fmt.Sprintf("❌ セクターランキング失敗: %v", err)
		}
		return notifier.FormatRanking(res)
	default:
		return notifier.HelpText
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		s.log.Debug().Msg("Telegram not configured, message dropped")
		return
	}
	if err := s.Notifier.SendWithRetry(s.ctx, text, sendRetries); err != nil {
		s.log.Error().Err(err).Msg("Send notification failed")
	}
}
