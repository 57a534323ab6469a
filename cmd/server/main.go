package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	finance "github.com/piquette/finance-go"

	"StockLens/internal/cache"
	"StockLens/internal/collector"
	"StockLens/internal/config"
	"StockLens/internal/logger"
	"StockLens/internal/notifier"
	"StockLens/internal/ranking"
	"StockLens/internal/scheduler"
	"StockLens/internal/server"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		l := logger.New(logger.Config{})
		l.Fatal().Err(err).Msg("Load config")
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Config validation")
	}
	log.Info().Str("config", cfgPath).Msg("StockLens starting")

	policy := cfg.ScoringPolicy()

	// Init fetcher
	fetcher := collector.NewYahooFetcher(
		collector.WithLogger(log.With().Str("component", "yahoo").Logger()),
		collector.WithProxy(cfg.DataSource.Proxy),
		collector.WithRateLimit(cfg.DataSource.RequestsPerSecond),
		collector.WithFallbackRate(cfg.DataSource.FallbackUSDJPY),
	)
	// finance-go keeps a package-level client; route its quote lookups
	// through the same proxy as the fetcher.
	finance.SetHTTPClient(fetcher.HTTPClient())

	// Init cache
	var store cache.Cache = cache.Nop{}
	if cfg.CacheEnabled() {
		b, err := cache.NewBadger(cfg.Cache.TTL, log)
		if err != nil {
			log.Warn().Err(err).Msg("Init cache failed, running without cache")
		} else {
			store = b
		}
	}
	defer store.Close()

	col := collector.NewCollector(fetcher, store, log)
	ranker := ranking.New(col, ranking.Config{
		Sectors:      cfg.Ranking.Sectors,
		LookbackDays: cfg.Ranking.LookbackDays,
		Concurrency:  cfg.Ranking.Concurrency,
	}, log)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Telegram notifier
	deps := scheduler.Deps{
		Data:      col,
		Ranking:   ranker,
		Policy:    policy,
		Watchlist: cfg.Watchlist,
		Log:       log,
	}
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.DataSource.Proxy, log)
		deps.Notifier = tn
	} else {
		log.Info().Msg("Telegram not configured, notifications disabled")
	}

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, deps)
	if err := sched.RegisterAll(cfg.Schedule.RankingCron, cfg.Schedule.DigestCron); err != nil {
		log.Fatal().Err(err).Msg("Register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("Telegram polling started")
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, running sector ranking now")
		go sched.RunRankingNow()
	}

	srv := server.New(server.Config{
		Port:    cfg.Server.Port,
		Log:     log,
		Data:    col,
		Ranking: ranker,
		Policy:  policy,
		DevMode: cfg.Log.Pretty,
	})
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("Shutdown signal received, stopping")
	cancel()
	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown")
	}
	log.Info().Msg("StockLens stopped")
}
