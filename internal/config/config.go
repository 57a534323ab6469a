package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"StockLens/internal/currency"
	"StockLens/internal/strategy"
)

// Bands are excellent/good/fair cut-offs, highest first.
type Bands struct {
	Excellent float64 `yaml:"excellent"`
	Good      float64 `yaml:"good"`
	Fair      float64 `yaml:"fair"`
}

// Config holds all application configuration.
type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	DataSource struct {
		Proxy             string  `yaml:"proxy"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		FallbackUSDJPY    float64 `yaml:"fallback_usdjpy"`
	} `yaml:"data_source"`
	Cache struct {
		Enabled *bool         `yaml:"enabled"`
		TTL     time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		RankingCron string `yaml:"ranking_cron"`
		DigestCron  string `yaml:"digest_cron"`
	} `yaml:"schedule"`
	Ranking struct {
		Sectors      map[string][]string `yaml:"sectors"`
		LookbackDays int                 `yaml:"lookback_days"`
		Concurrency  int                 `yaml:"concurrency"`
	} `yaml:"ranking"`
	Watchlist []string `yaml:"watchlist"`
	Policy    struct {
		Version           string `yaml:"version"` // v1 or v2
		ROA               *Bands `yaml:"roa"`
		Tiers             *Bands `yaml:"tiers"`
		SecondTierMinGood int    `yaml:"second_tier_min_good"`
	} `yaml:"policy"`
}

var defaultSectors = map[string][]string{
	"technology": {"AAPL", "MSFT", "NVDA"},
	"financials": {"JPM", "BAC"},
	"energy":     {"XOM", "CVX"},
	"automotive": {"7203.T", "7267.T"},
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env never overrides variables already set in the environment.
	_ = godotenv.Load()

	// Environment variable overrides
	if v := os.Getenv("HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.DataSource.Proxy = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if ttl, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = ttl
		}
	}
	if v := os.Getenv("FALLBACK_USDJPY"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.DataSource.FallbackUSDJPY = rate
		}
	}
	if v := os.Getenv("RANKING_CRON"); v != "" {
		cfg.Schedule.RankingCron = v
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.DataSource.RequestsPerSecond == 0 {
		c.DataSource.RequestsPerSecond = 2
	}
	if c.DataSource.FallbackUSDJPY == 0 {
		c.DataSource.FallbackUSDJPY = currency.DefaultUSDJPY
	}
	if c.Cache.Enabled == nil {
		on := true
		c.Cache.Enabled = &on
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 15 * time.Minute
	}
	if c.Schedule.RankingCron == "" {
		c.Schedule.RankingCron = "0 0 7 * * 1-5"
	}
	if c.Schedule.DigestCron == "" {
		c.Schedule.DigestCron = "0 30 7 * * 1-5"
	}
	if len(c.Ranking.Sectors) == 0 {
		c.Ranking.Sectors = defaultSectors
	}
	if c.Ranking.LookbackDays == 0 {
		c.Ranking.LookbackDays = 90
	}
	if c.Ranking.Concurrency == 0 {
		c.Ranking.Concurrency = 4
	}
}

// CacheEnabled reports whether collected data should be cached.
func (c *Config) CacheEnabled() bool {
	return c.Cache.Enabled == nil || *c.Cache.Enabled
}

// TelegramEnabled reports whether both Telegram credentials are present.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// ScoringPolicy builds the threshold policy from the base version plus
// overrides.
func (c *Config) ScoringPolicy() strategy.Policy {
	p := strategy.DefaultPolicy()
	if c.Policy.Version == "v1" {
		p = strategy.LegacyPolicy()
	}
	if b := c.Policy.ROA; b != nil {
		p = p.WithROA(b.Excellent, b.Good, b.Fair)
	}
	if b := c.Policy.Tiers; b != nil {
		p = p.WithTierThresholds(b.Excellent, b.Good, b.Fair)
	}
	if n := c.Policy.SecondTierMinGood; n > 0 {
		p.Suitability.SecondMinGoodOrBetter = n
	}
	return p
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1-65535, got %d", c.Server.Port)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	if c.DataSource.RequestsPerSecond <= 0 {
		return fmt.Errorf("data_source.requests_per_second must be positive")
	}
	if c.DataSource.FallbackUSDJPY <= 0 {
		return fmt.Errorf("data_source.fallback_usdjpy must be positive")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if v := c.Policy.Version; v != "" && v != "v1" && v != "v2" {
		return fmt.Errorf("policy.version must be v1 or v2, got %q", v)
	}
	if err := c.ScoringPolicy().Validate(); err != nil {
		return fmt.Errorf("policy: %w", err)
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	for name, spec := range map[string]string{
		"schedule.ranking_cron": c.Schedule.RankingCron,
		"schedule.digest_cron":  c.Schedule.DigestCron,
	} {
		if _, err := parser.Parse(spec); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	for sector, symbols := range c.Ranking.Sectors {
		if len(symbols) == 0 {
			return fmt.Errorf("ranking.sectors.%s has no symbols", sector)
		}
	}
	return nil
}
