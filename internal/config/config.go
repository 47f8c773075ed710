package config

import (
	"log/slog"
	"time"

	pkgconfig "news-aggregator/internal/pkg/config"
	"news-aggregator/internal/usecase/article"
	"news-aggregator/internal/usecase/fetch"
)

// Settings backends.
const (
	SettingsBackendFile  = "file"
	SettingsBackendRedis = "redis"
)

// Config is the runtime configuration of the API process.
type Config struct {
	// DatabaseURL selects the postgres store; empty keeps articles in memory.
	DatabaseURL string
	// SourcesFile overrides DefaultSources with a YAML registry.
	SourcesFile string

	SettingsBackend string
	SettingsFile    string
	RedisAddr       string
	RedisDB         int

	RefreshPolicy    fetch.Policy
	FetchTimeout     time.Duration
	FetchParallelism int
	SearchDebounce   time.Duration

	// RefreshCron schedules background refreshes inside the API process.
	// Empty disables them; the worker binary usually owns the schedule.
	RefreshCron    string
	RefreshOnStart bool
	// LiveResync re-reads the store for open live views at this interval,
	// catching writes from other processes that no notification reported.
	LiveResync time.Duration

	HTTPAddr string
	// RefreshRateLimit is the number of manual refreshes allowed per minute.
	RefreshRateLimit int
	ShutdownTimeout  time.Duration
}

// Default returns the configuration used when no environment is set.
func Default() Config {
	return Config{
		SettingsBackend:  SettingsBackendFile,
		SettingsFile:     "data/settings.yaml",
		RedisAddr:        "localhost:6379",
		RefreshPolicy:    fetch.PolicyBestEffort,
		FetchTimeout:     fetch.DefaultFetchTimeout,
		FetchParallelism: fetch.DefaultParallelism,
		SearchDebounce:   article.DefaultDebounce,
		RefreshOnStart:   true,
		LiveResync:       time.Minute,
		HTTPAddr:         ":8080",
		RefreshRateLimit: 6,
		ShutdownTimeout:  10 * time.Second,
	}
}

// Load reads the configuration from the environment. Invalid values fall
// back to their defaults with a warning; Load never fails. metrics may be nil.
func Load(logger *slog.Logger, metrics *pkgconfig.ConfigMetrics) Config {
	cfg := Default()
	c := pkgconfig.NewCollector(logger)

	cfg.DatabaseURL = pkgconfig.LoadEnvString("DATABASE_URL", cfg.DatabaseURL)
	cfg.SourcesFile = pkgconfig.LoadEnvString("SOURCES_FILE", cfg.SourcesFile)

	cfg.SettingsBackend = pkgconfig.Collect(c, "settings_backend",
		pkgconfig.LoadEnvWithFallback("SETTINGS_BACKEND", cfg.SettingsBackend,
			pkgconfig.OneOf(SettingsBackendFile, SettingsBackendRedis)))
	cfg.SettingsFile = pkgconfig.LoadEnvString("SETTINGS_FILE", cfg.SettingsFile)
	cfg.RedisAddr = pkgconfig.Collect(c, "redis_addr",
		pkgconfig.LoadEnvWithFallback("REDIS_ADDR", cfg.RedisAddr, pkgconfig.ValidateHostPort))
	cfg.RedisDB = pkgconfig.Collect(c, "redis_db",
		pkgconfig.LoadEnvInt("REDIS_DB", cfg.RedisDB, pkgconfig.IntRange(0, 15)))

	policy := pkgconfig.Collect(c, "refresh_policy",
		pkgconfig.LoadEnvWithFallback("REFRESH_POLICY", string(cfg.RefreshPolicy), func(s string) error {
			_, err := fetch.ParsePolicy(s)
			return err
		}))
	cfg.RefreshPolicy, _ = fetch.ParsePolicy(policy)

	cfg.FetchTimeout = pkgconfig.Collect(c, "fetch_timeout",
		pkgconfig.LoadEnvDuration("FETCH_TIMEOUT", cfg.FetchTimeout,
			pkgconfig.DurationRange(time.Second, 5*time.Minute)))
	cfg.FetchParallelism = pkgconfig.Collect(c, "fetch_parallelism",
		pkgconfig.LoadEnvInt("FETCH_PARALLELISM", cfg.FetchParallelism, pkgconfig.IntRange(1, 64)))
	cfg.SearchDebounce = pkgconfig.Collect(c, "search_debounce",
		pkgconfig.LoadEnvDuration("SEARCH_DEBOUNCE", cfg.SearchDebounce,
			pkgconfig.DurationRange(time.Millisecond, 5*time.Second)))

	cfg.RefreshCron = pkgconfig.Collect(c, "refresh_cron",
		pkgconfig.LoadEnvWithFallback("REFRESH_CRON", cfg.RefreshCron, pkgconfig.ValidateCronSchedule))
	cfg.RefreshOnStart = pkgconfig.Collect(c, "refresh_on_start",
		pkgconfig.LoadEnvBool("REFRESH_ON_START", cfg.RefreshOnStart))

	cfg.LiveResync = pkgconfig.Collect(c, "live_resync_interval",
		pkgconfig.LoadEnvDuration("LIVE_RESYNC_INTERVAL", cfg.LiveResync,
			pkgconfig.DurationRange(time.Second, time.Hour)))

	cfg.HTTPAddr = pkgconfig.Collect(c, "http_addr",
		pkgconfig.LoadEnvWithFallback("HTTP_ADDR", cfg.HTTPAddr, pkgconfig.ValidateHostPort))
	cfg.RefreshRateLimit = pkgconfig.Collect(c, "refresh_rate_limit",
		pkgconfig.LoadEnvInt("REFRESH_RATE_LIMIT", cfg.RefreshRateLimit, pkgconfig.IntRange(1, 600)))
	cfg.ShutdownTimeout = pkgconfig.Collect(c, "shutdown_timeout",
		pkgconfig.LoadEnvDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout,
			pkgconfig.DurationRange(time.Second, 2*time.Minute)))

	if metrics != nil {
		metrics.Observe(c.Fallbacks())
	}
	return cfg
}
