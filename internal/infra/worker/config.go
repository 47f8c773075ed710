package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
	_ "time/tzdata"

	"news-aggregator/internal/pkg/config"
)

// WorkerConfig holds the configuration of the scheduled refresh worker.
//
// Environment variables:
//   - REFRESH_CRON: cron expression (default "*/30 * * * *")
//   - WORKER_TIMEZONE: IANA timezone for the schedule (default "Africa/Addis_Ababa")
//   - REFRESH_TIMEOUT: upper bound of one scheduled run (default 5m, range 10s-1h)
//   - HEALTH_PORT: port of the health and metrics server (default 9091)
//   - REFRESH_ON_START: run once before the first tick (default true)
type WorkerConfig struct {
	CronSchedule   string
	Timezone       string
	RefreshTimeout time.Duration
	HealthPort     int
	RunOnStart     bool
}

// DefaultConfig returns the configuration used when no environment is set.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CronSchedule:   "*/30 * * * *",
		Timezone:       "Africa/Addis_Ababa",
		RefreshTimeout: 5 * time.Minute,
		HealthPort:     9091,
		RunOnStart:     true,
	}
}

// Validate checks every field and reports all problems at once.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateDuration(c.RefreshTimeout, 10*time.Second, time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("refresh timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// Location resolves Timezone, falling back to UTC.
func (c *WorkerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LoadConfigFromEnv loads the worker configuration with the fail-open
// strategy: every invalid value is replaced by its default, logged and
// counted in metrics. The returned configuration is always valid.
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) *WorkerConfig {
	cfg := DefaultConfig()
	c := config.NewCollector(logger)

	cfg.CronSchedule = config.Collect(c, "cron_schedule",
		config.LoadEnvWithFallback("REFRESH_CRON", cfg.CronSchedule, config.ValidateCronSchedule))
	cfg.Timezone = config.Collect(c, "timezone",
		config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone))
	cfg.RefreshTimeout = config.Collect(c, "refresh_timeout",
		config.LoadEnvDuration("REFRESH_TIMEOUT", cfg.RefreshTimeout, config.DurationRange(10*time.Second, time.Hour)))
	cfg.HealthPort = config.Collect(c, "health_port",
		config.LoadEnvInt("HEALTH_PORT", cfg.HealthPort, config.IntRange(1024, 65535)))
	cfg.RunOnStart = config.Collect(c, "run_on_start",
		config.LoadEnvBool("REFRESH_ON_START", cfg.RunOnStart))

	if metrics != nil {
		metrics.Observe(c.Fallbacks())
	}
	return &cfg
}
