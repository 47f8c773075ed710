// Package db opens the PostgreSQL article cache and manages its schema.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"news-aggregator/internal/pkg/config"
)

// ErrMissingDSN is returned by Open when no connection string is configured.
var ErrMissingDSN = errors.New("database url not set")

// ConnectionConfig holds database connection pool configuration.
type ConnectionConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// DefaultConnectionConfig returns the pool settings used when no override is set.
// The cache sees one writer per source during a refresh plus API readers.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxOpenConns:    16,
		MaxIdleConns:    8,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
		PingTimeout:     5 * time.Second,
	}
}

// ConnectionConfigFromEnv overlays DB_* environment variables on the defaults.
// Invalid values fall back to the default and are reported as warnings.
func ConnectionConfigFromEnv() (ConnectionConfig, []string) {
	cfg := DefaultConnectionConfig()
	var warnings []string

	maxOpen := config.LoadEnvInt("DB_MAX_OPEN_CONNS", cfg.MaxOpenConns, config.IntRange(1, 500))
	maxIdle := config.LoadEnvInt("DB_MAX_IDLE_CONNS", cfg.MaxIdleConns, config.IntRange(0, 500))
	lifetime := config.LoadEnvDuration("DB_CONN_MAX_LIFETIME", cfg.ConnMaxLifetime, config.ValidatePositiveDuration)
	idle := config.LoadEnvDuration("DB_CONN_MAX_IDLE_TIME", cfg.ConnMaxIdleTime, config.ValidatePositiveDuration)

	cfg.MaxOpenConns = maxOpen.Value
	cfg.MaxIdleConns = maxIdle.Value
	cfg.ConnMaxLifetime = lifetime.Value
	cfg.ConnMaxIdleTime = idle.Value
	warnings = append(warnings, maxOpen.Warnings...)
	warnings = append(warnings, maxIdle.Warnings...)
	warnings = append(warnings, lifetime.Warnings...)
	warnings = append(warnings, idle.Warnings...)

	if cfg.MaxIdleConns > cfg.MaxOpenConns {
		cfg.MaxIdleConns = cfg.MaxOpenConns
	}
	return cfg, warnings
}

// Open connects to PostgreSQL through the pgx stdlib driver, applies the pool
// settings and verifies the connection with a ping.
func Open(ctx context.Context, dsn string, cfg ConnectionConfig) (*sql.DB, error) {
	if dsn == "" {
		return nil, ErrMissingDSN
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("Open: sql.Open: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	slog.Info("database connection pool configured",
		slog.Int("max_open_conns", cfg.MaxOpenConns),
		slog.Int("max_idle_conns", cfg.MaxIdleConns),
		slog.Duration("conn_max_lifetime", cfg.ConnMaxLifetime),
		slog.Duration("conn_max_idle_time", cfg.ConnMaxIdleTime))

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = DefaultConnectionConfig().PingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("Open: ping: %w", err)
	}

	slog.Info("database connection established successfully")
	return db, nil
}
