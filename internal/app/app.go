// Package app wires the components shared by the api and worker binaries
// from a loaded configuration.
package app

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"news-aggregator/internal/config"
	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/infra/adapter/persistence/memory"
	"news-aggregator/internal/infra/adapter/persistence/postgres"
	"news-aggregator/internal/infra/db"
	"news-aggregator/internal/infra/scraper"
	"news-aggregator/internal/infra/settings"
	"news-aggregator/internal/repository"
	"news-aggregator/internal/usecase/article"
	"news-aggregator/internal/usecase/fetch"
	"news-aggregator/internal/usecase/session"
)

// Components holds everything a binary needs to run a Session.
type Components struct {
	Registry *entity.Registry
	Store    *article.LiveStore
	Settings repository.SettingsRepository
	Parser   *scraper.RSSParser
	Service  *fetch.Service

	// DB and Redis are nil when the corresponding backend is not configured.
	DB    *sql.DB
	Redis *redis.Client
}

// Build opens the configured backends. Close must be called on the result
// even when only part of it is used.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Components, error) {
	registry, err := config.LoadSources(cfg.SourcesFile)
	if err != nil {
		return nil, fmt.Errorf("Build: sources: %w", err)
	}
	c := &Components{Registry: registry}

	repo, err := c.openStore(ctx, cfg, logger)
	if err != nil {
		c.Close(logger)
		return nil, err
	}
	c.Store = article.NewLiveStore(repo)

	if c.Settings, err = c.openSettings(ctx, cfg, logger); err != nil {
		c.Close(logger)
		return nil, err
	}

	c.Parser = scraper.NewRSSParser(newHTTPClient())
	c.Service = fetch.NewService(registry,
		fetch.NewSourceFetcher(c.Parser, cfg.FetchTimeout),
		c.Store,
		fetch.Config{Policy: cfg.RefreshPolicy, Parallelism: cfg.FetchParallelism})

	logger.Info("components initialized",
		slog.Int("sources", len(registry.Sources())),
		slog.String("policy", string(cfg.RefreshPolicy)),
		slog.Int("parallelism", cfg.FetchParallelism))
	return c, nil
}

func (c *Components) openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (repository.ArticleRepository, error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, caching articles in memory")
		return memory.NewArticleRepo(), nil
	}

	poolCfg, warnings := db.ConnectionConfigFromEnv()
	for _, w := range warnings {
		logger.Warn("Configuration fallback applied", slog.String("warning", w))
	}
	database, err := db.Open(ctx, cfg.DatabaseURL, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("Build: database: %w", err)
	}
	c.DB = database
	if err := db.MigrateUp(ctx, database); err != nil {
		return nil, fmt.Errorf("Build: migrate: %w", err)
	}
	return postgres.NewArticleRepo(database), nil
}

func (c *Components) openSettings(ctx context.Context, cfg config.Config, logger *slog.Logger) (repository.SettingsRepository, error) {
	if cfg.SettingsBackend != config.SettingsBackendRedis {
		logger.Info("settings stored in file", slog.String("path", cfg.SettingsFile))
		return settings.NewFileStore(cfg.SettingsFile), nil
	}

	c.Redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	store := settings.NewRedisStore(c.Redis, settings.DefaultKeyPrefix)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("Build: redis: %w", err)
	}
	logger.Info("settings stored in redis", slog.String("addr", cfg.RedisAddr), slog.Int("db", cfg.RedisDB))
	return store, nil
}

// NewSession starts a session over the components.
func (c *Components) NewSession(ctx context.Context, cfg config.Config) (*session.Session, error) {
	return session.New(ctx, session.Config{
		Registry:  c.Registry,
		Store:     c.Store,
		Settings:  c.Settings,
		Refresher: c.Service,
		View:      article.ViewConfig{Debounce: cfg.SearchDebounce},
	})
}

// FollowChanges keeps the live store in step with writes made by other
// processes until ctx ends: a postgres change listener when the database is
// configured, plus a periodic resync when cfg.LiveResync is positive.
func (c *Components) FollowChanges(ctx context.Context, cfg config.Config, logger *slog.Logger) {
	if c.DB != nil {
		listener := postgres.DialChangeListener(cfg.DatabaseURL, logger)
		go func() {
			err := listener.Run(ctx, func(sources []string) { c.Store.Invalidate(sources...) })
			if err != nil {
				logger.Error("change listener stopped, relying on resync", slog.Any("error", err))
			}
		}()
	}
	if cfg.LiveResync > 0 {
		go c.Store.Resync(ctx, cfg.LiveResync)
	}
}

// Ping checks the external backends that are configured.
func (c *Components) Ping(ctx context.Context) error {
	var errs []error
	if c.DB != nil {
		if err := c.DB.PingContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Ping(ctx).Err(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Close releases the backends that were opened.
func (c *Components) Close(logger *slog.Logger) {
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logger.Error("failed to close redis", slog.Any("error", err))
		}
	}
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}
