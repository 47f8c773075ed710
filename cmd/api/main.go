package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"news-aggregator/internal/app"
	"news-aggregator/internal/config"
	hhttp "news-aggregator/internal/handler/http"
	"news-aggregator/internal/infra/worker"
	"news-aggregator/internal/observability/logging"
	"news-aggregator/internal/observability/tracing"
	pkgconfig "news-aggregator/internal/pkg/config"
	"news-aggregator/internal/usecase/fetch"
	"news-aggregator/internal/usecase/session"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithLogger(ctx, logger)

	shutdownTracing := tracing.Setup("news-aggregator-api", nil)
	defer func() { _ = shutdownTracing(context.Background()) }()

	cfg := config.Load(logger, pkgconfig.NewConfigMetrics("api"))
	version := getVersion()

	components, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize components", slog.Any("error", err))
		os.Exit(1)
	}
	defer components.Close(logger)

	sess, err := components.NewSession(ctx, cfg)
	if err != nil {
		logger.Error("failed to start session", slog.Any("error", err))
		os.Exit(1)
	}
	defer sess.Close()
	components.FollowChanges(ctx, cfg, logger)

	if cfg.RefreshOnStart {
		if err := sess.Refresh(); err != nil {
			logger.Warn("initial refresh not started", slog.Any("error", err))
		}
	}

	if cfg.RefreshCron != "" {
		scheduler, err := startScheduler(ctx, cfg, sess, logger)
		if err != nil {
			logger.Error("failed to schedule refreshes", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { <-scheduler.Stop().Done() }()
	}

	router := hhttp.NewRouter(hhttp.Config{
		Session:        sess,
		Logger:         logger,
		Version:        version,
		RefreshLimiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RefreshRateLimit)), cfg.RefreshRateLimit),
		Checks:         map[string]hhttp.Check{"backends": components.Ping},
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		// Event streams end with ctx, so Shutdown does not wait on them.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	runServer(ctx, logger, srv, cfg.ShutdownTimeout, version)
}

// startScheduler runs in-process background refreshes. Ticks that land on
// a refresh already started by a reader are skipped.
func startScheduler(ctx context.Context, cfg config.Config, sess *session.Session, logger *slog.Logger) (*cron.Cron, error) {
	job := worker.NewJob(func(ctx context.Context) (*fetch.RefreshReport, error) {
		report, err := sess.RefreshAndWait(ctx)
		if errors.Is(err, session.ErrRefreshInProgress) {
			return nil, fmt.Errorf("%w: %w", worker.ErrRunSkipped, err)
		}
		return report, err
	}, 5*time.Minute, nil, logger)

	c, err := worker.NewScheduler(ctx, cfg.RefreshCron, time.Local, job)
	if err != nil {
		return nil, err
	}
	c.Start()
	logger.Info("background refresh scheduled", slog.String("schedule", cfg.RefreshCron))
	return c, nil
}

func runServer(ctx context.Context, logger *slog.Logger, srv *http.Server, shutdownTimeout time.Duration, version string) {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", srv.Addr), slog.String("version", version))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		return
	}
	logger.Info("server stopped")
}

func getVersion() string {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	return version
}
