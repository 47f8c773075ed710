package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"news-aggregator/internal/app"
	"news-aggregator/internal/config"
	"news-aggregator/internal/infra/worker"
	"news-aggregator/internal/observability/logging"
	"news-aggregator/internal/observability/tracing"
	"news-aggregator/internal/usecase/fetch"
	"news-aggregator/internal/usecase/session"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := tracing.Setup("news-aggregator-worker", nil)
	defer func() { _ = shutdownTracing(context.Background()) }()

	workerMetrics := worker.NewWorkerMetrics()
	workerConfig := worker.LoadConfigFromEnv(logger, workerMetrics)
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Duration("refresh_timeout", workerConfig.RefreshTimeout),
		slog.Int("health_port", workerConfig.HealthPort),
		slog.Bool("run_on_start", workerConfig.RunOnStart))

	cfg := config.Load(logger, nil)
	components, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize components", slog.Any("error", err))
		os.Exit(1)
	}
	defer components.Close(logger)
	if components.DB == nil {
		logger.Warn("worker is refreshing an in-memory cache that no other process can read")
	}

	ctx = logging.WithLogger(ctx, logger)
	sess, err := components.NewSession(ctx, cfg)
	if err != nil {
		logger.Error("failed to start session", slog.Any("error", err))
		os.Exit(1)
	}
	defer sess.Close()

	healthServer := worker.NewHealthServer(fmt.Sprintf(":%d", workerConfig.HealthPort), logger)
	healthServer.AddCheck("backends", components.Ping)
	healthServer.Handle("/metrics", promhttp.Handler())
	healthServer.Handle("/health/feeds", feedHealthHandler(components.Parser.Breakers()))
	go func() {
		if err := healthServer.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	job := worker.NewJob(refreshFunc(sess), workerConfig.RefreshTimeout, workerMetrics, logger)
	scheduler, err := worker.NewScheduler(ctx, workerConfig.CronSchedule, workerConfig.Location(), job)
	if err != nil {
		logger.Error("failed to add cron job", slog.Any("error", err))
		os.Exit(1)
	}

	if workerConfig.RunOnStart {
		go func() { _, _ = job.Run(ctx) }()
	}
	scheduler.Start()
	healthServer.SetReady(true)
	logger.Info("worker started",
		slog.String("schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone))

	<-ctx.Done()
	logger.Info("worker shutting down")
	healthServer.SetReady(false)
	<-scheduler.Stop().Done()
	logger.Info("worker stopped")
}

// refreshFunc refreshes the persisted selection through the session, so a
// run started while another refresh is in flight is reported as skipped.
func refreshFunc(sess *session.Session) worker.RefreshFunc {
	return func(ctx context.Context) (*fetch.RefreshReport, error) {
		report, err := sess.RefreshAndWait(ctx)
		if errors.Is(err, session.ErrRefreshInProgress) {
			return nil, fmt.Errorf("%w: %w", worker.ErrRunSkipped, err)
		}
		return report, err
	}
}
