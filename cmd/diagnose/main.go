// Command diagnose fetches every configured feed once and reports which
// sources are healthy, empty or failing, without touching the cache.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"news-aggregator/internal/config"
	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/infra/scraper"
	"news-aggregator/internal/observability/logging"
	"news-aggregator/internal/resilience/retry"
	"news-aggregator/internal/usecase/fetch"
)

func main() {
	sourcesFile := flag.String("sources", os.Getenv("SOURCES_FILE"), "YAML source registry (default: built-in sources)")
	format := flag.String("format", "markdown", "output format: markdown or json")
	timeout := flag.Duration("timeout", 20*time.Second, "per-feed timeout")
	flag.Parse()

	logger := logging.NewLogger()
	slog.SetDefault(logger)

	registry, err := config.LoadSources(*sourcesFile)
	if err != nil {
		logger.Error("failed to load sources", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// One attempt per feed: the report should show what a single refresh sees.
	parser := scraper.NewRSSParser(nil, scraper.WithRetryConfig(retry.Config{MaxAttempts: 1}))
	fetcher := fetch.NewSourceFetcher(parser, *timeout)

	sources := registry.Sources()
	diags := diagnose(ctx, sources, fetcher, func(i int, src entity.Source) {
		logger.Info("diagnosing feed",
			slog.Int("index", i+1),
			slog.Int("total", len(sources)),
			slog.String("source", src.Name))
	})

	write := writeMarkdown
	if *format == "json" {
		write = writeJSON
	}
	if err := write(os.Stdout, diags); err != nil {
		logger.Error("failed to write report", slog.Any("error", err))
		os.Exit(1)
	}
}
