package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/observability/logging"
	"news-aggregator/internal/observability/metrics"
	"news-aggregator/internal/observability/tracing"
)

// DefaultFetchTimeout bounds one source fetch.
const DefaultFetchTimeout = 20 * time.Second

// FeedParser downloads and parses the feed at url.
type FeedParser interface {
	Parse(ctx context.Context, url string) ([]FeedItem, error)
}

// Result is the settled outcome of fetching one source.
// Err is non-nil exactly when the fetch failed; Articles is then empty.
type Result struct {
	Source   string
	Articles []*entity.Article
	Rejected int
	Duration time.Duration
	Err      error
}

// SourceFetcher fetches one named source with failure isolation: every
// failure, including a panic in the parser, ends up in Result.Err.
type SourceFetcher struct {
	parser  FeedParser
	timeout time.Duration
	now     func() time.Time
}

// NewSourceFetcher returns a fetcher that gives each fetch timeout to settle.
// A non-positive timeout selects DefaultFetchTimeout.
func NewSourceFetcher(parser FeedParser, timeout time.Duration) *SourceFetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &SourceFetcher{parser: parser, timeout: timeout, now: time.Now}
}

// WithClock replaces the processing-time source used for items without a
// publication time.
func (f *SourceFetcher) WithClock(now func() time.Time) *SourceFetcher {
	f.now = now
	return f
}

// Fetch downloads, parses and validates src. It never returns an error or
// panics past its boundary.
func (f *SourceFetcher) Fetch(ctx context.Context, src entity.Source) (res Result) {
	logger := logging.FromContext(ctx).With(slog.String("source", src.Name))
	start := time.Now()
	res.Source = src.Name

	ctx, span := tracing.GetTracer().Start(ctx, "fetch.source")
	span.SetAttributes(attribute.String("source.name", src.Name), attribute.String("source.url", src.FeedURL))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			res.Articles = nil
			res.Rejected = 0
			res.Err = fmt.Errorf("%w: %s: panic: %v", ErrFeedFetchFailed, src.Name, r)
		}

		res.Duration = time.Since(start)
		if res.Err != nil {
			span.RecordError(res.Err)
			span.SetStatus(codes.Error, "fetch failed")
			metrics.RecordSourceFetch(src.Name, metrics.ResultFailure, res.Duration)
			logger.Warn("failed to fetch feed",
				slog.String("feed_url", src.FeedURL),
				slog.Duration("duration", res.Duration),
				slog.Any("error", res.Err))
			return
		}

		result := metrics.ResultSuccess
		if len(res.Articles) == 0 {
			result = metrics.ResultEmpty
		}
		span.SetAttributes(attribute.Int("articles", len(res.Articles)), attribute.Int("rejected", res.Rejected))
		metrics.RecordSourceFetch(src.Name, result, res.Duration)
		logger.Info("source fetched",
			slog.Int("articles", len(res.Articles)),
			slog.Int("rejected", res.Rejected),
			slog.Duration("duration", res.Duration))
	}()

	items, err := f.parser.Parse(ctx, src.FeedURL)
	if err != nil {
		res.Err = fmt.Errorf("%w: %s: %w", ErrFeedFetchFailed, src.Name, err)
		return res
	}

	now := f.now()
	res.Articles = make([]*entity.Article, 0, len(items))
	for _, item := range items {
		art, ok := ToArticle(item, src.Name, now)
		if !ok {
			reason := RejectReason(item)
			res.Rejected++
			metrics.RecordItemRejected(src.Name, reason)
			logger.Debug("feed item rejected",
				slog.String("reason", reason),
				slog.String("link", item.Link))
			continue
		}
		res.Articles = append(res.Articles, art)
	}
	return res
}
