package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/observability/logging"
	"news-aggregator/internal/observability/metrics"
	"news-aggregator/internal/observability/tracing"
	"news-aggregator/internal/repository"
)

// DefaultParallelism is the number of sources fetched at once.
const DefaultParallelism = 8

// Policy decides what a refresh does when some sources fail.
type Policy string

const (
	// PolicyBestEffort replaces every source that succeeded and reports the
	// failures without returning an error.
	PolicyBestEffort Policy = "best_effort"
	// PolicyAllOrNothing writes nothing and returns ErrRefreshFailed when any
	// selected source failed.
	PolicyAllOrNothing Policy = "all_or_nothing"
)

// ParsePolicy maps a REFRESH_POLICY value to a Policy. Empty selects best effort.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyBestEffort:
		return PolicyBestEffort, nil
	case PolicyAllOrNothing:
		return PolicyAllOrNothing, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
	}
}

// Fetcher fetches one source. *SourceFetcher is the production implementation.
type Fetcher interface {
	Fetch(ctx context.Context, src entity.Source) Result
}

// Config tunes the coordinator.
type Config struct {
	Policy      Policy
	Parallelism int
}

// Outcome is what a refresh did with one source.
type Outcome string

const (
	OutcomeReplaced    Outcome = "replaced"
	OutcomeEmpty       Outcome = "empty"        // fetched nothing; cache kept
	OutcomeFailed      Outcome = "failed"       // fetch failed; cache kept
	OutcomeSkipped     Outcome = "skipped"      // not written because the run aborted
	OutcomeStoreFailed Outcome = "store_failed" // fetched but the replace failed
)

// SourceReport describes one source in a RefreshReport.
type SourceReport struct {
	Source   string        `json:"source"`
	Outcome  Outcome       `json:"outcome"`
	Articles int           `json:"articles"`
	Rejected int           `json:"rejected"`
	Duration time.Duration `json:"duration_ns"`
	Error    string        `json:"error,omitempty"`

	err error
}

// Err returns the fetch or store error of the source, if any.
func (r SourceReport) Err() error { return r.err }

// RefreshReport summarizes a refresh run. Sources are in registry order.
type RefreshReport struct {
	RunID    string         `json:"run_id"`
	Policy   Policy         `json:"policy"`
	Started  time.Time      `json:"started_at"`
	Duration time.Duration  `json:"duration_ns"`
	Sources  []SourceReport `json:"sources"`
}

// Failed returns the sources whose fetch failed.
func (r *RefreshReport) Failed() []SourceReport {
	return r.filter(OutcomeFailed)
}

// Replaced returns the sources whose rows were replaced.
func (r *RefreshReport) Replaced() []SourceReport {
	return r.filter(OutcomeReplaced)
}

func (r *RefreshReport) filter(o Outcome) []SourceReport {
	var out []SourceReport
	for _, s := range r.Sources {
		if s.Outcome == o {
			out = append(out, s)
		}
	}
	return out
}

// Service is the aggregation coordinator.
type Service struct {
	registry *entity.Registry
	fetcher  Fetcher
	store    repository.ArticleRepository
	cfg      Config
}

// NewService wires the coordinator. Zero Config fields take their defaults.
func NewService(registry *entity.Registry, fetcher Fetcher, store repository.ArticleRepository, cfg Config) *Service {
	if cfg.Policy == "" {
		cfg.Policy = PolicyBestEffort
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = DefaultParallelism
	}
	return &Service{registry: registry, fetcher: fetcher, store: store, cfg: cfg}
}

// Policy returns the configured failure policy.
func (s *Service) Policy() Policy { return s.cfg.Policy }

// Refresh fetches every registered source named in selected concurrently,
// waits for all of them to settle and then replaces the cached rows of each
// source that returned at least one article. Failed and empty sources keep
// their previous rows.
//
// Under PolicyAllOrNothing any failed source aborts the run before the first
// write and the error wraps ErrRefreshFailed. Store failures always return an
// error wrapping ErrStoreFailed; the remaining replaces still run. The report
// is returned in every case.
func (s *Service) Refresh(ctx context.Context, selected []string) (*RefreshReport, error) {
	report := &RefreshReport{
		RunID:   uuid.NewString(),
		Policy:  s.cfg.Policy,
		Started: time.Now(),
	}
	logger := logging.FromContext(ctx).With(slog.String("run_id", report.RunID))
	ctx = logging.WithLogger(ctx, logger)

	ctx, span := tracing.GetTracer().Start(ctx, "fetch.refresh")
	defer span.End()

	sources := s.registry.Select(selected)
	span.SetAttributes(
		attribute.String("refresh.run_id", report.RunID),
		attribute.String("refresh.policy", string(s.cfg.Policy)),
		attribute.Int("refresh.sources", len(sources)),
	)

	results := make([]Result, len(sources))
	var g errgroup.Group
	g.SetLimit(s.cfg.Parallelism)
	for i, src := range sources {
		g.Go(func() error {
			res := s.fetcher.Fetch(ctx, src)
			res.Source = src.Name
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	report.Sources = make([]SourceReport, len(results))
	var firstFailure *Result
	for i := range results {
		r := &results[i]
		sr := SourceReport{
			Source:   r.Source,
			Rejected: r.Rejected,
			Duration: r.Duration,
		}
		switch {
		case r.Err != nil:
			sr.Outcome, sr.err, sr.Error = OutcomeFailed, r.Err, r.Err.Error()
			if firstFailure == nil {
				firstFailure = r
			}
		case len(r.Articles) == 0:
			sr.Outcome = OutcomeEmpty
		default:
			sr.Outcome, sr.Articles = OutcomeSkipped, len(r.Articles)
		}
		report.Sources[i] = sr
	}

	finish := func(result string, err error) (*RefreshReport, error) {
		report.Duration = time.Since(report.Started)
		metrics.RecordRefresh(string(s.cfg.Policy), result, report.Duration)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, result)
		}
		logger.Info("refresh completed",
			slog.String("policy", string(s.cfg.Policy)),
			slog.String("result", result),
			slog.Int("sources", len(sources)),
			slog.Int("replaced", len(report.Replaced())),
			slog.Int("failed", len(report.Failed())),
			slog.Duration("duration", report.Duration))
		return report, err
	}

	if err := ctx.Err(); err != nil {
		return finish(metrics.ResultAborted, fmt.Errorf("Refresh: %w", err))
	}

	if firstFailure != nil && s.cfg.Policy == PolicyAllOrNothing {
		return finish(metrics.ResultAborted,
			fmt.Errorf("Refresh: %w: %s: %w", ErrRefreshFailed, firstFailure.Source, firstFailure.Err))
	}

	var storeErrs []error
	for i := range results {
		r := &results[i]
		if report.Sources[i].Outcome != OutcomeSkipped {
			continue
		}
		if err := s.store.ReplaceBySource(ctx, r.Source, r.Articles); err != nil {
			metrics.RecordStoreError("replace_by_source")
			logger.Error("failed to replace source articles",
				slog.String("source", r.Source),
				slog.Any("error", err))
			err = fmt.Errorf("%s: %w", r.Source, err)
			report.Sources[i].Outcome = OutcomeStoreFailed
			report.Sources[i].err, report.Sources[i].Error = err, err.Error()
			storeErrs = append(storeErrs, err)
			continue
		}
		report.Sources[i].Outcome = OutcomeReplaced
		metrics.RecordReplace(r.Source, len(r.Articles))
	}

	if n, err := s.store.Count(ctx); err == nil {
		metrics.UpdateArticlesCached(n)
	}

	if len(storeErrs) > 0 {
		return finish(metrics.ResultFailure,
			fmt.Errorf("Refresh: %w: %w", ErrStoreFailed, errors.Join(storeErrs...)))
	}
	if firstFailure != nil {
		return finish(metrics.ResultPartial, nil)
	}
	return finish(metrics.ResultSuccess, nil)
}
