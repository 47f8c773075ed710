package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"news-aggregator/internal/usecase/fetch"
)

// ErrRunSkipped is returned when a run is requested while another one is
// still in progress.
var ErrRunSkipped = errors.New("refresh run skipped: previous run still in progress")

// RefreshFunc performs one refresh.
type RefreshFunc func(ctx context.Context) (*fetch.RefreshReport, error)

// Job runs scheduled refreshes one at a time with a per-run timeout.
type Job struct {
	refresh RefreshFunc
	timeout time.Duration
	metrics *WorkerMetrics
	logger  *slog.Logger
	running atomic.Bool
}

// NewJob wraps refresh. metrics may be nil.
func NewJob(refresh RefreshFunc, timeout time.Duration, metrics *WorkerMetrics, logger *slog.Logger) *Job {
	return &Job{refresh: refresh, timeout: timeout, metrics: metrics, logger: logger}
}

// Run performs one refresh, or returns ErrRunSkipped when a run is in flight.
func (j *Job) Run(ctx context.Context) (*fetch.RefreshReport, error) {
	if !j.running.CompareAndSwap(false, true) {
		j.logger.Warn("refresh skipped, previous run still in progress")
		j.record(StatusSkipped, 0, nil)
		return nil, ErrRunSkipped
	}
	defer j.running.Store(false)

	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	start := time.Now()
	j.logger.Info("scheduled refresh started")
	report, err := j.refresh(ctx)
	status := RunStatus(report, err)
	j.record(status, time.Since(start).Seconds(), report)

	attrs := []any{
		slog.String("status", status),
		slog.Duration("duration", time.Since(start)),
	}
	if report != nil {
		attrs = append(attrs,
			slog.String("run_id", report.RunID),
			slog.Int("replaced", len(report.Replaced())),
			slog.Int("failed", len(report.Failed())))
	}
	if err != nil {
		j.logger.Error("scheduled refresh failed", append(attrs, slog.Any("error", err))...)
		return report, err
	}
	j.logger.Info("scheduled refresh completed", attrs...)
	return report, nil
}

func (j *Job) record(status string, seconds float64, report *fetch.RefreshReport) {
	if j.metrics != nil {
		j.metrics.RecordRun(status, seconds, report)
	}
}

// RunStatus classifies a finished run for metrics.
func RunStatus(report *fetch.RefreshReport, err error) string {
	switch {
	case errors.Is(err, ErrRunSkipped):
		return StatusSkipped
	case err != nil, report == nil:
		return StatusFailure
	}
	failed := len(report.Failed())
	switch {
	case failed == 0:
		return StatusSuccess
	case len(report.Replaced()) == 0:
		return StatusFailure
	default:
		return StatusPartial
	}
}

// NewScheduler registers job on a cron schedule evaluated in loc. Runs
// started by the scheduler use ctx. The scheduler is not started.
func NewScheduler(ctx context.Context, schedule string, loc *time.Location, job *Job) (*cron.Cron, error) {
	if loc == nil {
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(schedule, func() { _, _ = job.Run(ctx) }); err != nil {
		return nil, fmt.Errorf("NewScheduler: %w", err)
	}
	return c, nil
}
