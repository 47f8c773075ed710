package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"news-aggregator/internal/pkg/config"
	"news-aggregator/internal/usecase/fetch"
)

// Job status labels.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailure = "failure"
	StatusSkipped = "skipped"
)

// WorkerMetrics embeds the configuration metrics and adds the scheduled
// refresh metrics:
//
//	worker_refresh_runs_total{status}
//	worker_refresh_duration_seconds
//	worker_refresh_sources_total{outcome}
//	worker_refresh_last_success_timestamp
type WorkerMetrics struct {
	*config.ConfigMetrics

	RunsTotal            *prometheus.CounterVec
	DurationSeconds      prometheus.Histogram
	SourcesTotal         *prometheus.CounterVec
	LastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics registers the worker metrics with the default registry.
func NewWorkerMetrics() *WorkerMetrics {
	return NewWorkerMetricsWith(prometheus.DefaultRegisterer)
}

// NewWorkerMetricsWith registers the worker metrics with reg.
func NewWorkerMetricsWith(reg prometheus.Registerer) *WorkerMetrics {
	f := promauto.With(reg)
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetricsWith(reg, "worker"),

		RunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_refresh_runs_total",
			Help: "Total number of scheduled refresh runs by status",
		}, []string{"status"}),

		DurationSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_refresh_duration_seconds",
			Help:    "Duration of scheduled refresh runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),

		SourcesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_refresh_sources_total",
			Help: "Sources handled by scheduled refresh runs by outcome",
		}, []string{"outcome"}),

		LastSuccessTimestamp: f.NewGauge(prometheus.GaugeOpts{
			Name: "worker_refresh_last_success_timestamp",
			Help: "Unix timestamp of the last successful scheduled refresh",
		}),
	}
}

// RecordRun records one finished run. report may be nil when the run
// never started.
func (m *WorkerMetrics) RecordRun(status string, seconds float64, report *fetch.RefreshReport) {
	m.RunsTotal.WithLabelValues(status).Inc()
	if status == StatusSkipped {
		return
	}
	m.DurationSeconds.Observe(seconds)
	if report != nil {
		for _, src := range report.Sources {
			m.SourcesTotal.WithLabelValues(string(src.Outcome)).Inc()
		}
	}
	if status == StatusSuccess || status == StatusPartial {
		m.LastSuccessTimestamp.SetToCurrentTime()
	}
}
