package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultEmpty   = "empty"
	ResultPartial = "partial"
	ResultAborted = "aborted"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		},
	)

	// LiveSubscribers counts open server-sent event streams.
	LiveSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "live_subscribers",
			Help: "Number of open live article streams",
		},
	)
)

// Refresh pipeline metrics
var (
	// RefreshRunsTotal counts refresh runs by policy and outcome.
	RefreshRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refresh_runs_total",
			Help: "Total number of refresh runs",
		},
		[]string{"policy", "result"},
	)

	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "refresh_duration_seconds",
			Help:    "Wall time of a refresh run, from dispatch until every source settled",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 9),
		},
	)

	SourceFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_fetch_total",
			Help: "Total number of per-source feed fetches",
		},
		[]string{"source", "result"},
	)

	SourceFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "source_fetch_duration_seconds",
			Help:    "Time taken to download and parse one source feed",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"source"},
	)

	// ItemsRejectedTotal counts feed entries dropped by validation.
	ItemsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_items_rejected_total",
			Help: "Total number of feed items rejected during parsing",
		},
		[]string{"source", "reason"},
	)

	ArticlesReplacedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "articles_replaced_total",
			Help: "Total number of articles written by replace-by-source",
		},
		[]string{"source"},
	)

	ArticlesCached = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "articles_cached",
			Help: "Number of articles currently in the cache",
		},
	)

	StoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_errors_total",
			Help: "Total number of article store failures",
		},
		[]string{"operation"},
	)

	// CircuitState is 0 closed, 1 half-open, 2 open.
	CircuitState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "feed_circuit_state",
			Help: "Circuit breaker state per feed host (0 closed, 1 half-open, 2 open)",
		},
		[]string{"circuit"},
	)
)
