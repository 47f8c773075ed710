package metrics

import (
	"strconv"
	"time"
)

// RecordHTTPRequest records a completed HTTP request.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	HTTPRequestsTotal.WithLabelValues(method, path, code).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
}

// RecordRefresh records the outcome of one refresh run.
func RecordRefresh(policy, result string, duration time.Duration) {
	RefreshRunsTotal.WithLabelValues(policy, result).Inc()
	RefreshDuration.Observe(duration.Seconds())
}

// RecordSourceFetch records one per-source fetch.
func RecordSourceFetch(source, result string, duration time.Duration) {
	SourceFetchTotal.WithLabelValues(source, result).Inc()
	SourceFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordItemRejected counts one feed item dropped by validation.
func RecordItemRejected(source, reason string) {
	ItemsRejectedTotal.WithLabelValues(source, reason).Inc()
}

// RecordReplace counts the articles written for source.
func RecordReplace(source string, count int) {
	ArticlesReplacedTotal.WithLabelValues(source).Add(float64(count))
}

// RecordStoreError counts a failed store operation.
func RecordStoreError(operation string) {
	StoreErrorsTotal.WithLabelValues(operation).Inc()
}

// UpdateArticlesCached sets the cache size gauge.
func UpdateArticlesCached(count int64) {
	ArticlesCached.Set(float64(count))
}

// UpdateCircuitState records a breaker transition. state is gobreaker's
// numeric state (0 closed, 1 half-open, 2 open).
func UpdateCircuitState(circuit string, state int) {
	CircuitState.WithLabelValues(circuit).Set(float64(state))
}
