// Package observability groups structured logging (logging), Prometheus
// metrics (metrics) and OpenTelemetry tracing (tracing).
//
//	slog.SetDefault(logging.NewLogger())
//	shutdown := tracing.Setup("news-aggregator", nil)
//	defer shutdown(ctx)
//
//	metrics.RecordSourceFetch("Addis Standard", metrics.ResultSuccess, 900*time.Millisecond, 25)
package observability
