// Package metrics holds the process-wide Prometheus collectors and the
// Record* helpers that update them. Collectors register with the default
// registry through promauto and are served on /metrics.
package metrics
