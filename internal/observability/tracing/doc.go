// Package tracing wires OpenTelemetry: a process tracer provider (Setup), the
// package tracer used for refresh and fetch spans (GetTracer), and a gin
// middleware that opens a server span per request.
package tracing
