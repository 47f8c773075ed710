package tracing

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TraceIDHeader carries the trace id back to the client.
const TraceIDHeader = "X-Trace-Id"

// Middleware opens a server span for each request.
// It extracts W3C trace context from the request, names the span after the
// matched route (so /api/articles/:link does not explode cardinality), and
// marks 5xx responses as errors.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := otel.GetTextMapPropagator().Extract(
			c.Request.Context(),
			propagation.HeaderCarrier(c.Request.Header),
		)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		ctx, span := GetTracer().Start(ctx, c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
		)
		defer span.End()

		if sc := span.SpanContext(); sc.HasTraceID() {
			c.Header(TraceIDHeader, sc.TraceID().String())
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(
			attribute.Int("http.status_code", status),
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
		)
		if status >= 500 {
			span.SetStatus(codes.Error, "server error")
		}
	}
}
