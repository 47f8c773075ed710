package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"news-aggregator/internal/handler/http/requestid"
	"news-aggregator/internal/handler/http/respond"
	"news-aggregator/internal/observability/logging"
)

// Logging stores a request-scoped logger in the request context and logs
// every completed request with its request and trace ids.
// It must run after requestid.Middleware and tracing.Middleware.
func Logging(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx := c.Request.Context()
		reqLogger := logging.WithRequestID(ctx, logger)
		c.Request = c.Request.WithContext(logging.WithLogger(ctx, reqLogger))

		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		duration := time.Since(start)
		reqLogger.Info("request completed",
			slog.String("trace_id", span.SpanContext().TraceID().String()),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("query", c.Request.URL.RawQuery),
			slog.String("remote_addr", c.ClientIP()),
			slog.String("user_agent", c.Request.UserAgent()),
			slog.Int("status", c.Writer.Status()),
			slog.Int("bytes", c.Writer.Size()),
			slog.Duration("duration", duration),
			slog.String("duration_ms", fmt.Sprintf("%.2f", duration.Seconds()*1000)),
		)
	}
}

// Recover turns a panic into a 500 and logs the stack.
func Recover(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic recovered",
					slog.String("request_id", requestid.FromContext(c.Request.Context())),
					slog.String("method", c.Request.Method),
					slog.String("path", c.Request.URL.Path),
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
				)
				respond.SafeError(c, http.StatusInternalServerError, fmt.Errorf("internal error"))
			}
		}()
		c.Next()
	}
}
