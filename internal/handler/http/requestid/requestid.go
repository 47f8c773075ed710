// Package requestid assigns every HTTP request an id that is echoed in the
// X-Request-ID response header and attached to request logs.
package requestid

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type contextKey string

const (
	// RequestIDKey is the context key for storing request IDs.
	RequestIDKey contextKey = "request_id"
	// RequestIDHeader is the HTTP header name for request IDs.
	RequestIDHeader = "X-Request-ID"

	maxIncomingLength = 128
)

// FromContext returns the request ID in ctx, or "".
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// Middleware propagates a well-formed incoming X-Request-ID or generates a
// UUID v4. The id is stored in the request context and in the gin context
// under "request_id".
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if !valid(id) {
			id = uuid.NewString()
		}

		c.Header(RequestIDHeader, id)
		c.Set(string(RequestIDKey), id)
		c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// valid accepts short printable ASCII ids so client input cannot inject
// control characters into logs.
func valid(id string) bool {
	if id == "" || len(id) > maxIncomingLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
