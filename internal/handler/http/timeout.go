package http

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// Timeout bounds the request context of every handler after it. Handlers
// pass the context to the store, so a slow backend ends the request instead
// of pinning it. Streaming routes must be registered outside it.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
