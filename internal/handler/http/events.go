package http

import (
	"io"

	"github.com/gin-gonic/gin"

	"news-aggregator/internal/observability/metrics"
)

// events streams the live view as server-sent events. The first "articles"
// and "status" events carry the current state; later ones follow every
// recompute and status change. Slow clients only receive the latest list.
func (s *Server) events(c *gin.Context) {
	ctx := c.Request.Context()
	articles := s.sess.Subscribe(ctx)
	statuses := s.sess.SubscribeStatus(ctx)

	metrics.LiveSubscribers.Inc()
	defer metrics.LiveSubscribers.Dec()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case list, ok := <-articles:
			if !ok {
				return false
			}
			c.SSEvent("articles", toArticlesResponse(
				s.sess.Query(), s.sess.SelectedSources(), list, s.now()))
			return true
		case st, ok := <-statuses:
			if !ok {
				return false
			}
			c.SSEvent("status", st)
			return true
		}
	})
}
