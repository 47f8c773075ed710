package http

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"news-aggregator/internal/handler/http/respond"
	"news-aggregator/internal/usecase/session"
)

var errTooManyRefreshes = errors.New("too many refresh requests, try again later")

// refresh starts a background refresh; progress is visible through
// /api/status and the event stream.
func (s *Server) refresh(c *gin.Context) {
	if s.limiter != nil {
		r := s.limiter.Reserve()
		if !r.OK() {
			respond.Error(c, http.StatusTooManyRequests, errTooManyRefreshes)
			return
		}
		if delay := r.Delay(); delay > 0 {
			r.Cancel()
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
			respond.Error(c, http.StatusTooManyRequests, errTooManyRefreshes)
			return
		}
	}

	err := s.sess.Refresh()
	switch {
	case errors.Is(err, session.ErrRefreshInProgress):
		respond.Error(c, http.StatusConflict, err)
		return
	case errors.Is(err, session.ErrClosed):
		respond.Error(c, http.StatusServiceUnavailable, err)
		return
	case err != nil:
		respond.SafeError(c, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(c, http.StatusAccepted, s.sess.Status())
}

func (s *Server) status(c *gin.Context) {
	respond.JSON(c, http.StatusOK, s.sess.Status())
}
