package http

import (
	"errors"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"news-aggregator/internal/handler/http/respond"
	"news-aggregator/internal/usecase/session"
)

func (s *Server) listSources(c *gin.Context) {
	selected := s.sess.SelectedSources()
	srcs := s.sess.Registry().Sources()
	out := make([]SourceDTO, len(srcs))
	for i, src := range srcs {
		out[i] = SourceDTO{
			Name:     src.Name,
			URL:      src.FeedURL,
			Selected: slices.Contains(selected, src.Name),
		}
	}
	respond.JSON(c, http.StatusOK, out)
}

func (s *Server) getSettings(c *gin.Context) {
	dark, err := s.sess.DarkMode(c.Request.Context())
	if err != nil {
		respond.SafeError(c, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(c, http.StatusOK, SettingsDTO{
		DarkMode:        dark,
		SelectedSources: s.sess.SelectedSources(),
	})
}

// updateSettings applies the selection first so an invalid one leaves the
// theme untouched as well.
func (s *Server) updateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	ctx := c.Request.Context()

	if req.SelectedSources != nil {
		err := s.sess.SetSelectedSources(ctx, req.SelectedSources)
		switch {
		case errors.Is(err, session.ErrEmptySelection), errors.Is(err, session.ErrUnknownSource):
			respond.Error(c, http.StatusBadRequest, err)
			return
		case err != nil:
			respond.SafeError(c, http.StatusInternalServerError, err)
			return
		}
	}
	if req.DarkMode != nil {
		if err := s.sess.SetDarkMode(ctx, *req.DarkMode); err != nil {
			respond.SafeError(c, http.StatusInternalServerError, err)
			return
		}
	}
	s.getSettings(c)
}
