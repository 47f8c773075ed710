package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"news-aggregator/internal/handler/http/respond"
	"news-aggregator/internal/usecase/session"
)

// listArticles returns the live view, or a one-off filter when q or
// sources is given.
func (s *Server) listArticles(c *gin.Context) {
	q, hasQuery := c.GetQuery("q")
	sources := splitList(c.Query("sources"))

	if !hasQuery && len(sources) == 0 {
		respond.JSON(c, http.StatusOK, toArticlesResponse(
			s.sess.Query(), s.sess.SelectedSources(), s.sess.Articles(), s.now()))
		return
	}

	if err := validateQuery(q); err != nil {
		respond.Error(c, http.StatusBadRequest, err)
		return
	}
	arts, err := s.sess.Search(c.Request.Context(), sources, q)
	switch {
	case errors.Is(err, session.ErrUnknownSource):
		respond.Error(c, http.StatusBadRequest, err)
		return
	case err != nil:
		respond.SafeError(c, http.StatusInternalServerError, err)
		return
	}
	if len(sources) == 0 {
		sources = s.sess.SelectedSources()
	}
	respond.JSON(c, http.StatusOK, toArticlesResponse(q, sources, arts, s.now()))
}

// openArticle redirects to a cached article's link.
func (s *Server) openArticle(c *gin.Context) {
	a, err := s.sess.Navigate(c.Request.Context(), c.Query("link"))
	switch {
	case errors.Is(err, session.ErrArticleNotFound):
		respond.Error(c, http.StatusNotFound, session.ErrArticleNotFound)
		return
	case err != nil:
		respond.SafeError(c, http.StatusInternalServerError, err)
		return
	}
	c.Redirect(http.StatusFound, a.Link)
}

func (s *Server) clearArticles(c *gin.Context) {
	if err := s.sess.ClearCache(c.Request.Context()); err != nil {
		respond.SafeError(c, http.StatusInternalServerError, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// setQuery schedules the live query; it applies after the debounce window.
func (s *Server) setQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if err := validateQuery(req.Query); err != nil {
		respond.Error(c, http.StatusBadRequest, err)
		return
	}
	s.sess.SetQuery(req.Query)
	respond.JSON(c, http.StatusAccepted, req)
}
