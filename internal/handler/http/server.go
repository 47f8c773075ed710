// Package http is the JSON and server-sent events API over a news Session.
package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"news-aggregator/internal/handler/http/requestid"
	"news-aggregator/internal/observability/tracing"
	"news-aggregator/internal/usecase/session"
)

// Config wires the API.
type Config struct {
	Session *session.Session
	Logger  *slog.Logger
	Version string
	// RefreshLimiter throttles POST /api/refresh. Nil disables throttling.
	RefreshLimiter *rate.Limiter
	// RequestTimeout bounds non-streaming handlers; zero selects 15s.
	RequestTimeout time.Duration
	Checks         map[string]Check
	// Now is the clock used for TimeAgo rendering; nil selects time.Now.
	Now func() time.Time
}

// Server holds the handlers.
type Server struct {
	sess    *session.Session
	logger  *slog.Logger
	limiter *rate.Limiter
	now     func() time.Time
	health  *HealthHandler
}

// NewServer creates the handlers for cfg.
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Server{
		sess:    cfg.Session,
		logger:  cfg.Logger,
		limiter: cfg.RefreshLimiter,
		now:     cfg.Now,
		health:  &HealthHandler{Version: cfg.Version, Checks: cfg.Checks},
	}
}

// NewRouter builds the gin engine with middleware and routes.
//
//	GET    /health               liveness
//	GET    /ready                readiness
//	GET    /metrics              prometheus
//	GET    /api/articles         filtered articles (?q=, ?sources=a,b); live view without params
//	DELETE /api/articles         clear the cache
//	GET    /api/articles/open    redirect to ?link=
//	PUT    /api/query            set the debounced live query
//	GET    /api/events           SSE stream of "articles" and "status" events
//	POST   /api/refresh          start a refresh
//	GET    /api/status           loading and error state
//	GET    /api/sources          registry with selection
//	GET    /api/settings         preferences
//	PUT    /api/settings         update preferences
func NewRouter(cfg Config) *gin.Engine {
	s := NewServer(cfg)
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	r := gin.New()
	r.Use(
		requestid.Middleware(),
		tracing.Middleware(),
		Logging(s.logger),
		Recover(s.logger),
		Metrics(),
		SecurityHeaders(),
		InputValidation(),
	)

	r.GET("/health", s.health.Live)
	r.GET("/ready", s.health.Ready)
	r.GET("/metrics", MetricsHandler())

	api := r.Group("/api")
	api.GET("/events", s.events)

	bounded := api.Group("", Timeout(timeout))
	bounded.GET("/articles", s.listArticles)
	bounded.DELETE("/articles", s.clearArticles)
	bounded.GET("/articles/open", s.openArticle)
	bounded.PUT("/query", s.setQuery)
	bounded.POST("/refresh", s.refresh)
	bounded.GET("/status", s.status)
	bounded.GET("/sources", s.listSources)
	bounded.GET("/settings", s.getSettings)
	bounded.PUT("/settings", s.updateSettings)
	return r
}
