package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// ReadinessCheck reports whether a dependency is usable.
type ReadinessCheck func(ctx context.Context) error

// HealthServer serves the worker's health endpoints:
//   - /health: liveness, always 200
//   - /health/ready: 200 once SetReady(true) was called and every
//     registered check passes, 503 otherwise
//
// Additional routes (metrics, feed breaker states) are mounted with Handle
// before Start.
//
//	hs := NewHealthServer(":9091", logger)
//	hs.AddCheck("database", db.PingContext)
//	go hs.Start(ctx)
//	hs.SetReady(true)
type HealthServer struct {
	addr    string
	logger  *slog.Logger
	isReady atomic.Bool
	mux     *http.ServeMux

	mu     sync.Mutex
	checks map[string]ReadinessCheck
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// NewHealthServer creates a server that starts out not ready.
func NewHealthServer(addr string, logger *slog.Logger) *HealthServer {
	h := &HealthServer{
		addr:   addr,
		logger: logger,
		mux:    http.NewServeMux(),
		checks: make(map[string]ReadinessCheck),
	}
	h.mux.HandleFunc("/health", h.handleLiveness)
	h.mux.HandleFunc("/health/ready", h.handleReadiness)
	return h
}

// AddCheck registers a readiness check under name.
func (h *HealthServer) AddCheck(name string, check ReadinessCheck) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// Handle mounts an extra route next to the health routes.
func (h *HealthServer) Handle(pattern string, handler http.Handler) {
	h.mux.Handle(pattern, handler)
}

// Handler returns the routing handler.
func (h *HealthServer) Handler() http.Handler { return h.mux }

// Start serves until ctx is canceled, then shuts down gracefully with a
// 5 second timeout. It returns http.ErrServerClosed after a clean shutdown.
func (h *HealthServer) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         h.addr,
		Handler:      h.mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		h.logger.Info("health server starting", slog.String("addr", h.addr))
		errChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		h.logger.Info("health server shutting down")
		if err := server.Shutdown(shutdownCtx); err != nil {
			h.logger.Error("health server shutdown failed", slog.Any("error", err))
			return err
		}
		h.logger.Info("health server stopped")
		return http.ErrServerClosed

	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("health server failed", slog.Any("error", err))
		}
		return err
	}
}

// SetReady flips the readiness flag.
func (h *HealthServer) SetReady(ready bool) {
	h.isReady.Store(ready)
	h.logger.Info("health server readiness changed", slog.Bool("ready", ready))
}

func (h *HealthServer) handleLiveness(w http.ResponseWriter, r *http.Request) {
	h.write(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (h *HealthServer) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if !h.isReady.Load() {
		h.write(w, http.StatusServiceUnavailable, healthResponse{Status: "not ready"})
		return
	}

	h.mu.Lock()
	checks := make(map[string]ReadinessCheck, len(h.checks))
	for name, c := range h.checks {
		checks[name] = c
	}
	h.mu.Unlock()

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok"}
	status := http.StatusOK
	if len(checks) > 0 {
		resp.Checks = make(map[string]string, len(checks))
	}
	for name, check := range checks {
		if err := check(ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "not ready"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	h.write(w, status, resp)
}

func (h *HealthServer) write(w http.ResponseWriter, status int, resp healthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode health response", slog.Any("error", err))
	}
}
