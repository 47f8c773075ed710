package http

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"news-aggregator/internal/handler/http/respond"
)

// HealthResponse is the body of the readiness endpoint.
type HealthResponse struct {
	Status    string                 `json:"status"`    // "healthy" or "unhealthy"
	Timestamp string                 `json:"timestamp"` // RFC 3339
	Checks    map[string]CheckStatus `json:"checks,omitempty"`
	Version   string                 `json:"version"`
}

// CheckStatus is the result of one readiness check.
type CheckStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Check tests one dependency.
type Check func(ctx context.Context) error

// HealthHandler serves liveness and readiness checks.
type HealthHandler struct {
	Version string
	// Checks run in name order on every readiness request, bounded by Timeout.
	Checks  map[string]Check
	Timeout time.Duration
}

// Live always reports healthy while the process serves requests.
func (h *HealthHandler) Live(c *gin.Context) {
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.Version,
	})
}

// Ready runs every check and reports 503 when any fails.
func (h *HealthHandler) Ready(c *gin.Context) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	names := make([]string, 0, len(h.Checks))
	for name := range h.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := make(map[string]CheckStatus, len(names))
	healthy := true
	for _, name := range names {
		if err := h.Checks[name](ctx); err != nil {
			checks[name] = CheckStatus{Status: "unhealthy", Message: respond.SanitizeError(err)}
			healthy = false
			continue
		}
		checks[name] = CheckStatus{Status: "healthy"}
	}

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	}
	code := http.StatusOK
	if !healthy {
		resp.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.JSON(code, resp)
}
