// Package respond writes JSON responses and sanitized error bodies for gin handlers.
package respond

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"news-aggregator/internal/handler/http/requestid"
	"news-aggregator/internal/observability/logging"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// JSON writes v with status code.
func JSON(c *gin.Context, code int, v any) {
	c.JSON(code, v)
}

// Error writes err.Error() as the message and aborts the chain.
// Use it only for messages that are safe to show.
func Error(c *gin.Context, code int, err error) {
	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:     err.Error(),
		RequestID: requestid.FromContext(c.Request.Context()),
	})
}

// safeFragments mark client errors whose message can be shown as is.
var safeFragments = []string{
	"required",
	"invalid",
	"not found",
	"unknown",
	"must be",
	"cannot be",
	"at least one",
	"in progress",
	"too many",
}

// SafeError writes err when it looks like a client error and a generic
// message otherwise. 5xx responses never expose the error; it is logged
// after sanitizing.
func SafeError(c *gin.Context, code int, err error) {
	if err == nil {
		return
	}

	msg := err.Error()
	safe := code < 500
	if safe {
		lower := strings.ToLower(msg)
		safe = false
		for _, f := range safeFragments {
			if strings.Contains(lower, f) {
				safe = true
				break
			}
		}
	}

	if !safe {
		logging.FromContext(c.Request.Context()).Error("request failed",
			slog.String("status", http.StatusText(code)),
			slog.Int("code", code),
			slog.String("error", SanitizeError(err)))
		msg = http.StatusText(code)
		if code >= 500 {
			msg = "internal server error"
		}
	}
	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:     msg,
		RequestID: requestid.FromContext(c.Request.Context()),
	})
}

// AppError pairs a user-facing message with the internal cause.
type AppError struct {
	UserMsg string
	Err     error
	Code    int
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.UserMsg
}

func (e *AppError) Unwrap() error { return e.Err }

// NewAppError creates an AppError.
func NewAppError(code int, userMsg string, err error) *AppError {
	return &AppError{Code: code, UserMsg: userMsg, Err: err}
}

// Fail writes err. An AppError anywhere in the chain decides the status and
// message and its cause is logged; anything else goes through SafeError
// with code.
func Fail(c *gin.Context, code int, err error) {
	if err == nil {
		return
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Err != nil {
			logging.FromContext(c.Request.Context()).Warn("application error",
				slog.Int("code", appErr.Code),
				slog.String("user_message", appErr.UserMsg),
				slog.String("error", SanitizeError(appErr.Err)))
		}
		c.AbortWithStatusJSON(appErr.Code, ErrorResponse{
			Error:     appErr.UserMsg,
			RequestID: requestid.FromContext(c.Request.Context()),
		})
		return
	}
	SafeError(c, code, err)
}
