// Package retry retries feed downloads with exponential backoff and jitter.
// A Retry-After sent by a throttled or overloaded feed host takes precedence
// over the computed delay.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"syscall"
	"time"

	"news-aggregator/internal/observability/logging"
)

// ErrRetryAfterTooLong is returned when a host asks to be left alone for
// longer than Config.MaxDelay.
var ErrRetryAfterTooLong = errors.New("server retry-after exceeds max delay")

// Config tunes WithBackoff.
type Config struct {
	// MaxAttempts counts the first try; values below 1 mean a single try.
	MaxAttempts  int
	InitialDelay time.Duration
	// MaxDelay caps the computed delay and the Retry-After the host may ask for.
	MaxDelay time.Duration
	// Multiplier grows the delay after every failed attempt.
	Multiplier float64
	// JitterFraction adds up to this share of the delay at random (0 to 1).
	JitterFraction float64
}

// FeedFetchConfig returns the backoff used for one feed download.
// The whole sequence has to fit inside the per-fetch timeout.
func FeedFetchConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       4 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.2,
	}
}

// WithBackoff calls fn until it succeeds, fails permanently, runs out of
// attempts or ctx ends.
func WithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	logger := logging.FromContext(ctx)
	attempts := max(cfg.MaxAttempts, 1)
	delay := cfg.InitialDelay

	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				logger.Info("feed download succeeded after retry", slog.Int("attempt", attempt))
			}
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		if attempt >= attempts {
			return fmt.Errorf("max retry attempts (%d) exceeded: %w", attempts, err)
		}

		wait := delay
		if ra := retryAfter(err); ra > 0 {
			if ra > cfg.MaxDelay {
				return fmt.Errorf("%w (%s): %w", ErrRetryAfterTooLong, ra, err)
			}
			wait = max(wait, ra)
		}

		logger.Warn("feed download failed, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.Duration("delay", wait),
			slog.Any("error", err))

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		}

		delay = min(time.Duration(float64(delay)*cfg.Multiplier), cfg.MaxDelay)
		delay = addJitter(delay, cfg.JitterFraction)
	}
}

// IsRetryable reports whether err is a transient network or HTTP failure.
// Context errors and malformed feeds are never retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		code := httpErr.StatusCode
		return code >= 500 || code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
	}
	return false
}

// HTTPError is a non-2xx feed response.
type HTTPError struct {
	StatusCode int
	Message    string
	// RetryAfter is the pause the host asked for on a 429 or 503, or zero.
	RetryAfter time.Duration
}

// ResponseError builds the HTTPError for resp. Retry-After is read as
// delay seconds or an HTTP date relative to now.
func ResponseError(resp *http.Response, now time.Time) *HTTPError {
	e := &HTTPError{StatusCode: resp.StatusCode, Message: resp.Status}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
		e.RetryAfter = ParseRetryAfter(resp.Header.Get("Retry-After"), now)
	}
	return e
}

func (e *HTTPError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("HTTP %d: %s (retry after %s)", e.StatusCode, e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// ParseRetryAfter decodes a Retry-After header. Missing, malformed and past
// values yield zero.
func ParseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

func retryAfter(err error) time.Duration {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.RetryAfter
	}
	return 0
}

func addJitter(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 {
		return d
	}
	fraction = min(fraction, 1.0)
	// #nosec G404 -- jitter does not need cryptographic randomness.
	return d + time.Duration(rand.Float64()*float64(d)*fraction)
}
