package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"syscall"
	"testing"
	"time"
)

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:    attempts,
		InitialDelay:   time.Millisecond,
		MaxDelay:       5 * time.Millisecond,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

func TestWithBackoff_Success(t *testing.T) {
	attempts := 0
	err := WithBackoff(context.Background(), fastConfig(3), func() error {
		attempts++
		return nil
	})

	if err != nil {
		t.Errorf("WithBackoff() error = %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestWithBackoff_SuccessAfterRetry(t *testing.T) {
	attempts := 0
	err := WithBackoff(context.Background(), fastConfig(3), func() error {
		attempts++
		if attempts < 3 {
			return &HTTPError{StatusCode: 503, Message: "Service Unavailable"}
		}
		return nil
	})

	if err != nil {
		t.Errorf("WithBackoff() error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestWithBackoff_Exhausted(t *testing.T) {
	attempts := 0
	err := WithBackoff(context.Background(), fastConfig(2), func() error {
		attempts++
		return syscall.ECONNREFUSED
	})

	if !errors.Is(err, syscall.ECONNREFUSED) {
		t.Errorf("WithBackoff() error = %v, want wrapped ECONNREFUSED", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestWithBackoff_NonRetryableStopsImmediately(t *testing.T) {
	attempts := 0
	parseErr := errors.New("xml syntax error")
	err := WithBackoff(context.Background(), fastConfig(5), func() error {
		attempts++
		return parseErr
	})

	if !errors.Is(err, parseErr) {
		t.Errorf("WithBackoff() error = %v, want %v", err, parseErr)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestWithBackoff_ContextCanceledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig(3)
	cfg.InitialDelay = time.Hour

	err := WithBackoff(ctx, cfg, func() error {
		cancel()
		return &HTTPError{StatusCode: 502, Message: "Bad Gateway"}
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("WithBackoff() error = %v, want context.Canceled", err)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("wrapped: %w", context.DeadlineExceeded), false},
		{"conn refused", syscall.ECONNREFUSED, true},
		{"conn reset", fmt.Errorf("read: %w", syscall.ECONNRESET), true},
		{"500", &HTTPError{StatusCode: 500}, true},
		{"429", &HTTPError{StatusCode: 429}, true},
		{"408", &HTTPError{StatusCode: 408}, true},
		{"404", &HTTPError{StatusCode: 404}, false},
		{"403", &HTTPError{StatusCode: 403}, false},
		{"plain", errors.New("failed to detect feed type"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestAddJitter(t *testing.T) {
	base := 100 * time.Millisecond
	for i := 0; i < 50; i++ {
		got := addJitter(base, 0.5)
		if got < base || got > base+base/2 {
			t.Fatalf("addJitter() = %v, want within [%v, %v]", got, base, base+base/2)
		}
	}
	if got := addJitter(base, 0); got != base {
		t.Errorf("addJitter() with zero fraction = %v, want %v", got, base)
	}
}

func TestHTTPError_Error(t *testing.T) {
	err := &HTTPError{StatusCode: 502, Message: "Bad Gateway"}
	if err.Error() != "HTTP 502: Bad Gateway" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestWithBackoff_HonorsRetryAfter(t *testing.T) {
	cfg := fastConfig(2)
	cfg.MaxDelay = 200 * time.Millisecond
	attempts := 0
	start := time.Now()

	err := WithBackoff(context.Background(), cfg, func() error {
		attempts++
		if attempts == 1 {
			return &HTTPError{StatusCode: http.StatusTooManyRequests, RetryAfter: 40 * time.Millisecond}
		}
		return nil
	})

	if err != nil {
		t.Fatalf("WithBackoff() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("retried after %v, want at least the 40ms the host asked for", elapsed)
	}
}

func TestWithBackoff_RetryAfterBeyondMaxDelayGivesUp(t *testing.T) {
	attempts := 0
	err := WithBackoff(context.Background(), fastConfig(3), func() error {
		attempts++
		return &HTTPError{StatusCode: http.StatusServiceUnavailable, RetryAfter: time.Hour}
	})

	if !errors.Is(err, ErrRetryAfterTooLong) {
		t.Fatalf("WithBackoff() error = %v, want ErrRetryAfterTooLong", err)
	}
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("WithBackoff() error = %v, want the 503 attached", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestWithBackoff_ZeroAttemptsTriesOnce(t *testing.T) {
	attempts := 0
	_ = WithBackoff(context.Background(), Config{}, func() error {
		attempts++
		return syscall.ECONNRESET
	})
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 0},
		{"120", 2 * time.Minute},
		{" 3 ", 3 * time.Second},
		{"0", 0},
		{"-5", 0},
		{"soon", 0},
		{now.Add(30 * time.Second).Format(http.TimeFormat), 30 * time.Second},
		{now.Add(-time.Minute).Format(http.TimeFormat), 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseRetryAfter(tt.in, now); got != tt.want {
				t.Errorf("ParseRetryAfter(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestResponseError(t *testing.T) {
	now := time.Now()
	resp := func(code int, retryAfter string) *http.Response {
		h := http.Header{}
		if retryAfter != "" {
			h.Set("Retry-After", retryAfter)
		}
		return &http.Response{StatusCode: code, Status: http.StatusText(code), Header: h}
	}

	if got := ResponseError(resp(http.StatusTooManyRequests, "2"), now); got.RetryAfter != 2*time.Second {
		t.Errorf("429 RetryAfter = %v, want 2s", got.RetryAfter)
	}
	if got := ResponseError(resp(http.StatusServiceUnavailable, "1"), now); got.RetryAfter != time.Second {
		t.Errorf("503 RetryAfter = %v, want 1s", got.RetryAfter)
	}
	got := ResponseError(resp(http.StatusNotFound, "5"), now)
	if got.RetryAfter != 0 {
		t.Errorf("404 RetryAfter = %v, want 0", got.RetryAfter)
	}
	if got.StatusCode != http.StatusNotFound || got.Message != "Not Found" {
		t.Errorf("ResponseError() = %+v", got)
	}
	if msg := ResponseError(resp(http.StatusTooManyRequests, "2"), now).Error(); msg != "HTTP 429: Too Many Requests (retry after 2s)" {
		t.Errorf("Error() = %q", msg)
	}
}
