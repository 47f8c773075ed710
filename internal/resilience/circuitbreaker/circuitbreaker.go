// Package circuitbreaker wraps github.com/sony/gobreaker with the settings
// used for feed endpoints.
package circuitbreaker

import (
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// ErrOpenState is returned by Execute while the circuit is open.
var ErrOpenState = gobreaker.ErrOpenState

// Config holds the configuration for a circuit breaker.
type Config struct {
	// Name is the circuit breaker name for logging and metrics
	Name string

	// MaxRequests is the maximum number of requests allowed in half-open state
	MaxRequests uint32

	// Interval is the cyclic period of the closed state to clear counts
	Interval time.Duration

	// Timeout is how long the circuit stays open before probing again
	Timeout time.Duration

	// FailureThreshold is the failure ratio that trips the circuit, e.g. 0.6
	FailureThreshold float64

	// MinRequests is the minimum number of requests before the ratio is evaluated
	MinRequests uint32

	// OnStateChange, when set, is called after every transition.
	OnStateChange func(name string, from, to gobreaker.State)
}

// FeedConfig returns the settings for one feed endpoint.
// A feed is refreshed at most a few times per hour, so the breaker trips on
// a small sample and stays open long enough to skip the next scheduled run.
func FeedConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      1,
		Interval:         10 * time.Minute,
		Timeout:          5 * time.Minute,
		FailureThreshold: 0.8,
		MinRequests:      3,
	}
}

// CircuitBreaker wraps gobreaker.CircuitBreaker.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	name    string
}

// New creates a new circuit breaker with the given configuration.
func New(cfg Config) *CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
			if cfg.OnStateChange != nil {
				cfg.OnStateChange(name, from, to)
			}
		},
	}

	return &CircuitBreaker{
		breaker: gobreaker.NewCircuitBreaker(settings),
		name:    cfg.Name,
	}
}

// Execute runs fn through the circuit breaker.
// If the circuit is open, it returns ErrOpenState without calling fn.
func (cb *CircuitBreaker) Execute(fn func() (interface{}, error)) (interface{}, error) {
	return cb.breaker.Execute(fn)
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() gobreaker.State {
	return cb.breaker.State()
}

// Name returns the name of the circuit breaker.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// IsOpen reports whether the circuit is open.
func (cb *CircuitBreaker) IsOpen() bool {
	return cb.breaker.State() == gobreaker.StateOpen
}

// Set lazily creates one breaker per key, so one dead feed host cannot
// trip the circuit for the others.
type Set struct {
	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
	config   func(name string) Config
}

// NewSet returns an empty Set that builds breakers with config.
func NewSet(config func(name string) Config) *Set {
	return &Set{breakers: make(map[string]*CircuitBreaker), config: config}
}

// For returns the breaker for key, creating it on first use.
func (s *Set) For(key string) *CircuitBreaker {
	s.mu.Lock()
	defer s.mu.Unlock()
	cb, ok := s.breakers[key]
	if !ok {
		cb = New(s.config(key))
		s.breakers[key] = cb
	}
	return cb
}

// States returns a snapshot of every known breaker's state.
func (s *Set) States() map[string]gobreaker.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]gobreaker.State, len(s.breakers))
	for k, cb := range s.breakers {
		out[k] = cb.State()
	}
	return out
}
