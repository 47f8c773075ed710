// Package config provides fail-open environment loaders.
//
// A loader never returns an error: a value that is missing falls back silently,
// a value that fails to parse or validate falls back with a warning. Callers
// log the warnings and feed FallbackApplied into ConfigMetrics.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadResult is the outcome of loading one environment variable.
type LoadResult[T any] struct {
	Value           T
	Warnings        []string
	FallbackApplied bool
}

// Validator checks an already parsed value.
type Validator[T any] func(T) error

// LoadEnvString returns the variable's value, or def when unset or empty.
func LoadEnvString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// LoadEnvWithFallback loads a string and validates it.
func LoadEnvWithFallback(key, def string, validate Validator[string]) LoadResult[string] {
	return load(key, def, func(s string) (string, error) { return s, nil }, validate)
}

// LoadEnvInt loads a base-10 integer.
func LoadEnvInt(key string, def int, validate Validator[int]) LoadResult[int] {
	return load(key, def, func(s string) (int, error) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("invalid integer format")
		}
		return n, nil
	}, validate)
}

// LoadEnvFloat loads a floating point number.
func LoadEnvFloat(key string, def float64, validate Validator[float64]) LoadResult[float64] {
	return load(key, def, func(s string) (float64, error) {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number format")
		}
		return f, nil
	}, validate)
}

// LoadEnvDuration loads a Go duration string such as "20s" or "1h30m".
func LoadEnvDuration(key string, def time.Duration, validate Validator[time.Duration]) LoadResult[time.Duration] {
	return load(key, def, time.ParseDuration, validate)
}

// LoadEnvBool loads a boolean in any form accepted by strconv.ParseBool.
func LoadEnvBool(key string, def bool) LoadResult[bool] {
	return load(key, def, func(s string) (bool, error) {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return false, fmt.Errorf("invalid boolean format, expected 'true' or 'false'")
		}
		return b, nil
	}, nil)
}

func load[T any](key string, def T, parse func(string) (T, error), validate Validator[T]) LoadResult[T] {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return LoadResult[T]{Value: def}
	}

	v, err := parse(raw)
	if err == nil && validate != nil {
		err = validate(v)
	}
	if err != nil {
		return LoadResult[T]{
			Value:           def,
			Warnings:        []string{fmt.Sprintf("Invalid %s='%s': %v, falling back to default '%v'", key, raw, err, def)},
			FallbackApplied: true,
		}
	}
	return LoadResult[T]{Value: v}
}

// Collector logs the warnings of a series of loads and remembers which
// fields fell back, for ConfigMetrics.Observe.
type Collector struct {
	logger    *slog.Logger
	fallbacks []string
}

// NewCollector returns a Collector logging to logger, or slog.Default when nil.
func NewCollector(logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{logger: logger}
}

// Collect records r under field and returns its value.
func Collect[T any](c *Collector, field string, r LoadResult[T]) T {
	if r.FallbackApplied {
		c.fallbacks = append(c.fallbacks, field)
		for _, w := range r.Warnings {
			c.logger.Warn("Configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", w))
		}
	}
	return r.Value
}

// Fallbacks returns the fields that fell back so far.
func (c *Collector) Fallbacks() []string { return c.fallbacks }
