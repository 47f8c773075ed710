package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// ValidateCronSchedule parses a standard five-field cron expression,
// e.g. "*/30 * * * *". Descriptors such as "@every 15m" are accepted as well.
func ValidateCronSchedule(schedule string) error {
	if strings.TrimSpace(schedule) == "" {
		return fmt.Errorf("invalid cron schedule: cannot be empty")
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", schedule, err)
	}
	return nil
}

// ValidateTimezone requires an IANA name that time.LoadLocation can resolve.
func ValidateTimezone(tz string) error {
	if tz == "" {
		return fmt.Errorf("invalid timezone: cannot be empty")
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return fmt.Errorf("invalid timezone '%s': %w", tz, err)
	}
	return nil
}

// ValidateDuration checks min <= d <= max.
func ValidateDuration(d, min, max time.Duration) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%v) cannot be greater than max (%v)", min, max)
	}
	if d < min {
		return fmt.Errorf("duration %v is below minimum %v", d, min)
	}
	if d > max {
		return fmt.Errorf("duration %v exceeds maximum %v", d, max)
	}
	return nil
}

// ValidatePositiveDuration rejects zero and negative durations.
func ValidatePositiveDuration(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("duration must be positive, got %v", d)
	}
	return nil
}

// ValidateIntRange checks min <= v <= max.
func ValidateIntRange(v, min, max int) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%d) cannot be greater than max (%d)", min, max)
	}
	if v < min {
		return fmt.Errorf("value %d is below minimum %d", v, min)
	}
	if v > max {
		return fmt.Errorf("value %d exceeds maximum %d", v, max)
	}
	return nil
}

// IntRange adapts ValidateIntRange to a Validator.
func IntRange(min, max int) Validator[int] {
	return func(v int) error { return ValidateIntRange(v, min, max) }
}

// DurationRange adapts ValidateDuration to a Validator.
func DurationRange(min, max time.Duration) Validator[time.Duration] {
	return func(d time.Duration) error { return ValidateDuration(d, min, max) }
}

// OneOf accepts only the listed values (case-sensitive).
func OneOf(allowed ...string) Validator[string] {
	return func(v string) error {
		for _, a := range allowed {
			if v == a {
				return nil
			}
		}
		return fmt.Errorf("must be one of [%s]", strings.Join(allowed, ", "))
	}
}

// ValidateHostPort accepts "host:port" and ":port".
func ValidateHostPort(addr string) error {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("invalid address '%s': %w", addr, err)
	}
	return nil
}
