package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateCronSchedule(t *testing.T) {
	tests := []struct {
		schedule string
		wantErr  bool
	}{
		{"*/30 * * * *", false},
		{"0 6 * * 1-5", false},
		{"@every 15m", false},
		{"", true},
		{"* * *", true},
		{"61 * * * *", true},
	}

	for _, tt := range tests {
		t.Run(tt.schedule, func(t *testing.T) {
			err := ValidateCronSchedule(tt.schedule)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateTimezone(t *testing.T) {
	assert.NoError(t, ValidateTimezone("UTC"))
	assert.Error(t, ValidateTimezone(""))
	assert.Error(t, ValidateTimezone("Mars/Olympus_Mons"))
}

func TestValidateDuration(t *testing.T) {
	assert.NoError(t, ValidateDuration(time.Second, time.Second, time.Minute))
	assert.NoError(t, ValidateDuration(time.Minute, time.Second, time.Minute))
	assert.ErrorContains(t, ValidateDuration(time.Millisecond, time.Second, time.Minute), "below minimum")
	assert.ErrorContains(t, ValidateDuration(time.Hour, time.Second, time.Minute), "exceeds maximum")
	assert.ErrorContains(t, ValidateDuration(time.Second, time.Minute, time.Second), "invalid range")
}

func TestValidatePositiveDuration(t *testing.T) {
	assert.NoError(t, ValidatePositiveDuration(time.Nanosecond))
	assert.Error(t, ValidatePositiveDuration(0))
	assert.Error(t, ValidatePositiveDuration(-time.Second))
}

func TestValidateIntRange(t *testing.T) {
	assert.NoError(t, IntRange(1, 10)(1))
	assert.NoError(t, IntRange(1, 10)(10))
	assert.Error(t, IntRange(1, 10)(0))
	assert.Error(t, IntRange(1, 10)(11))
	assert.Error(t, ValidateIntRange(5, 10, 1))
}

func TestOneOf(t *testing.T) {
	v := OneOf("file", "redis")
	assert.NoError(t, v("file"))
	assert.NoError(t, v("redis"))
	assert.ErrorContains(t, v("Redis"), "must be one of [file, redis]")
}

func TestValidateHostPort(t *testing.T) {
	assert.NoError(t, ValidateHostPort(":8080"))
	assert.NoError(t, ValidateHostPort("localhost:6379"))
	assert.Error(t, ValidateHostPort("8080"))
}
