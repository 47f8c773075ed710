package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-aggregator/internal/handler/http/requestid"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo, "")

	logger.Info("refresh completed", slog.String("source", "Addis Standard"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "refresh completed", entry["msg"])
	assert.Equal(t, "Addis Standard", entry["source"])
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo, "TEXT")

	logger.Info("hello", slog.Int("n", 1))

	out := buf.String()
	assert.True(t, strings.Contains(out, "msg=hello"), out)
	assert.True(t, strings.Contains(out, "n=1"), out)
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelWarn, "json")

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, slog.LevelInfo, "json")

	ctx := requestid.WithRequestID(context.Background(), "req-123")
	WithRequestID(ctx, base).Info("handled")
	assert.Contains(t, buf.String(), `"request_id":"req-123"`)

	buf.Reset()
	WithRequestID(context.Background(), base).Info("handled")
	assert.NotContains(t, buf.String(), "request_id")
}

func TestWithLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo, "json")

	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}
