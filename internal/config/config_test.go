package config_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"news-aggregator/internal/config"
	pkgconfig "news-aggregator/internal/pkg/config"
	"news-aggregator/internal/usecase/fetch"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoad_Defaults(t *testing.T) {
	got := config.Load(quietLogger(), nil)

	if diff := cmp.Diff(config.Default(), got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://news@localhost/news")
	t.Setenv("SOURCES_FILE", "/etc/news/sources.yaml")
	t.Setenv("SETTINGS_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("REFRESH_POLICY", "all_or_nothing")
	t.Setenv("FETCH_TIMEOUT", "45s")
	t.Setenv("FETCH_PARALLELISM", "3")
	t.Setenv("SEARCH_DEBOUNCE", "150ms")
	t.Setenv("REFRESH_CRON", "*/15 * * * *")
	t.Setenv("REFRESH_ON_START", "false")
	t.Setenv("HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("REFRESH_RATE_LIMIT", "12")
	t.Setenv("LIVE_RESYNC_INTERVAL", "15s")

	got := config.Load(quietLogger(), nil)

	want := config.Default()
	want.DatabaseURL = "postgres://news@localhost/news"
	want.SourcesFile = "/etc/news/sources.yaml"
	want.SettingsBackend = config.SettingsBackendRedis
	want.RedisAddr = "redis:6379"
	want.RedisDB = 2
	want.RefreshPolicy = fetch.PolicyAllOrNothing
	want.FetchTimeout = 45 * time.Second
	want.FetchParallelism = 3
	want.SearchDebounce = 150 * time.Millisecond
	want.RefreshCron = "*/15 * * * *"
	want.RefreshOnStart = false
	want.HTTPAddr = "127.0.0.1:9000"
	want.RefreshRateLimit = 12
	want.LiveResync = 15 * time.Second

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("SETTINGS_BACKEND", "etcd")
	t.Setenv("REFRESH_POLICY", "sometimes")
	t.Setenv("FETCH_TIMEOUT", "forever")
	t.Setenv("FETCH_PARALLELISM", "0")
	t.Setenv("REFRESH_CRON", "not a cron")
	t.Setenv("HTTP_ADDR", "8080")

	reg := prometheus.NewRegistry()
	metrics := pkgconfig.NewConfigMetricsWith(reg, "api")

	got := config.Load(quietLogger(), metrics)

	def := config.Default()
	assert.Equal(t, def.SettingsBackend, got.SettingsBackend)
	assert.Equal(t, fetch.PolicyBestEffort, got.RefreshPolicy)
	assert.Equal(t, def.FetchTimeout, got.FetchTimeout)
	assert.Equal(t, def.FetchParallelism, got.FetchParallelism)
	assert.Empty(t, got.RefreshCron)
	assert.Equal(t, def.HTTPAddr, got.HTTPAddr)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FallbackActive))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues("refresh_policy")))
	assert.Equal(t, 6, testutil.CollectAndCount(metrics.FallbacksTotal))
}
