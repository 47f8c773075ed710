package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"news-aggregator/internal/domain/entity"
	hhttp "news-aggregator/internal/handler/http"
	"news-aggregator/internal/handler/http/requestid"
	"news-aggregator/internal/infra/adapter/persistence/memory"
	"news-aggregator/internal/infra/settings"
	"news-aggregator/internal/usecase/article"
	"news-aggregator/internal/usecase/fetch"
	"news-aggregator/internal/usecase/session"
)

func init() { gin.SetMode(gin.TestMode) }

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type blockingRefresher struct {
	mu      sync.Mutex
	release chan struct{}
	calls   int
}

func (b *blockingRefresher) Refresh(ctx context.Context, selected []string) (*fetch.RefreshReport, error) {
	b.mu.Lock()
	b.calls++
	release := b.release
	b.mu.Unlock()
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &fetch.RefreshReport{RunID: "run-1"}, nil
}

type fixture struct {
	store     *article.LiveStore
	sess      *session.Session
	refresher *blockingRefresher
	router    *gin.Engine
}

type option func(*hhttp.Config)

func newFixture(t *testing.T, refresher *blockingRefresher, opts ...option) *fixture {
	t.Helper()
	reg, err := entity.NewRegistry([]entity.Source{
		{Name: "VOA Amharic", FeedURL: "https://voa.example/rss"},
		{Name: "Addis Standard", FeedURL: "https://addis.example/rss"},
		{Name: "Aiga News", FeedURL: "https://aiga.example/rss"},
	})
	require.NoError(t, err)
	if refresher == nil {
		refresher = &blockingRefresher{}
	}

	store := article.NewLiveStore(memory.NewArticleRepo())
	sess, err := session.New(context.Background(), session.Config{
		Registry:  reg,
		Store:     store,
		Settings:  settings.NewFileStore(filepath.Join(t.TempDir(), "settings.yaml")),
		Refresher: refresher,
		View:      article.ViewConfig{Debounce: -1},
	})
	require.NoError(t, err)
	t.Cleanup(sess.Close)

	cfg := hhttp.Config{Session: sess, Version: "test", Now: func() time.Time { return now }}
	for _, o := range opts {
		o(&cfg)
	}
	return &fixture{store: store, sess: sess, refresher: refresher, router: hhttp.NewRouter(cfg)}
}

func (fx *fixture) seed(t *testing.T) {
	t.Helper()
	require.NoError(t, fx.store.InsertAll(context.Background(), []*entity.Article{
		{Title: "Ethiopia news", Link: "https://voa.example/1", Source: "VOA Amharic", PublishedAt: now.Add(-5 * time.Minute)},
		{Title: "Business", Link: "https://addis.example/2", Source: "Addis Standard", PublishedAt: now.Add(-3 * time.Hour)},
		{Title: "Politics", Link: "https://aiga.example/3", Source: "Aiga News", PublishedAt: now.Add(-30 * time.Hour)},
	}))
	require.Eventually(t, func() bool { return len(fx.sess.Articles()) == 3 }, 2*time.Second, 5*time.Millisecond)
}

func (fx *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func links(resp hhttp.ArticlesResponse) []string {
	out := make([]string, len(resp.Articles))
	for i, a := range resp.Articles {
		out[i] = a.Link
	}
	return out
}

func TestHealth(t *testing.T) {
	fx := newFixture(t, nil)

	rec := fx.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[hhttp.HealthResponse](t, rec).Status)
	assert.NotEmpty(t, rec.Header().Get(requestid.RequestIDHeader))
}

func TestReady(t *testing.T) {
	healthy := true
	fx := newFixture(t, nil, func(c *hhttp.Config) {
		c.Checks = map[string]hhttp.Check{"database": func(context.Context) error {
			if healthy {
				return nil
			}
			return fmt.Errorf("dial postgres://news:hunter2@db failed")
		}}
	})

	rec := fx.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	healthy = false
	rec = fx.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decode[hhttp.HealthResponse](t, rec)
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, "dial postgres://news:****@db failed", resp.Checks["database"].Message)
}

func TestMetricsEndpoint(t *testing.T) {
	fx := newFixture(t, nil)
	fx.do(t, http.MethodGet, "/health", "")

	rec := fx.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestListArticles_LiveView(t *testing.T) {
	fx := newFixture(t, nil)
	fx.seed(t)

	rec := fx.do(t, http.MethodGet, "/api/articles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[hhttp.ArticlesResponse](t, rec)

	assert.Equal(t, 3, resp.Count)
	assert.Equal(t, []string{"VOA Amharic", "Addis Standard", "Aiga News"}, resp.Sources)
	assert.Equal(t, []string{"https://voa.example/1", "https://addis.example/2", "https://aiga.example/3"}, links(resp))
	assert.Equal(t, "5 minutes ago", resp.Articles[0].TimeAgo)
	assert.Equal(t, "3 hours ago", resp.Articles[1].TimeAgo)
	assert.Equal(t, "yesterday", resp.Articles[2].TimeAgo)
}

func TestListArticles_Search(t *testing.T) {
	fx := newFixture(t, nil)
	fx.seed(t)

	tests := []struct {
		name  string
		path  string
		code  int
		links []string
	}{
		{"query", "/api/articles?q=ETHIO", http.StatusOK, []string{"https://voa.example/1"}},
		{"query matches source", "/api/articles?q=aiga", http.StatusOK, []string{"https://aiga.example/3"}},
		{"sources", "/api/articles?sources=Aiga%20News,%20,Addis%20Standard", http.StatusOK, []string{"https://addis.example/2", "https://aiga.example/3"}},
		{"blank query", "/api/articles?q=", http.StatusOK, []string{"https://voa.example/1", "https://addis.example/2", "https://aiga.example/3"}},
		{"unknown source", "/api/articles?sources=Nope", http.StatusBadRequest, nil},
		{"query too long", "/api/articles?q=" + strings.Repeat("a", 300), http.StatusBadRequest, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := fx.do(t, http.MethodGet, tt.path, "")
			require.Equal(t, tt.code, rec.Code, rec.Body.String())
			if tt.code == http.StatusOK {
				assert.Equal(t, tt.links, links(decode[hhttp.ArticlesResponse](t, rec)))
			}
		})
	}
	assert.Equal(t, "", fx.sess.Query(), "searches leave the live query alone")
}

func TestSetQuery(t *testing.T) {
	fx := newFixture(t, nil)
	fx.seed(t)

	rec := fx.do(t, http.MethodPut, "/api/query", `{"query":"business"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = fx.do(t, http.MethodGet, "/api/articles", "")
	resp := decode[hhttp.ArticlesResponse](t, rec)
	assert.Equal(t, "business", resp.Query)
	assert.Equal(t, []string{"https://addis.example/2"}, links(resp))

	rec = fx.do(t, http.MethodPut, "/api/query", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOpenArticle(t *testing.T) {
	fx := newFixture(t, nil)
	fx.seed(t)

	rec := fx.do(t, http.MethodGet, "/api/articles/open?link=https://addis.example/2", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://addis.example/2", rec.Header().Get("Location"))

	rec = fx.do(t, http.MethodGet, "/api/articles/open?link=https://evil.example/", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "article not found", decode[map[string]string](t, rec)["error"])

	rec = fx.do(t, http.MethodGet, "/api/articles/open", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClearArticles(t *testing.T) {
	fx := newFixture(t, nil)
	fx.seed(t)

	rec := fx.do(t, http.MethodDelete, "/api/articles", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	n, err := fx.store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	require.Eventually(t, func() bool { return len(fx.sess.Articles()) == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestRefresh(t *testing.T) {
	ref := &blockingRefresher{release: make(chan struct{})}
	fx := newFixture(t, ref)

	rec := fx.do(t, http.MethodPost, "/api/refresh", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.True(t, decode[session.Status](t, rec).Loading)

	rec = fx.do(t, http.MethodPost, "/api/refresh", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(ref.release)
	require.Eventually(t, func() bool { return !fx.sess.Status().Loading }, 2*time.Second, 5*time.Millisecond)

	rec = fx.do(t, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[session.Status](t, rec)
	assert.False(t, st.Loading)
	assert.Empty(t, st.Error)
	require.NotNil(t, st.LastReport)
	assert.Equal(t, "run-1", st.LastReport.RunID)
}

func TestRefresh_RateLimited(t *testing.T) {
	fx := newFixture(t, nil, func(c *hhttp.Config) {
		c.RefreshLimiter = rate.NewLimiter(rate.Every(time.Minute), 1)
	})

	rec := fx.do(t, http.MethodPost, "/api/refresh", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Eventually(t, func() bool { return !fx.sess.Status().Loading }, 2*time.Second, 5*time.Millisecond)

	rec = fx.do(t, http.MethodPost, "/api/refresh", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestSources(t *testing.T) {
	fx := newFixture(t, nil)
	require.NoError(t, fx.sess.SetSelectedSources(context.Background(), []string{"Aiga News"}))

	rec := fx.do(t, http.MethodGet, "/api/sources", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []hhttp.SourceDTO{
		{Name: "VOA Amharic", URL: "https://voa.example/rss", Selected: false},
		{Name: "Addis Standard", URL: "https://addis.example/rss", Selected: false},
		{Name: "Aiga News", URL: "https://aiga.example/rss", Selected: true},
	}, decode[[]hhttp.SourceDTO](t, rec))
}

func TestSettings(t *testing.T) {
	fx := newFixture(t, nil)

	rec := fx.do(t, http.MethodGet, "/api/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, hhttp.SettingsDTO{
		DarkMode:        false,
		SelectedSources: []string{"VOA Amharic", "Addis Standard", "Aiga News"},
	}, decode[hhttp.SettingsDTO](t, rec))

	rec = fx.do(t, http.MethodPut, "/api/settings", `{"dark_mode":true,"selected_sources":["Aiga News","VOA Amharic"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, hhttp.SettingsDTO{
		DarkMode:        true,
		SelectedSources: []string{"VOA Amharic", "Aiga News"},
	}, decode[hhttp.SettingsDTO](t, rec))

	rec = fx.do(t, http.MethodPut, "/api/settings", `{"dark_mode":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[hhttp.SettingsDTO](t, rec)
	assert.False(t, got.DarkMode)
	assert.Equal(t, []string{"VOA Amharic", "Aiga News"}, got.SelectedSources, "absent selection is unchanged")
}

func TestSettings_RejectsInvalidSelection(t *testing.T) {
	fx := newFixture(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{"empty selection", `{"dark_mode":true,"selected_sources":[]}`},
		{"unknown source", `{"dark_mode":true,"selected_sources":["Nope"]}`},
		{"malformed", `{"dark_mode":"yes"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := fx.do(t, http.MethodPut, "/api/settings", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	dark, err := fx.sess.DarkMode(context.Background())
	require.NoError(t, err)
	assert.False(t, dark, "rejected updates change nothing")
	assert.Len(t, fx.sess.SelectedSources(), 3)
}

func TestEvents(t *testing.T) {
	fx := newFixture(t, nil)
	fx.seed(t)
	srv := httptest.NewServer(fx.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	seen := map[string]string{}
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	var event string
	for scanner.Scan() && len(seen) < 2 {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimPrefix(line, "event:")
		case strings.HasPrefix(line, "data:") && event != "":
			seen[event] = strings.TrimPrefix(line, "data:")
			event = ""
		}
	}
	require.Contains(t, seen, "articles")
	require.Contains(t, seen, "status")

	var list hhttp.ArticlesResponse
	require.NoError(t, json.Unmarshal([]byte(seen["articles"]), &list))
	assert.Equal(t, 3, list.Count)

	var st session.Status
	require.NoError(t, json.Unmarshal([]byte(seen["status"]), &st))
	assert.False(t, st.Loading)
}
