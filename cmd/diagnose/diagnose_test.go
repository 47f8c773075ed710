package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/resilience/retry"
	"news-aggregator/internal/usecase/fetch"
)

type stubFetcher map[string]fetch.Result

func (s stubFetcher) Fetch(_ context.Context, src entity.Source) fetch.Result {
	return s[src.Name]
}

var published = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

func testSources() []entity.Source {
	return []entity.Source{
		{Name: "Healthy", FeedURL: "https://ok.example/rss"},
		{Name: "Quiet", FeedURL: "https://empty.example/rss"},
		{Name: "Gone", FeedURL: "https://gone.example/rss"},
		{Name: "Slow", FeedURL: "https://slow.example/rss"},
		{Name: "Broken", FeedURL: "https://broken.example/rss"},
	}
}

func testFetcher() stubFetcher {
	return stubFetcher{
		"Healthy": {Articles: []*entity.Article{
			{Link: "https://ok.example/1", PublishedAt: published.Add(-time.Hour)},
			{Link: "https://ok.example/2", PublishedAt: published},
		}, Rejected: 1},
		"Quiet": {},
		"Gone": {Err: fmt.Errorf("%w: Gone: %w", fetch.ErrFeedFetchFailed,
			&retry.HTTPError{StatusCode: http.StatusNotFound, Message: "404 Not Found"})},
		"Slow":   {Err: fmt.Errorf("%w: Slow: %w", fetch.ErrFeedFetchFailed, context.DeadlineExceeded)},
		"Broken": {Err: errors.New("parse feed: unexpected EOF")},
	}
}

func TestDiagnose(t *testing.T) {
	var visited []string
	diags := diagnose(context.Background(), testSources(), testFetcher(), func(_ int, src entity.Source) {
		visited = append(visited, src.Name)
	})

	require.Len(t, diags, 5)
	assert.Equal(t, []string{"Healthy", "Quiet", "Gone", "Slow", "Broken"}, visited)

	assert.Equal(t, StatusOK, diags[0].Status)
	assert.Equal(t, 2, diags[0].ItemCount)
	assert.Equal(t, 1, diags[0].Rejected)
	assert.Equal(t, "2026-05-01T08:00:00Z", diags[0].LatestDate)

	assert.Equal(t, StatusEmpty, diags[1].Status)

	assert.Equal(t, StatusHTTPError, diags[2].Status)
	assert.Equal(t, http.StatusNotFound, diags[2].HTTPCode)

	assert.Equal(t, StatusTimeout, diags[3].Status)
	assert.Equal(t, StatusError, diags[4].Status)
	assert.Contains(t, diags[4].ErrorMessage, "unexpected EOF")
}

func TestWriteReports(t *testing.T) {
	diags := diagnose(context.Background(), testSources(), testFetcher(), nil)

	var md bytes.Buffer
	require.NoError(t, writeMarkdown(&md, diags))
	assert.Contains(t, md.String(), "1 of 5 feeds healthy.")
	assert.Contains(t, md.String(), "| Gone | HTTP_ERROR |")

	var js bytes.Buffer
	require.NoError(t, writeJSON(&js, diags))
	var decoded []FeedDiagnostic
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Equal(t, diags, decoded)
}
