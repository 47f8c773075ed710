package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/resilience/retry"
	"news-aggregator/internal/usecase/fetch"
)

// Diagnostic statuses.
const (
	StatusOK        = "OK"
	StatusEmpty     = "EMPTY"
	StatusHTTPError = "HTTP_ERROR"
	StatusTimeout   = "TIMEOUT"
	StatusError     = "ERROR"
)

// FeedDiagnostic is the result of fetching one source once.
type FeedDiagnostic struct {
	Name         string `json:"name"`
	URL          string `json:"url"`
	Status       string `json:"status"`
	HTTPCode     int    `json:"http_code,omitempty"`
	ItemCount    int    `json:"item_count"`
	Rejected     int    `json:"rejected"`
	LatestDate   string `json:"latest_date,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	ResponseTime int64  `json:"response_time_ms"`
}

// Fetcher is satisfied by *fetch.SourceFetcher.
type Fetcher interface {
	Fetch(ctx context.Context, src entity.Source) fetch.Result
}

// diagnose fetches every source sequentially so response times are comparable.
func diagnose(ctx context.Context, sources []entity.Source, f Fetcher, progress func(i int, src entity.Source)) []FeedDiagnostic {
	out := make([]FeedDiagnostic, 0, len(sources))
	for i, src := range sources {
		if progress != nil {
			progress(i, src)
		}
		start := time.Now()
		res := f.Fetch(ctx, src)
		d := FeedDiagnostic{
			Name:         src.Name,
			URL:          src.FeedURL,
			ItemCount:    len(res.Articles),
			Rejected:     res.Rejected,
			ResponseTime: time.Since(start).Milliseconds(),
		}
		var httpErr *retry.HTTPError
		switch {
		case res.Err == nil && len(res.Articles) == 0:
			d.Status = StatusEmpty
		case res.Err == nil:
			d.Status = StatusOK
			d.LatestDate = res.Articles[0].PublishedAt.UTC().Format(time.RFC3339)
			for _, a := range res.Articles[1:] {
				if latest := a.PublishedAt.UTC().Format(time.RFC3339); latest > d.LatestDate {
					d.LatestDate = latest
				}
			}
		case errors.As(res.Err, &httpErr):
			d.Status, d.HTTPCode, d.ErrorMessage = StatusHTTPError, httpErr.StatusCode, res.Err.Error()
		case errors.Is(res.Err, context.DeadlineExceeded):
			d.Status, d.ErrorMessage = StatusTimeout, res.Err.Error()
		default:
			d.Status, d.ErrorMessage = StatusError, res.Err.Error()
		}
		out = append(out, d)
	}
	return out
}

func writeJSON(w io.Writer, diags []FeedDiagnostic) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(diags)
}

func writeMarkdown(w io.Writer, diags []FeedDiagnostic) error {
	healthy := 0
	for _, d := range diags {
		if d.Status == StatusOK {
			healthy++
		}
	}
	if _, err := fmt.Fprintf(w, "# Feed diagnostics\n\n%d of %d feeds healthy.\n\n", healthy, len(diags)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "| Source | Status | Items | Rejected | Latest | Time (ms) | Error |\n|---|---|---|---|---|---|---|"); err != nil {
		return err
	}
	for _, d := range diags {
		if _, err := fmt.Fprintf(w, "| %s | %s | %d | %d | %s | %d | %s |\n",
			d.Name, d.Status, d.ItemCount, d.Rejected, d.LatestDate, d.ResponseTime, d.ErrorMessage); err != nil {
			return err
		}
	}
	return nil
}
