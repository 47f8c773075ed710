// Package scraper downloads and parses RSS/Atom feeds.
// It uses the gofeed library to parse feed content with reliability patterns.
package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"

	"news-aggregator/internal/observability/metrics"
	"news-aggregator/internal/resilience/circuitbreaker"
	"news-aggregator/internal/resilience/retry"
	"news-aggregator/internal/usecase/fetch"
)

const (
	// DefaultUserAgent is sent with every feed request.
	DefaultUserAgent = "NewsAggregatorBot/1.0"
	// DefaultMaxFeedBytes caps the body read from one feed.
	DefaultMaxFeedBytes int64 = 10 << 20

	acceptHeader = "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.5"
)

// ErrFeedTooLarge is returned for feeds whose body exceeds the configured limit.
var ErrFeedTooLarge = errors.New("feed too large")

// RSSParser implements fetch.FeedParser using the gofeed library.
// Each feed host gets its own circuit breaker; every download is retried
// with backoff on transient failures.
type RSSParser struct {
	client      *http.Client
	breakers    *circuitbreaker.Set
	retryConfig retry.Config
	userAgent   string
	maxBytes    int64
}

// Option customizes an RSSParser.
type Option func(*RSSParser)

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(p *RSSParser) { p.userAgent = ua }
}

// WithRetryConfig overrides retry.FeedFetchConfig.
func WithRetryConfig(cfg retry.Config) Option {
	return func(p *RSSParser) { p.retryConfig = cfg }
}

// WithMaxBytes overrides DefaultMaxFeedBytes.
func WithMaxBytes(n int64) Option {
	return func(p *RSSParser) { p.maxBytes = n }
}

// NewRSSParser creates a parser that downloads feeds with client.
// A nil client gets a 30 second timeout.
func NewRSSParser(client *http.Client, opts ...Option) *RSSParser {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	p := &RSSParser{
		client:      client,
		breakers:    circuitbreaker.NewSet(breakerConfig),
		retryConfig: retry.FeedFetchConfig(),
		userAgent:   DefaultUserAgent,
		maxBytes:    DefaultMaxFeedBytes,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func breakerConfig(host string) circuitbreaker.Config {
	cfg := circuitbreaker.FeedConfig("feed:" + host)
	cfg.OnStateChange = func(name string, _, to gobreaker.State) {
		metrics.UpdateCircuitState(name, int(to))
	}
	return cfg
}

// Breakers exposes the per-host circuit breakers, e.g. for health output.
func (p *RSSParser) Breakers() *circuitbreaker.Set { return p.breakers }

// Parse retrieves and parses the feed at feedURL.
func (p *RSSParser) Parse(ctx context.Context, feedURL string) ([]fetch.FeedItem, error) {
	u, err := url.Parse(feedURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("Parse: invalid feed url %q", feedURL)
	}
	cb := p.breakers.For(u.Host)

	var items []fetch.FeedItem
	err = retry.WithBackoff(ctx, p.retryConfig, func() error {
		res, err := cb.Execute(func() (interface{}, error) {
			return p.download(ctx, feedURL)
		})
		if err != nil {
			if errors.Is(err, circuitbreaker.ErrOpenState) {
				slog.Warn("feed circuit breaker open, request rejected",
					slog.String("circuit", cb.Name()),
					slog.String("url", feedURL))
			}
			return err
		}
		items = res.([]fetch.FeedItem)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("Parse: %w", err)
	}
	return items, nil
}

// download performs one request without retry or circuit breaker.
func (p *RSSParser) download(ctx context.Context, feedURL string) ([]fetch.FeedItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", acceptHeader)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, retry.ResponseError(resp, time.Now())
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}
	if int64(len(body)) > p.maxBytes {
		return nil, fmt.Errorf("%w: over %d bytes", ErrFeedTooLarge, p.maxBytes)
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	items := make([]fetch.FeedItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil {
			continue
		}
		items = append(items, toFeedItem(it))
	}
	return items, nil
}

func toFeedItem(it *gofeed.Item) fetch.FeedItem {
	item := fetch.FeedItem{
		Title:       it.Title,
		Link:        it.Link,
		Description: it.Description,
	}
	if item.Description == "" {
		item.Description = it.Content
	}

	switch {
	case it.PublishedParsed != nil:
		item.PublishedAt = it.PublishedParsed
	case it.UpdatedParsed != nil:
		item.PublishedAt = it.UpdatedParsed
	}

	item.Image = resolve(it.Link, imageOf(it))
	return item
}

// imageOf picks a thumbnail: the item image, then an image enclosure, then
// the first <img> in the content or description.
func imageOf(it *gofeed.Item) string {
	if it.Image != nil && strings.TrimSpace(it.Image.URL) != "" {
		return strings.TrimSpace(it.Image.URL)
	}
	for _, enc := range it.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return enc.URL
		}
	}
	if src := firstImage(it.Content); src != "" {
		return src
	}
	return firstImage(it.Description)
}

// firstImage returns the src of the first <img> in an HTML fragment.
func firstImage(html string) string {
	if !strings.Contains(html, "<img") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img[src]").First().Attr("src")
	return strings.TrimSpace(src)
}

// resolve makes ref absolute against base. Unparseable input yields ref.
func resolve(base, ref string) string {
	if ref == "" {
		return ""
	}
	r, err := url.Parse(ref)
	if err != nil || r.IsAbs() {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil || !b.IsAbs() {
		return ref
	}
	return b.ResolveReference(r).String()
}
