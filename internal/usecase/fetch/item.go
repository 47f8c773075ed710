package fetch

import (
	"strings"
	"time"

	"news-aggregator/internal/domain/entity"
)

// FeedItem is one raw entry as produced by a FeedParser.
// Empty strings and a nil PublishedAt mean the field was absent in the feed.
type FeedItem struct {
	Title       string
	Link        string
	Description string
	Image       string
	PublishedAt *time.Time
}

// Reject reasons reported by RejectReason.
const (
	RejectMissingTitle = "missing_title"
	RejectMissingLink  = "missing_link"
)

// RejectReason returns why item cannot become an article, or "" if it can.
func RejectReason(item FeedItem) string {
	if strings.TrimSpace(item.Title) == "" {
		return RejectMissingTitle
	}
	if strings.TrimSpace(item.Link) == "" {
		return RejectMissingLink
	}
	return ""
}

// ToArticle converts a feed entry into an article for source.
//
// It rejects entries whose title or link is blank. A missing publication
// time is replaced by now; callers pass the same now for every item of one
// fetch. Title and link are trimmed; description and image pass through
// unchanged, so the description is untrusted markup.
func ToArticle(item FeedItem, source string, now time.Time) (*entity.Article, bool) {
	if RejectReason(item) != "" {
		return nil, false
	}

	published := now
	if item.PublishedAt != nil && !item.PublishedAt.IsZero() {
		published = *item.PublishedAt
	}

	return &entity.Article{
		Title:       strings.TrimSpace(item.Title),
		Link:        strings.TrimSpace(item.Link),
		Description: item.Description,
		ImageURL:    item.Image,
		PublishedAt: published.UTC().Truncate(time.Millisecond),
		Source:      source,
	}, true
}
