package article

import (
	"fmt"
	"strings"
	"time"

	"news-aggregator/internal/domain/entity"
)

// Match reports whether a matches the free-text query: a case-insensitive
// substring of the title, the description or the source name.
// A blank query matches every article.
func Match(a *entity.Article, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(a.Title), q) ||
		strings.Contains(strings.ToLower(a.Description), q) ||
		strings.Contains(strings.ToLower(a.Source), q)
}

// Filter returns the articles matching query in their original order.
// The input slice is never modified.
func Filter(articles []*entity.Article, query string) []*entity.Article {
	out := make([]*entity.Article, 0, len(articles))
	for _, a := range articles {
		if Match(a, query) {
			out = append(out, a)
		}
	}
	return out
}

// TimeAgo renders t relative to now, e.g. "5 minutes ago".
// Anything older than a week is shown as a date.
func TimeAgo(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute")
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour")
	case d < 48*time.Hour:
		return "yesterday"
	case d < 7*24*time.Hour:
		return plural(int(d/(24*time.Hour)), "day")
	default:
		return t.In(now.Location()).Format("Jan 2, 2006")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
