package article_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/usecase/article"
)

func TestMatch(t *testing.T) {
	a := &entity.Article{
		Title:       "Ethiopia Insight launches",
		Description: "ETHIO update",
		Source:      "Addis Standard",
	}

	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{"empty query matches", "", true},
		{"blank query matches", "   ", true},
		{"title lower case", "ethio", true},
		{"title mixed case", "InSiGhT", true},
		{"description", "update", true},
		{"source", "addis", true},
		{"surrounding whitespace ignored", "  standard ", true},
		{"no field contains it", "nairobi", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := article.Match(a, tt.query); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestFilter_CaseInsensitiveOnAnyField(t *testing.T) {
	byTitle := &entity.Article{Title: "Ethiopia Insight launches", Link: "l1", Source: "Addis Standard"}
	byDescription := &entity.Article{Title: "Weekly digest", Description: "ETHIO update", Link: "l2", Source: "Aiga News"}
	bySource := &entity.Article{Title: "Market report", Link: "l3", Source: "Ethiopia Nege"}
	unrelated := &entity.Article{Title: "Weather", Description: "Rain expected", Link: "l4", Source: "Debteraw"}
	in := []*entity.Article{byTitle, unrelated, byDescription, bySource}

	got := article.Filter(in, "ethio")

	want := []*entity.Article{byTitle, byDescription, bySource}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Filter() mismatch (-want +got):\n%s", diff)
	}
	if len(in) != 4 || in[1] != unrelated {
		t.Error("Filter() modified its input")
	}
}

func TestFilter_EmptyQueryPassesThrough(t *testing.T) {
	in := []*entity.Article{{Title: "a", Link: "a"}, {Title: "b", Link: "b"}}
	if diff := cmp.Diff(in, article.Filter(in, "")); diff != "" {
		t.Errorf("Filter() mismatch (-want +got):\n%s", diff)
	}
	if got := article.Filter(nil, "x"); len(got) != 0 {
		t.Errorf("Filter(nil) = %v, want empty", got)
	}
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{-time.Hour, "just now"},
		{30 * time.Second, "just now"},
		{time.Minute, "1 minute ago"},
		{5 * time.Minute, "5 minutes ago"},
		{time.Hour, "1 hour ago"},
		{23 * time.Hour, "23 hours ago"},
		{30 * time.Hour, "yesterday"},
		{3 * 24 * time.Hour, "3 days ago"},
		{10 * 24 * time.Hour, "May 10, 2024"},
	}
	for _, tt := range tests {
		if got := article.TimeAgo(now.Add(-tt.ago), now); got != tt.want {
			t.Errorf("TimeAgo(-%v) = %q, want %q", tt.ago, got, tt.want)
		}
	}
}
