package http

import (
	"time"

	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/usecase/article"
)

// ArticleDTO is an article as rendered by the API.
type ArticleDTO struct {
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
	// TimeAgo is PublishedAt relative to the response time, e.g. "3 hours ago".
	TimeAgo string `json:"time_ago"`
}

// ArticlesResponse is the body of GET /api/articles and of SSE article events.
type ArticlesResponse struct {
	Query    string       `json:"query"`
	Sources  []string     `json:"sources"`
	Count    int          `json:"count"`
	Articles []ArticleDTO `json:"articles"`
}

// SourceDTO is a registered source with its selection state.
type SourceDTO struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Selected bool   `json:"selected"`
}

// SettingsDTO carries the persisted preferences.
type SettingsDTO struct {
	DarkMode        bool     `json:"dark_mode"`
	SelectedSources []string `json:"selected_sources"`
}

// UpdateSettingsRequest changes only the fields that are present.
type UpdateSettingsRequest struct {
	DarkMode        *bool    `json:"dark_mode"`
	SelectedSources []string `json:"selected_sources"`
}

// QueryRequest is the body of PUT /api/query.
type QueryRequest struct {
	Query string `json:"query"`
}

func toArticlesResponse(query string, sources []string, arts []*entity.Article, now time.Time) ArticlesResponse {
	out := make([]ArticleDTO, len(arts))
	for i, a := range arts {
		out[i] = ArticleDTO{
			Title:       a.Title,
			Link:        a.Link,
			Description: a.Description,
			ImageURL:    a.ImageURL,
			Source:      a.Source,
			PublishedAt: a.PublishedAt,
			TimeAgo:     article.TimeAgo(a.PublishedAt, now),
		}
	}
	if sources == nil {
		sources = []string{}
	}
	return ArticlesResponse{Query: query, Sources: sources, Count: len(out), Articles: out}
}
