// Package entity defines the core domain entities and validation logic for the application.
// It contains the fundamental business objects such as Article and Source, along with
// their validation rules and domain-specific errors.
package entity

import "time"

// Article represents a cached news article normalized from one RSS feed entry.
// ID is assigned by the store on insert and is not stable across refreshes.
// Link is the natural key: two articles with the same Link are the same article.
type Article struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Link        string    `json:"link" db:"link"`
	Description string    `json:"description,omitempty" db:"description"`
	ImageURL    string    `json:"image_url,omitempty" db:"image_url"`
	PublishedAt time.Time `json:"published_at" db:"published_at"`
	Source      string    `json:"source" db:"source"`
}

// SameArticle reports whether a and b identify the same article (same Link).
// Used for list diffing; use Equal to decide whether a re-render is needed.
func (a *Article) SameArticle(b *Article) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Link == b.Link
}

// Equal reports full field equality, including ID. A list whose articles
// are all SameArticle and Equal to the previous one needs no re-render.
func (a *Article) Equal(b *Article) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID &&
		a.Title == b.Title &&
		a.Link == b.Link &&
		a.Description == b.Description &&
		a.ImageURL == b.ImageURL &&
		a.PublishedAt.Equal(b.PublishedAt) &&
		a.Source == b.Source
}

// PublishedAtMillis returns the publication time as Unix epoch milliseconds.
func (a *Article) PublishedAtMillis() int64 {
	return a.PublishedAt.UnixMilli()
}

// Newer reports whether a sorts before b: PublishedAt descending, ties by ID ascending.
// This is the canonical ordering returned by every store query.
func Newer(a, b *Article) bool {
	if !a.PublishedAt.Equal(b.PublishedAt) {
		return a.PublishedAt.After(b.PublishedAt)
	}
	return a.ID < b.ID
}
