// Package repository declares the persistence ports used by the use case layer.
package repository

import (
	"context"

	"news-aggregator/internal/domain/entity"
)

// ArticleRepository is the durable article cache.
//
// Every query returns articles ordered by PublishedAt descending (ties by ID ascending).
// ReplaceBySource must be atomic with respect to concurrent readers: a reader observes
// either the old rows of that source or the new ones, never a mix or neither.
type ArticleRepository interface {
	// InsertAll stores the articles, assigning fresh IDs. Caller-set IDs are ignored.
	InsertAll(ctx context.Context, articles []*entity.Article) error
	// DeleteBySource removes every row whose source equals name.
	DeleteBySource(ctx context.Context, name string) error
	// DeleteAll removes every row.
	DeleteAll(ctx context.Context) error
	// ReplaceBySource deletes all rows of the source and inserts articles in one atomic step.
	ReplaceBySource(ctx context.Context, name string, articles []*entity.Article) error
	ListAll(ctx context.Context) ([]*entity.Article, error)
	// ListBySources returns the rows whose source is in names. Empty names yields no rows.
	ListBySources(ctx context.Context, names []string) ([]*entity.Article, error)
	// FindByLink returns the first stored article with the given link, or entity.ErrNotFound.
	FindByLink(ctx context.Context, link string) (*entity.Article, error)
	Count(ctx context.Context) (int64, error)
}
