// Package memory provides an in-process implementation of the article cache.
// It backs development runs without DATABASE_URL and the use case tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/repository"
)

// ArticleRepo is a thread-safe, in-memory article store.
// All public methods are safe for concurrent use; writes take the lock exclusively,
// so a ReplaceBySource is never observed half-done.
type ArticleRepo struct {
	mu     sync.RWMutex
	rows   []*entity.Article
	nextID int64
}

// NewArticleRepo creates an empty store.
func NewArticleRepo() *ArticleRepo {
	return &ArticleRepo{}
}

var _ repository.ArticleRepository = (*ArticleRepo)(nil)

func (r *ArticleRepo) InsertAll(ctx context.Context, articles []*entity.Article) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := entity.ValidateArticles(articles); err != nil {
		return fmt.Errorf("InsertAll: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appendLocked(articles)
	return nil
}

func (r *ArticleRepo) DeleteBySource(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteLocked(name)
	return nil
}

func (r *ArticleRepo) DeleteAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = nil
	return nil
}

func (r *ArticleRepo) ReplaceBySource(ctx context.Context, name string, articles []*entity.Article) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := entity.ValidateArticles(articles); err != nil {
		return fmt.Errorf("ReplaceBySource: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteLocked(name)
	r.appendLocked(articles)
	return nil
}

func (r *ArticleRepo) ListAll(ctx context.Context) ([]*entity.Article, error) {
	return r.list(ctx, func(*entity.Article) bool { return true })
}

func (r *ArticleRepo) ListBySources(ctx context.Context, names []string) ([]*entity.Article, error) {
	if len(names) == 0 {
		return []*entity.Article{}, nil
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return r.list(ctx, func(a *entity.Article) bool {
		_, ok := set[a.Source]
		return ok
	})
}

func (r *ArticleRepo) FindByLink(ctx context.Context, link string) (*entity.Article, error) {
	arts, err := r.list(ctx, func(a *entity.Article) bool { return a.Link == link })
	if err != nil {
		return nil, err
	}
	if len(arts) == 0 {
		return nil, entity.ErrNotFound
	}
	return arts[0], nil
}

func (r *ArticleRepo) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.rows)), nil
}

// list returns sorted copies of the rows accepted by keep.
func (r *ArticleRepo) list(ctx context.Context, keep func(*entity.Article) bool) ([]*entity.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]*entity.Article, 0, len(r.rows))
	for _, a := range r.rows {
		if keep(a) {
			cp := *a
			out = append(out, &cp)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return entity.Newer(out[i], out[j]) })
	return out, nil
}

func (r *ArticleRepo) appendLocked(articles []*entity.Article) {
	for _, a := range articles {
		r.nextID++
		cp := *a
		cp.ID = r.nextID
		r.rows = append(r.rows, &cp)
	}
}

func (r *ArticleRepo) deleteLocked(name string) {
	kept := r.rows[:0]
	for _, a := range r.rows {
		if a.Source != name {
			kept = append(kept, a)
		}
	}
	// drop references held past the new length
	for i := len(kept); i < len(r.rows); i++ {
		r.rows[i] = nil
	}
	r.rows = kept
}
