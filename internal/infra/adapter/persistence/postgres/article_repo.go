// Package postgres provides the PostgreSQL implementation of the article cache.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/repository"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const selectColumns = `
SELECT id, title, link, COALESCE(description, '') AS description,
       COALESCE(image_url, '') AS image_url, published_at, source
FROM articles`

const insertArticle = `
INSERT INTO articles (title, link, description, image_url, published_at, source)
VALUES ($1, $2, $3, $4, $5, $6)`

// ChangesChannel is the LISTEN/NOTIFY channel every write announces itself on.
// The payload is the source name; an empty payload means every source.
const ChangesChannel = "articles_changed"

const notifyChange = `SELECT pg_notify($1, $2)`

// ArticleRepo implements repository.ArticleRepository on PostgreSQL.
// Per-source replacement runs in a single transaction, so readers on READ COMMITTED
// see either the previous rows of a source or the new batch. Each write
// transaction also notifies ChangesChannel, delivered to listeners on commit.
type ArticleRepo struct {
	db *sqlx.DB
}

// NewArticleRepo wraps an opened *sql.DB (pgx stdlib driver).
func NewArticleRepo(db *sql.DB) repository.ArticleRepository {
	return &ArticleRepo{db: sqlx.NewDb(db, "pgx")}
}

func (repo *ArticleRepo) InsertAll(ctx context.Context, articles []*entity.Article) error {
	if len(articles) == 0 {
		return nil
	}
	if err := entity.ValidateArticles(articles); err != nil {
		return fmt.Errorf("InsertAll: %w", err)
	}
	return repo.inTx(ctx, "InsertAll", func(tx *sqlx.Tx) error {
		if err := insertRows(ctx, tx, articles); err != nil {
			return err
		}
		return notify(ctx, tx, sourcesOf(articles)...)
	})
}

func (repo *ArticleRepo) DeleteBySource(ctx context.Context, name string) error {
	return repo.inTx(ctx, "DeleteBySource", func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM articles WHERE source = $1`, name); err != nil {
			return fmt.Errorf("ExecContext: %w", err)
		}
		return notify(ctx, tx, name)
	})
}

func (repo *ArticleRepo) DeleteAll(ctx context.Context) error {
	return repo.inTx(ctx, "DeleteAll", func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM articles`); err != nil {
			return fmt.Errorf("ExecContext: %w", err)
		}
		return notify(ctx, tx, "")
	})
}

func (repo *ArticleRepo) ReplaceBySource(ctx context.Context, name string, articles []*entity.Article) error {
	if err := entity.ValidateArticles(articles); err != nil {
		return fmt.Errorf("ReplaceBySource: %w", err)
	}
	return repo.inTx(ctx, "ReplaceBySource", func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM articles WHERE source = $1`, name); err != nil {
			return fmt.Errorf("delete: %w", err)
		}
		if err := insertRows(ctx, tx, articles); err != nil {
			return err
		}
		return notify(ctx, tx, name)
	})
}

func (repo *ArticleRepo) ListAll(ctx context.Context) ([]*entity.Article, error) {
	const query = selectColumns + `
ORDER BY published_at DESC, id ASC`

	articles := make([]*entity.Article, 0, 100)
	if err := repo.db.SelectContext(ctx, &articles, query); err != nil {
		return nil, fmt.Errorf("ListAll: SelectContext: %w", err)
	}
	return articles, nil
}

func (repo *ArticleRepo) ListBySources(ctx context.Context, names []string) ([]*entity.Article, error) {
	if len(names) == 0 {
		return []*entity.Article{}, nil
	}
	const query = selectColumns + `
WHERE source = ANY($1)
ORDER BY published_at DESC, id ASC`

	articles := make([]*entity.Article, 0, 100)
	if err := repo.db.SelectContext(ctx, &articles, query, pq.Array(names)); err != nil {
		return nil, fmt.Errorf("ListBySources: SelectContext: %w", err)
	}
	return articles, nil
}

func (repo *ArticleRepo) FindByLink(ctx context.Context, link string) (*entity.Article, error) {
	const query = selectColumns + `
WHERE link = $1
ORDER BY published_at DESC, id ASC
LIMIT 1`

	var article entity.Article
	if err := repo.db.GetContext(ctx, &article, query, link); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrNotFound
		}
		return nil, fmt.Errorf("FindByLink: GetContext: %w", err)
	}
	return &article, nil
}

func (repo *ArticleRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := repo.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM articles`); err != nil {
		return 0, fmt.Errorf("Count: GetContext: %w", err)
	}
	return n, nil
}

// inTx runs fn in a transaction, rolling back on error.
func (repo *ArticleRepo) inTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: BeginTxx: %w", op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: Commit: %w", op, err)
	}
	return nil
}

func insertRows(ctx context.Context, tx *sqlx.Tx, articles []*entity.Article) error {
	for _, a := range articles {
		_, err := tx.ExecContext(ctx, insertArticle,
			a.Title, a.Link, nullString(a.Description), nullString(a.ImageURL),
			a.PublishedAt, a.Source,
		)
		if err != nil {
			return fmt.Errorf("insert %q: %w", a.Link, err)
		}
	}
	return nil
}

// notify queues one notification per source; postgres folds duplicates
// within a transaction.
func notify(ctx context.Context, tx *sqlx.Tx, sources ...string) error {
	for _, src := range sources {
		if _, err := tx.ExecContext(ctx, notifyChange, ChangesChannel, src); err != nil {
			return fmt.Errorf("notify %q: %w", src, err)
		}
	}
	return nil
}

func sourcesOf(articles []*entity.Article) []string {
	seen := make(map[string]struct{}, 1)
	out := make([]string, 0, 1)
	for _, a := range articles {
		if _, ok := seen[a.Source]; !ok {
			seen[a.Source] = struct{}{}
			out = append(out, a.Source)
		}
	}
	return out
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
