package db

import (
	"context"
	"database/sql"
	"fmt"
)

var upStatements = []string{
	`CREATE TABLE IF NOT EXISTS articles (
    id           BIGSERIAL PRIMARY KEY,
    title        TEXT NOT NULL CHECK (title <> ''),
    link         TEXT NOT NULL CHECK (link <> ''),
    description  TEXT,
    image_url    TEXT,
    published_at TIMESTAMPTZ NOT NULL,
    source       TEXT NOT NULL CHECK (source <> '')
)`,
	// delete-by-source inside every replace
	`CREATE INDEX IF NOT EXISTS idx_articles_source ON articles(source)`,
	// every list query orders by recency
	`CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles(published_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_link ON articles(link)`,
}

var downStatements = []string{
	`DROP INDEX IF EXISTS idx_articles_link`,
	`DROP INDEX IF EXISTS idx_articles_published_at`,
	`DROP INDEX IF EXISTS idx_articles_source`,
	`DROP TABLE IF EXISTS articles`,
}

// MigrateUp creates the articles table and its indexes. It is idempotent.
// link is indexed but not unique: the same URL may be published by two feeds.
func MigrateUp(ctx context.Context, db *sql.DB) error {
	return exec(ctx, db, "MigrateUp", upStatements)
}

// MigrateDown drops the cache schema. All cached articles are lost.
func MigrateDown(ctx context.Context, db *sql.DB) error {
	return exec(ctx, db, "MigrateDown", downStatements)
}

func exec(ctx context.Context, db *sql.DB, op string, stmts []string) error {
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: statement %d: %w", op, i+1, err)
		}
	}
	return nil
}
