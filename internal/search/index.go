// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package search

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/olegiv/ocms-blog/internal/store"
)

// IndexFile is the SQLite file holding the index inside its directory.
const IndexFile = "index.db"

// DefaultMaxLimit caps the scored length reported for a query.
const DefaultMaxLimit = 500

var (
	// ErrIndexNotFound is returned when the index directory does not exist.
	ErrIndexNotFound = errors.New("search: index not found")
	// ErrInvalidQuery is returned when the index rejects a MATCH expression.
	ErrInvalidQuery = errors.New("search: invalid query")
)

const schema = `CREATE VIRTUAL TABLE IF NOT EXISTS posts_fts USING fts5(
	title,
	content,
	tokenize = 'unicode61 remove_diacritics 2'
)`

// Document is one indexed post. ID is stored as the FTS rowid.
type Document struct {
	ID      int64
	Title   string
	Content string
}

// Hits is one page of ranked post ids.
type Hits struct {
	IDs []int64
	// Total is the number of matching documents, capped at the index limit.
	Total    int64
	Page     int
	PageSize int
}

// Index is an FTS5 text index stored in its own SQLite file.
type Index struct {
	db       *sql.DB
	dir      string
	maxLimit int
}

// Option configures an Index.
type Option func(*Index)

// WithMaxLimit caps the scored length reported by SearchPage.
func WithMaxLimit(n int) Option {
	return func(ix *Index) {
		if n > 0 {
			ix.maxLimit = n
		}
	}
}

// Open opens the index stored in dir. A missing directory yields
// ErrIndexNotFound; the index table is created on first use.
func Open(dir string, opts ...Option) (*Index, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrIndexNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("checking index directory: %w", err)
	}
	if !info.IsDir() {
		return nil, ErrIndexNotFound
	}

	db, err := store.NewDB(filepath.Join(dir, IndexFile))
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating index table: %w", err)
	}

	ix := &Index{db: db, dir: dir, maxLimit: DefaultMaxLimit}
	for _, opt := range opts {
		opt(ix)
	}
	return ix, nil
}

// Create makes dir if needed and opens the index in it.
func Create(dir string, opts ...Option) (*Index, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}
	return Open(dir, opts...)
}

// Dir returns the directory the index lives in.
func (ix *Index) Dir() string {
	return ix.dir
}

// Close releases the index.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// Parse compiles a shaped query for this index.
func (ix *Index) Parse(shaped string) (Query, error) {
	return Parse(shaped)
}

// SearchPage returns the ids on page of a query ranked by bm25, together
// with the capped number of matching documents.
func (ix *Index) SearchPage(ctx context.Context, q Query, page, pageSize int) (Hits, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	hits := Hits{Page: page, PageSize: pageSize}

	err := ix.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM (
			SELECT rowid FROM posts_fts WHERE posts_fts MATCH ? LIMIT ?
		)`, q.Expr, ix.maxLimit).Scan(&hits.Total)
	if err != nil {
		return Hits{}, matchError(err)
	}
	offset := (page - 1) * pageSize
	if hits.Total == 0 || int64(offset) >= hits.Total {
		return hits, nil
	}

	rows, err := ix.db.QueryContext(ctx, `
		SELECT rowid FROM posts_fts
		WHERE posts_fts MATCH ?
		ORDER BY bm25(posts_fts), rowid DESC
		LIMIT ? OFFSET ?`, q.Expr, pageSize, offset)
	if err != nil {
		return Hits{}, matchError(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return Hits{}, err
		}
		hits.IDs = append(hits.IDs, id)
	}
	if err := rows.Err(); err != nil {
		return Hits{}, matchError(err)
	}
	return hits, nil
}

// Rebuild replaces the whole index content with docs in one transaction.
func (ix *Index) Rebuild(ctx context.Context, docs []Document) error {
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning rebuild: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM posts_fts`); err != nil {
		return fmt.Errorf("clearing index: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO posts_fts (rowid, title, content) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, d := range docs {
		if _, err := stmt.ExecContext(ctx, d.ID, d.Title, d.Content); err != nil {
			return fmt.Errorf("indexing post %d: %w", d.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing rebuild: %w", err)
	}
	return nil
}

// matchError maps FTS5 parse failures to ErrInvalidQuery.
func matchError(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "fts5: syntax error") || strings.Contains(msg, "no such column") ||
		strings.Contains(msg, "unterminated string") {
		return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return fmt.Errorf("searching index: %w", err)
}
