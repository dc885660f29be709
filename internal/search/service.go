// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/olegiv/ocms-blog/internal/blog"
	"github.com/olegiv/ocms-blog/internal/model"
	"github.com/olegiv/ocms-blog/internal/util"
)

// ErrSearchDisabled is returned when no index directory is configured.
var ErrSearchDisabled = errors.New("search: disabled")

// IndexDir returns <root>/<dbName>/search/<dir>/<locale>. An empty dir
// disables search. Components may not escape root.
func IndexDir(root, dbName, dir, locale string) (string, error) {
	if dir == "" {
		return "", ErrSearchDisabled
	}
	return util.JoinWithin(root, dbName, "search", dir, strings.ToLower(locale))
}

// PostLookup returns visible posts among ids in the order given.
type PostLookup interface {
	Lookup(ctx context.Context, f model.PostFilter, ids []int64) ([]model.Post, error)
}

// DocumentSource lists the posts to index.
type DocumentSource interface {
	ListIndexablePosts(ctx context.Context) ([]model.Post, error)
}

// Config configures a Service.
type Config struct {
	// Dir is the index directory; empty disables search.
	Dir      string
	Wildcard bool
	MaxLimit int
}

// Service answers visitor searches against the index and the post store.
type Service struct {
	cfg    Config
	posts  PostLookup
	logger *slog.Logger

	mu    sync.Mutex
	index *Index
}

// NewService creates a search service. The index is opened on first use.
func NewService(cfg Config, posts PostLookup, logger *slog.Logger) *Service {
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = DefaultMaxLimit
	}
	return &Service{cfg: cfg, posts: posts, logger: logger}
}

// Enabled reports whether an index directory is configured.
func (s *Service) Enabled() bool {
	return s.cfg.Dir != ""
}

// open returns the shared index handle. Misses are not cached so an index
// created later is picked up.
func (s *Service) open() (*Index, error) {
	if !s.Enabled() {
		return nil, ErrSearchDisabled
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index != nil {
		return s.index, nil
	}
	ix, err := Open(s.cfg.Dir, WithMaxLimit(s.cfg.MaxLimit))
	if err != nil {
		return nil, err
	}
	s.index = ix
	return ix, nil
}

// Search runs q and returns page of visible posts in relevance order. The
// total is the index's capped match count. A query the index cannot parse
// yields an empty result.
func (s *Service) Search(ctx context.Context, f model.PostFilter, q string, page, perPage int, linkTemplate string) (blog.Result, error) {
	info := blog.NewPageInfo(page, perPage, 0, linkTemplate)
	empty := blog.Result{PageInfo: info}

	ix, err := s.open()
	if err != nil {
		return blog.Result{}, err
	}

	query, err := ix.Parse(Shape(q, s.cfg.Wildcard))
	if errors.Is(err, ErrEmptyQuery) {
		return empty, nil
	}
	if err != nil {
		return blog.Result{}, err
	}

	hits, err := ix.SearchPage(ctx, query, info.Page, info.PerPage)
	if errors.Is(err, ErrInvalidQuery) {
		s.logger.Info("search query rejected by index",
			"category", model.EventCategorySearch, "query", q, "error", err)
		return empty, nil
	}
	if err != nil {
		return blog.Result{}, err
	}

	posts, err := s.posts.Lookup(ctx, f, hits.IDs)
	if err != nil {
		return blog.Result{}, fmt.Errorf("loading search hits: %w", err)
	}
	info.Total = hits.Total
	return blog.Result{Posts: posts, PageInfo: info}, nil
}

// Reindex rebuilds the index from src, creating its directory if needed.
func (s *Service) Reindex(ctx context.Context, src DocumentSource) (int, error) {
	if !s.Enabled() {
		return 0, ErrSearchDisabled
	}
	posts, err := src.ListIndexablePosts(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing posts to index: %w", err)
	}

	s.mu.Lock()
	if s.index == nil {
		ix, err := Create(s.cfg.Dir, WithMaxLimit(s.cfg.MaxLimit))
		if err != nil {
			s.mu.Unlock()
			return 0, err
		}
		s.index = ix
	}
	ix := s.index
	s.mu.Unlock()

	docs := make([]Document, 0, len(posts))
	for _, p := range posts {
		docs = append(docs, DocumentFromPost(p))
	}
	if err := ix.Rebuild(ctx, docs); err != nil {
		return 0, err
	}
	s.logger.Info("search index rebuilt", "category", model.EventCategorySearch, "documents", len(docs), "dir", s.cfg.Dir)
	return len(docs), nil
}

// Ping opens the index if needed and checks that it answers.
func (s *Service) Ping(ctx context.Context) error {
	ix, err := s.open()
	if err != nil {
		return err
	}
	return ix.db.PingContext(ctx)
}

// Close releases the index if it was opened.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == nil {
		return nil
	}
	err := s.index.Close()
	s.index = nil
	return err
}

// DocumentFromPost maps a post to its index document. Description and
// keywords are searched along with the body.
func DocumentFromPost(p model.Post) Document {
	content := strings.Join([]string{p.Description, p.Content, p.MetaKeywords}, "\n")
	return Document{ID: p.ID, Title: p.Title, Content: strings.TrimSpace(content)}
}
