// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package blog

import (
	"context"
	"fmt"

	"github.com/olegiv/ocms-blog/internal/model"
)

// PostStore is the slice of the backend the post query needs.
type PostStore interface {
	CountPosts(ctx context.Context, f model.PostFilter) (int64, error)
	ListPosts(ctx context.Context, f model.PostFilter, offset, limit int) ([]model.Post, error)
	ListTagsForPosts(ctx context.Context, postIDs []int64) (map[int64][]model.Tag, error)
}

// Result is one page of posts with its pagination state.
type Result struct {
	Posts    []model.Post
	PageInfo PageInfo
}

// PostQuery runs count-then-fetch listings over a PostStore.
type PostQuery struct {
	posts     PostStore
	dateField model.DateField
}

// NewPostQuery creates a query ordering and bounding posts by dateField.
// An unsupported field falls back to the publication date.
func NewPostQuery(posts PostStore, dateField model.DateField) *PostQuery {
	if !dateField.IsValid() {
		dateField = model.DateFieldPublished
	}
	return &PostQuery{posts: posts, dateField: dateField}
}

// DateField returns the field used for ordering and archive bounds.
func (q *PostQuery) DateField() model.DateField {
	return q.dateField
}

// Query counts the posts matching f and fetches page of them, newest first.
// A page past the end yields no posts and the real total.
func (q *PostQuery) Query(ctx context.Context, f model.PostFilter, page, perPage int, linkTemplate string) (Result, error) {
	f.DateField = q.dateField

	total, err := q.posts.CountPosts(ctx, f)
	if err != nil {
		return Result{}, fmt.Errorf("counting posts: %w", err)
	}
	info := NewPageInfo(page, perPage, total, linkTemplate)
	res := Result{PageInfo: info}

	if int64(info.Offset()) >= total {
		return res, nil
	}

	posts, err := q.posts.ListPosts(ctx, f, info.Offset(), info.PerPage)
	if err != nil {
		return Result{}, fmt.Errorf("listing posts: %w", err)
	}
	if err := q.attachTags(ctx, posts); err != nil {
		return Result{}, err
	}
	res.Posts = posts
	return res, nil
}

// Lookup returns the posts among ids that match f, in the order of ids.
// Ids that are filtered out are skipped.
func (q *PostQuery) Lookup(ctx context.Context, f model.PostFilter, ids []int64) ([]model.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	f.DateField = q.dateField
	f.IDs = ids

	found, err := q.posts.ListPosts(ctx, f, 0, len(ids))
	if err != nil {
		return nil, fmt.Errorf("listing posts by id: %w", err)
	}
	byID := make(map[int64]model.Post, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	ordered := make([]model.Post, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
			delete(byID, id)
		}
	}
	if err := q.attachTags(ctx, ordered); err != nil {
		return nil, err
	}
	return ordered, nil
}

func (q *PostQuery) attachTags(ctx context.Context, posts []model.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]int64, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	tags, err := q.posts.ListTagsForPosts(ctx, ids)
	if err != nil {
		return fmt.Errorf("loading tags: %w", err)
	}
	for i := range posts {
		posts[i].Tags = tags[posts[i].ID]
	}
	return nil
}
