// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package blog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/olegiv/ocms-blog/internal/model"
	"github.com/olegiv/ocms-blog/internal/store"
)

// memURIs is an in-memory URI registry keyed by "siteID:uri".
type memURIs struct {
	uris  map[string]model.ContentURI
	calls int
	err   error
}

func newMemURIs(uris ...model.ContentURI) *memURIs {
	m := &memURIs{uris: make(map[string]model.ContentURI)}
	for _, u := range uris {
		u.Active = true
		m.uris[uriKey(u.SiteID, u.URI)] = u
	}
	return m
}

func uriKey(siteID int64, uri string) string {
	return fmt.Sprintf("%d:%s", siteID, uri)
}

func (m *memURIs) GetActiveURI(_ context.Context, siteID int64, uri string) (model.ContentURI, error) {
	m.calls++
	if m.err != nil {
		return model.ContentURI{}, m.err
	}
	u, ok := m.uris[uriKey(siteID, uri)]
	if !ok {
		return model.ContentURI{}, model.ErrNotFound
	}
	return u, nil
}

// memPost is a post plus the memberships the filter checks.
type memPost struct {
	model.Post
	Sites  []int64
	TagIDs []int64
}

// memPosts implements PostStore and CommentStore over a slice.
type memPosts struct {
	posts     []memPost
	uris      []model.ContentURI
	comments  []store.CreateCommentParams
	listCalls int
	err       error
}

func (m *memPosts) match(f model.PostFilter) []model.Post {
	vis := f.Visibility
	if len(vis) == 0 {
		vis = []model.Visibility{model.VisibilityPublic}
	}
	var out []model.Post
	for _, p := range m.posts {
		if !p.Active || !slices.Contains(vis, p.Visibility) {
			continue
		}
		if f.SiteID != 0 && !slices.Contains(p.Sites, f.SiteID) {
			continue
		}
		if f.TagID != 0 && !slices.Contains(p.TagIDs, f.TagID) {
			continue
		}
		if f.UserID != 0 && p.UserID != f.UserID {
			continue
		}
		if f.Keyword != "" && !strings.Contains(p.MetaKeywords, f.Keyword) {
			continue
		}
		if f.IDs != nil && !slices.Contains(f.IDs, p.ID) {
			continue
		}
		d := p.Date(f.DateField)
		if !f.Range.Start.IsZero() && d.Before(f.Range.Start) {
			continue
		}
		if !f.Range.End.IsZero() && !d.Before(f.Range.End) {
			continue
		}
		out = append(out, p.Post)
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i].Date(f.DateField), out[j].Date(f.DateField)
		if !di.Equal(dj) {
			return di.After(dj)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (m *memPosts) CountPosts(_ context.Context, f model.PostFilter) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return int64(len(m.match(f))), nil
}

func (m *memPosts) ListPosts(_ context.Context, f model.PostFilter, offset, limit int) ([]model.Post, error) {
	m.listCalls++
	if m.err != nil {
		return nil, m.err
	}
	all := m.match(f)
	if offset >= len(all) {
		return nil, nil
	}
	return all[offset:min(offset+limit, len(all))], nil
}

func (m *memPosts) ListTagsForPosts(_ context.Context, ids []int64) (map[int64][]model.Tag, error) {
	out := make(map[int64][]model.Tag)
	for _, p := range m.posts {
		if slices.Contains(ids, p.ID) {
			for _, t := range p.TagIDs {
				out[p.ID] = append(out[p.ID], model.Tag{ID: t})
			}
		}
	}
	return out, nil
}

func (m *memPosts) GetVisiblePost(ctx context.Context, f model.PostFilter, id int64) (model.Post, error) {
	f.IDs = []int64{id}
	posts, err := m.ListPosts(ctx, f, 0, 1)
	if err != nil {
		return model.Post{}, err
	}
	if len(posts) == 0 {
		return model.Post{}, model.ErrNotFound
	}
	return posts[0], nil
}

func (m *memPosts) GetCanonicalURIForPost(_ context.Context, siteID, postID int64) (model.ContentURI, error) {
	for _, u := range m.uris {
		if u.SiteID == siteID && u.PostID == postID {
			return u, nil
		}
	}
	return model.ContentURI{}, model.ErrNotFound
}

func (m *memPosts) CreateComment(_ context.Context, arg store.CreateCommentParams) (model.Comment, error) {
	m.comments = append(m.comments, arg)
	return model.Comment{
		ID:          int64(len(m.comments)),
		UUID:        arg.UUID,
		PostID:      arg.PostID,
		UserID:      arg.UserID,
		Description: arg.Description,
		Active:      true,
		CreatedAt:   arg.CreatedAt,
	}, nil
}

type recordingNotifier struct {
	notices []CommentNotice
	err     error
}

func (n *recordingNotifier) NotifyComment(_ context.Context, notice CommentNotice) error {
	n.notices = append(n.notices, notice)
	return n.err
}

var errBackend = errors.New("backend down")

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

func testSite() model.Site {
	return model.Site{
		ID:              1,
		Name:            "Test",
		BlogRoot:        "/blog",
		TagsRoot:        "/blog/tags",
		ArchivesRoot:    "/blog/archive",
		CommentsEnabled: true,
		AllowAnonymous:  true,
		AnonymousUserID: 99,
		Active:          true,
	}
}
