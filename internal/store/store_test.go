// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/olegiv/ocms-blog/internal/model"
)

// testDB creates a migrated database in a temp directory.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := NewDB(filepath.Join(t.TempDir(), "blog-test.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := Migrate(t.Context(), db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

func testSite(t *testing.T, q *Queries) model.Site {
	t.Helper()
	site, err := q.CreateSite(context.Background(), CreateSiteParams{
		Name:            "Test",
		BlogRoot:        "/blog/",
		TagsRoot:        "blog/tags",
		ArchivesRoot:    "blog/archive",
		CommentsEnabled: true,
	})
	if err != nil {
		t.Fatalf("CreateSite: %v", err)
	}
	return site
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestPragmasOnEveryConnection(t *testing.T) {
	db := testDB(t)
	ctx := t.Context()

	// Holding the connections open forces the pool to hand out new ones.
	for i := range 3 {
		conn, err := db.Conn(ctx)
		if err != nil {
			t.Fatalf("Conn %d: %v", i, err)
		}
		t.Cleanup(func() { _ = conn.Close() })

		var fk, busy int
		if err := conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil {
			t.Fatalf("foreign_keys: %v", err)
		}
		if err := conn.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&busy); err != nil {
			t.Fatalf("busy_timeout: %v", err)
		}
		if fk != 1 || busy != 5000 {
			t.Errorf("connection %d: foreign_keys = %d, busy_timeout = %d", i, fk, busy)
		}
	}
}

func TestPostTimestampsRequireFullLayout(t *testing.T) {
	db := testDB(t)
	ctx := t.Context()
	insert := `INSERT INTO posts (slug, title, created_at, published_at) VALUES (?, ?, ?, ?)`

	if _, err := db.ExecContext(ctx, insert, "ok", "Ok", "2024-01-01 00:00:00", "2024-01-01 00:00:00"); err != nil {
		t.Fatalf("full layout rejected: %v", err)
	}
	for _, ts := range []string{"2024-01-01", "2024-01-01T00:00:00Z"} {
		if _, err := db.ExecContext(ctx, insert, "bad", "Bad", ts, ts); err == nil {
			t.Errorf("timestamp %q accepted", ts)
		}
	}
}

func TestCreateSite(t *testing.T) {
	q := New(testDB(t))
	site := testSite(t, q)

	if site.BlogRoot != "/blog" {
		t.Errorf("BlogRoot = %q, want /blog", site.BlogRoot)
	}
	if site.TagsRoot != "/blog/tags" || site.ArchivesRoot != "/blog/archive" {
		t.Errorf("roots = %q, %q", site.TagsRoot, site.ArchivesRoot)
	}
	if !site.CommentsEnabled || site.AllowAnonymous || !site.Active {
		t.Errorf("flags = %+v", site)
	}

	if _, err := q.GetActiveSite(context.Background(), site.ID+100); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("GetActiveSite(missing) error = %v, want ErrNotFound", err)
	}
}

func TestURIs(t *testing.T) {
	ctx := context.Background()
	q := New(testDB(t))
	site := testSite(t, q)

	created, err := q.CreateURI(ctx, CreateURIParams{SiteID: site.ID, URI: "/blog/about/", Title: "About", Template: "page"})
	if err != nil {
		t.Fatalf("CreateURI: %v", err)
	}
	if created.URI != "blog/about" {
		t.Errorf("stored URI = %q, want blog/about", created.URI)
	}

	got, err := q.GetActiveURI(ctx, site.ID, "/blog/about")
	if err != nil {
		t.Fatalf("GetActiveURI: %v", err)
	}
	if got.ID != created.ID || got.HasTag() || got.HasPost() {
		t.Errorf("GetActiveURI = %+v", got)
	}

	other := testSite(t, q)
	if _, err := q.GetActiveURI(ctx, other.ID, "blog/about"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("lookup on other site error = %v, want ErrNotFound", err)
	}

	if err := q.DeactivateURI(ctx, created.ID); err != nil {
		t.Fatalf("DeactivateURI: %v", err)
	}
	if _, err := q.GetActiveURI(ctx, site.ID, "blog/about"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("inactive lookup error = %v, want ErrNotFound", err)
	}
}

func TestCanonicalURIForPost(t *testing.T) {
	ctx := context.Background()
	q := New(testDB(t))
	site := testSite(t, q)

	postID, err := q.CreatePost(ctx, CreatePostParams{Title: "Hello", SiteIDs: []int64{site.ID}})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if _, err := q.GetCanonicalURIForPost(ctx, site.ID, postID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("no uri yet: error = %v", err)
	}

	first, _ := q.CreateURI(ctx, CreateURIParams{SiteID: site.ID, URI: "blog/hello", PostID: postID})
	_, _ = q.CreateURI(ctx, CreateURIParams{SiteID: site.ID, URI: "blog/hello-again", PostID: postID})

	got, err := q.GetCanonicalURIForPost(ctx, site.ID, postID)
	if err != nil {
		t.Fatalf("GetCanonicalURIForPost: %v", err)
	}
	if got.ID != first.ID {
		t.Errorf("canonical = %q, want %q", got.URI, first.URI)
	}

	orphan, _ := q.CreatePost(ctx, CreatePostParams{Title: "Orphan", SiteIDs: []int64{site.ID}})
	uris, err := q.ListCanonicalURIs(ctx, site.ID, []int64{postID, orphan})
	if err != nil {
		t.Fatalf("ListCanonicalURIs: %v", err)
	}
	if len(uris) != 1 || uris[postID] != "/blog/hello" {
		t.Errorf("ListCanonicalURIs = %v", uris)
	}

	tag, _ := q.CreateTag(ctx, site.ID, "News")
	_, _ = q.CreateURI(ctx, CreateURIParams{SiteID: site.ID, URI: "blog/tags/news", TagID: tag.ID})
	tagURIs, err := q.ListTagURIs(ctx, site.ID, []int64{tag.ID})
	if err != nil {
		t.Fatalf("ListTagURIs: %v", err)
	}
	if tagURIs[tag.ID] != "/blog/tags/news" {
		t.Errorf("ListTagURIs = %v", tagURIs)
	}
}

func TestListPosts(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	q := New(db)
	site := testSite(t, q)
	other := testSite(t, q)
	author, _ := q.CreateUser(ctx, "Ann", "ann@example.com")
	tag, err := q.CreateTag(ctx, site.ID, "Go Lang")
	if err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	if tag.Slug != "go-lang" {
		t.Errorf("tag slug = %q", tag.Slug)
	}

	posts := []CreatePostParams{
		{Title: "Jan", PublishedAt: date(2024, 1, 15), SiteIDs: []int64{site.ID}, TagIDs: []int64{tag.ID}, UserID: author.ID, MetaKeywords: "go, sql"},
		{Title: "Feb", PublishedAt: date(2024, 2, 29), SiteIDs: []int64{site.ID}, MetaKeywords: "100%_done"},
		{Title: "Mar", PublishedAt: date(2024, 3, 1), SiteIDs: []int64{site.ID}, Visibility: model.VisibilityRegister},
		{Title: "Hidden", PublishedAt: date(2024, 3, 2), SiteIDs: []int64{site.ID}, Inactive: true},
		{Title: "Elsewhere", PublishedAt: date(2024, 3, 3), SiteIDs: []int64{other.ID}},
		{Title: "Manager", PublishedAt: date(2023, 12, 31), SiteIDs: []int64{site.ID}, Visibility: model.VisibilityManager},
	}
	ids := make(map[string]int64)
	err = InTx(ctx, db, func(tx *Queries) error {
		for _, p := range posts {
			id, err := tx.CreatePost(ctx, p)
			if err != nil {
				return err
			}
			ids[p.Title] = id
		}
		return nil
	})
	if err != nil {
		t.Fatalf("creating posts: %v", err)
	}

	titles := func(ps []model.Post) []string {
		var out []string
		for _, p := range ps {
			out = append(out, p.Title)
		}
		return out
	}

	tests := []struct {
		name   string
		filter model.PostFilter
		want   []string
	}{
		{
			name:   "public only by default",
			filter: model.PostFilter{SiteID: site.ID},
			want:   []string{"Feb", "Jan"},
		},
		{
			name:   "registered caller",
			filter: model.PostFilter{SiteID: site.ID, Visibility: model.VisibilityFor(true, false)},
			want:   []string{"Mar", "Feb", "Jan"},
		},
		{
			name:   "manager caller",
			filter: model.PostFilter{SiteID: site.ID, Visibility: model.VisibilityFor(true, true)},
			want:   []string{"Mar", "Feb", "Jan", "Manager"},
		},
		{
			name:   "tag",
			filter: model.PostFilter{SiteID: site.ID, TagID: tag.ID},
			want:   []string{"Jan"},
		},
		{
			name:   "february of a leap year",
			filter: model.PostFilter{SiteID: site.ID, Range: model.DateRange{Start: date(2024, 2, 1).Truncate(24 * time.Hour), End: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}},
			want:   []string{"Feb"},
		},
		{
			name:   "author",
			filter: model.PostFilter{SiteID: site.ID, UserID: author.ID},
			want:   []string{"Jan"},
		},
		{
			name:   "keyword",
			filter: model.PostFilter{SiteID: site.ID, Keyword: "sql"},
			want:   []string{"Jan"},
		},
		{
			name:   "keyword wildcards are literal",
			filter: model.PostFilter{SiteID: site.ID, Keyword: "%_"},
			want:   []string{"Feb"},
		},
		{
			name:   "empty id set matches nothing",
			filter: model.PostFilter{SiteID: site.ID, IDs: []int64{}},
			want:   nil,
		},
		{
			name:   "id set",
			filter: model.PostFilter{SiteID: site.ID, IDs: []int64{ids["Jan"], ids["Elsewhere"], ids["Hidden"]}},
			want:   []string{"Jan"},
		},
		{
			name:   "unbounded end",
			filter: model.PostFilter{SiteID: site.ID, Range: model.DateRange{Start: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), End: time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC)}},
			want:   []string{"Feb"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := q.ListPosts(ctx, tt.filter, 0, 10)
			if err != nil {
				t.Fatalf("ListPosts: %v", err)
			}
			if g := titles(got); !equalStrings(g, tt.want) {
				t.Errorf("ListPosts = %v, want %v", g, tt.want)
			}
			n, err := q.CountPosts(ctx, tt.filter)
			if err != nil {
				t.Fatalf("CountPosts: %v", err)
			}
			if int(n) != len(tt.want) {
				t.Errorf("CountPosts = %d, want %d", n, len(tt.want))
			}
		})
	}

	t.Run("offset past the end", func(t *testing.T) {
		got, err := q.ListPosts(ctx, model.PostFilter{SiteID: site.ID}, 50, 10)
		if err != nil {
			t.Fatalf("ListPosts: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("got %d posts, want 0", len(got))
		}
	})

	t.Run("author name and tags", func(t *testing.T) {
		got, err := q.GetVisiblePost(ctx, model.PostFilter{SiteID: site.ID}, ids["Jan"])
		if err != nil {
			t.Fatalf("GetVisiblePost: %v", err)
		}
		if got.UserName != "Ann" || got.Slug != "jan" {
			t.Errorf("post = %+v", got)
		}
		tags, err := q.ListTagsForPosts(ctx, []int64{got.ID})
		if err != nil {
			t.Fatalf("ListTagsForPosts: %v", err)
		}
		if len(tags[got.ID]) != 1 || tags[got.ID][0].ID != tag.ID {
			t.Errorf("tags = %v", tags)
		}
	})

	t.Run("invisible post", func(t *testing.T) {
		_, err := q.GetVisiblePost(ctx, model.PostFilter{SiteID: site.ID}, ids["Mar"])
		if !errors.Is(err, model.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestListPostsTieBreak(t *testing.T) {
	ctx := context.Background()
	q := New(testDB(t))
	site := testSite(t, q)

	same := date(2024, 5, 5)
	var last int64
	for i := 0; i < 3; i++ {
		id, err := q.CreatePost(ctx, CreatePostParams{Title: "Same", PublishedAt: same, SiteIDs: []int64{site.ID}})
		if err != nil {
			t.Fatalf("CreatePost: %v", err)
		}
		last = id
	}

	got, err := q.ListPosts(ctx, model.PostFilter{SiteID: site.ID}, 0, 1)
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(got) != 1 || got[0].ID != last {
		t.Errorf("first post = %v, want id %d", got, last)
	}
}

func TestCreatedAtDateField(t *testing.T) {
	ctx := context.Background()
	q := New(testDB(t))
	site := testSite(t, q)

	_, _ = q.CreatePost(ctx, CreatePostParams{Title: "A", CreatedAt: date(2020, 1, 1), PublishedAt: date(2024, 1, 1), SiteIDs: []int64{site.ID}})
	_, _ = q.CreatePost(ctx, CreatePostParams{Title: "B", CreatedAt: date(2021, 1, 1), PublishedAt: date(2023, 1, 1), SiteIDs: []int64{site.ID}})

	got, err := q.ListPosts(ctx, model.PostFilter{SiteID: site.ID, DateField: model.DateFieldCreated}, 0, 10)
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(got) != 2 || got[0].Title != "B" {
		t.Errorf("order by created_at = %v", got)
	}
}

func TestComments(t *testing.T) {
	ctx := context.Background()
	q := New(testDB(t))
	site := testSite(t, q)
	user, _ := q.CreateUser(ctx, "", "bob@example.com")
	postID, _ := q.CreatePost(ctx, CreatePostParams{Title: "Post", SiteIDs: []int64{site.ID}})

	c, err := q.CreateComment(ctx, CreateCommentParams{UUID: "u-1", PostID: postID, UserID: user.ID, Description: "Nice"})
	if err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	if c.ID == 0 || !c.Active {
		t.Errorf("comment = %+v", c)
	}

	list, err := q.ListCommentsForPost(ctx, postID)
	if err != nil {
		t.Fatalf("ListCommentsForPost: %v", err)
	}
	if len(list) != 1 || list[0].Description != "Nice" || list[0].UserID != user.ID {
		t.Errorf("comments = %+v", list)
	}

	post, err := q.GetVisiblePost(ctx, model.PostFilter{SiteID: site.ID}, postID)
	if err != nil {
		t.Fatalf("GetVisiblePost: %v", err)
	}
	if post.TotalComments != 1 {
		t.Errorf("TotalComments = %d, want 1", post.TotalComments)
	}

	if _, err := q.CreateComment(ctx, CreateCommentParams{UUID: "u-1", PostID: postID, Description: "dup"}); err == nil {
		t.Error("expected unique uuid violation")
	}
}

func TestInTxRollback(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)

	boom := errors.New("boom")
	err := InTx(ctx, db, func(q *Queries) error {
		if _, err := q.CreateUser(ctx, "Temp", "temp@example.com"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx error = %v, want boom", err)
	}
	if _, err := New(db).GetUserByEmail(ctx, "temp@example.com"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("user survived rollback: %v", err)
	}
}

func TestEvents(t *testing.T) {
	ctx := context.Background()
	q := New(testDB(t))

	if err := q.CreateEvent(ctx, CreateEventParams{Level: model.EventLevelWarning, Category: model.EventCategoryNotify, Message: "smtp down", CreatedAt: date(2024, 1, 1)}); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if err := q.CreateEvent(ctx, CreateEventParams{Level: model.EventLevelError, Category: model.EventCategorySystem, Message: "db"}); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	events, err := q.ListEvents(ctx, 10)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 2 || events[0].Message != "db" || events[1].Metadata != "{}" {
		t.Errorf("events = %+v", events)
	}

	n, err := q.DeleteEventsBefore(ctx, date(2025, 1, 1))
	if err != nil {
		t.Fatalf("DeleteEventsBefore: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d, want 1", n)
	}
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)

	if err := Seed(ctx, db); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if err := Seed(ctx, db); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	q := New(db)
	anon, err := q.GetUserByEmail(ctx, AnonymousUserEmail)
	if err != nil {
		t.Fatalf("anonymous user: %v", err)
	}
	site, err := q.GetActiveSite(ctx, 1)
	if err != nil {
		t.Fatalf("site: %v", err)
	}
	if site.AnonymousUserID != anon.ID || !site.AllowAnonymous {
		t.Errorf("site = %+v", site)
	}
	if _, err := q.GetActiveURI(ctx, site.ID, "blog"); err != nil {
		t.Errorf("blog root uri: %v", err)
	}
	uri, err := q.GetActiveURI(ctx, site.ID, welcomePostURI)
	if err != nil || !uri.HasPost() {
		t.Errorf("welcome uri = %+v, %v", uri, err)
	}
	n, _ := q.CountPosts(ctx, model.PostFilter{SiteID: site.ID})
	if n != 1 {
		t.Errorf("posts = %d, want 1", n)
	}
}

func TestEscapeLike(t *testing.T) {
	if got := escapeLike(`a%b_c\d`); got != `a\%b\_c\\d` {
		t.Errorf("escapeLike = %q", got)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
