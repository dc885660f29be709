// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for the blog packages.
package testutil

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/olegiv/ocms-blog/internal/model"
	"github.com/olegiv/ocms-blog/internal/store"
)

// TestLogger creates a test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestLoggerSilent creates a logger that discards everything.
func TestLoggerSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestDB creates a temporary database with migrations applied. It is
// closed when the test ends.
func TestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := store.NewDB(filepath.Join(t.TempDir(), "blog-test.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := store.Migrate(t.Context(), db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

// Fixture is a small populated blog: one site with its root URIs, a tag,
// an author and an anonymous user, and posts spread over two years.
type Fixture struct {
	DB      *sql.DB
	Queries *store.Queries

	Site      model.Site
	Anonymous model.User
	Author    model.User
	Tag       model.Tag

	// Posts by key: "jan2023", "mar2024a", "mar2024b", "members", "staff",
	// "hidden".
	Posts map[string]int64
}

// Date returns noon UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
}

// NewFixture builds a Fixture in a fresh database.
func NewFixture(t *testing.T) *Fixture {
	t.Helper()
	ctx := context.Background()
	db := TestDB(t)
	q := store.New(db)

	f := &Fixture{DB: db, Queries: q, Posts: make(map[string]int64)}
	var err error
	if f.Anonymous, err = q.CreateUser(ctx, store.AnonymousUserName, store.AnonymousUserEmail); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if f.Author, err = q.CreateUser(ctx, "Ada", "ada@example.com"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	f.Site, err = q.CreateSite(ctx, store.CreateSiteParams{
		Name:            "Main",
		BlogRoot:        "blog",
		TagsRoot:        "blog/tags",
		ArchivesRoot:    "blog/archive",
		CommentsEnabled: true,
		AllowAnonymous:  true,
		AnonymousUserID: f.Anonymous.ID,
	})
	if err != nil {
		t.Fatalf("CreateSite: %v", err)
	}
	if f.Tag, err = q.CreateTag(ctx, f.Site.ID, "Go"); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	posts := []struct {
		key        string
		title      string
		keywords   string
		visibility model.Visibility
		inactive   bool
		published  time.Time
		tagged     bool
	}{
		{"jan2023", "New year", "news, go", model.VisibilityPublic, false, Date(2023, time.January, 10), false},
		{"mar2024a", "Spring release", "release", model.VisibilityPublic, false, Date(2024, time.March, 5), true},
		{"mar2024b", "Spring fixes", "release, fixes", model.VisibilityPublic, false, Date(2024, time.March, 20), true},
		{"members", "Members only", "members", model.VisibilityRegister, false, Date(2024, time.April, 1), false},
		{"staff", "Staff notes", "staff", model.VisibilityManager, false, Date(2024, time.April, 2), false},
		{"hidden", "Draft", "draft", model.VisibilityPublic, true, Date(2024, time.April, 3), false},
	}
	for _, p := range posts {
		arg := store.CreatePostParams{
			Title:        p.title,
			Description:  p.title + " summary",
			Content:      "Body of *" + p.title + "*.",
			MetaKeywords: p.keywords,
			UserID:       f.Author.ID,
			Visibility:   p.visibility,
			Inactive:     p.inactive,
			CreatedAt:    p.published.Add(-24 * time.Hour),
			PublishedAt:  p.published,
			SiteIDs:      []int64{f.Site.ID},
		}
		if p.tagged {
			arg.TagIDs = []int64{f.Tag.ID}
		}
		id, err := q.CreatePost(ctx, arg)
		if err != nil {
			t.Fatalf("CreatePost(%s): %v", p.key, err)
		}
		f.Posts[p.key] = id
	}

	uris := []store.CreateURIParams{
		{SiteID: f.Site.ID, URI: "blog", Title: "Blog", Template: "blog"},
		{SiteID: f.Site.ID, URI: "blog/tags/go", Title: "Go", Template: "blog-tag", TagID: f.Tag.ID},
		{SiteID: f.Site.ID, URI: "blog/new-year", Title: "New year", Template: "blog-post", PostID: f.Posts["jan2023"]},
		{SiteID: f.Site.ID, URI: "blog/spring-release", Title: "Spring release", Template: "blog-post", PostID: f.Posts["mar2024a"]},
		{SiteID: f.Site.ID, URI: "blog/about", Title: "About", Template: "page", Body: "About this blog."},
	}
	for _, u := range uris {
		if _, err := q.CreateURI(ctx, u); err != nil {
			t.Fatalf("CreateURI(%s): %v", u.URI, err)
		}
	}
	return f
}
