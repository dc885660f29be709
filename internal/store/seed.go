// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/ocms-blog/internal/model"
)

// Seed defaults
const (
	DefaultSiteName       = "Default"
	AnonymousUserEmail    = "anonymous@localhost"
	AnonymousUserName     = "Anonymous"
	welcomeTag            = "News"
	welcomePostTitle      = "Welcome"
	welcomePostURI        = "blog/welcome"
	welcomePostTemplate   = "blog-post"
	welcomePostMarkdown   = "This is the first post of the blog.\n\nEdit or remove it from the database."
	welcomePostKeywords   = "welcome, news"
	welcomePostVisibility = model.VisibilityPublic
)

// Seed creates the default site with its root URIs, the anonymous comment
// user and a welcome post. It does nothing when the anonymous user exists.
func Seed(ctx context.Context, db *sql.DB) error {
	_, err := New(db).GetUserByEmail(ctx, AnonymousUserEmail)
	if err == nil {
		slog.Info("seed data already present, skipping seed")
		return nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("checking for anonymous user: %w", err)
	}

	return InTx(ctx, db, func(q *Queries) error {
		anon, err := q.CreateUser(ctx, AnonymousUserName, AnonymousUserEmail)
		if err != nil {
			return err
		}

		site, err := q.CreateSite(ctx, CreateSiteParams{
			Name:            DefaultSiteName,
			BlogRoot:        "blog",
			TagsRoot:        "blog/tags",
			ArchivesRoot:    "blog/archive",
			CommentsEnabled: true,
			AllowAnonymous:  true,
			AnonymousUserID: anon.ID,
		})
		if err != nil {
			return err
		}

		tag, err := q.CreateTag(ctx, site.ID, welcomeTag)
		if err != nil {
			return err
		}

		postID, err := q.CreatePost(ctx, CreatePostParams{
			Title:        welcomePostTitle,
			Content:      welcomePostMarkdown,
			MetaKeywords: welcomePostKeywords,
			Visibility:   welcomePostVisibility,
			PublishedAt:  time.Now(),
			SiteIDs:      []int64{site.ID},
			TagIDs:       []int64{tag.ID},
		})
		if err != nil {
			return err
		}

		uris := []CreateURIParams{
			{SiteID: site.ID, URI: "blog", Title: "Blog", Template: "blog"},
			{SiteID: site.ID, URI: "blog/tags/" + tag.Slug, Title: tag.Name, Template: "blog-tag", TagID: tag.ID},
			{SiteID: site.ID, URI: welcomePostURI, Title: welcomePostTitle, Template: welcomePostTemplate, PostID: postID},
		}
		for _, u := range uris {
			if _, err := q.CreateURI(ctx, u); err != nil {
				return err
			}
		}

		slog.Info("seeded default site",
			"site_id", site.ID,
			"anonymous_user_id", anon.ID,
			"post_id", postID,
		)
		return nil
	})
}
