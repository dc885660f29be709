// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/olegiv/ocms-blog/internal/model"
)

const siteColumns = `id, name, blog_root, tags_root, archives_root, blog_comments,
	blog_anonymous, blog_anonymous_user_id, active`

// GetActiveSite returns the active site with the given id.
func (q *Queries) GetActiveSite(ctx context.Context, id int64) (model.Site, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+siteColumns+` FROM sites WHERE id = ? AND active = 1`, id)
	site, err := scanSite(row)
	if err != nil {
		return model.Site{}, notFound(err)
	}
	return site, nil
}

// CreateSiteParams holds the fields of a new site. Roots may be given with or
// without a leading slash; they are stored without it.
type CreateSiteParams struct {
	Name            string
	BlogRoot        string
	TagsRoot        string
	ArchivesRoot    string
	CommentsEnabled bool
	AllowAnonymous  bool
	AnonymousUserID int64
}

// CreateSite inserts a site and returns it.
func (q *Queries) CreateSite(ctx context.Context, arg CreateSiteParams) (model.Site, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO sites (name, blog_root, tags_root, archives_root, blog_comments,
			blog_anonymous, blog_anonymous_user_id, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1)`,
		arg.Name,
		strings.Trim(arg.BlogRoot, "/"),
		strings.Trim(arg.TagsRoot, "/"),
		strings.Trim(arg.ArchivesRoot, "/"),
		boolToInt(arg.CommentsEnabled),
		boolToInt(arg.AllowAnonymous),
		nullID(arg.AnonymousUserID),
	)
	if err != nil {
		return model.Site{}, fmt.Errorf("inserting site: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Site{}, err
	}
	return q.GetActiveSite(ctx, id)
}

// SetSiteComments updates the comment policy of a site.
func (q *Queries) SetSiteComments(ctx context.Context, id int64, enabled, allowAnonymous bool) error {
	_, err := q.db.ExecContext(ctx, `UPDATE sites SET blog_comments = ?, blog_anonymous = ? WHERE id = ?`,
		boolToInt(enabled), boolToInt(allowAnonymous), id)
	return err
}

func scanSite(row *sql.Row) (model.Site, error) {
	var s model.Site
	var comments, anonymous, active int
	var anonymousUser sql.NullInt64
	err := row.Scan(&s.ID, &s.Name, &s.BlogRoot, &s.TagsRoot, &s.ArchivesRoot,
		&comments, &anonymous, &anonymousUser, &active)
	if err != nil {
		return model.Site{}, err
	}
	s.BlogRoot = model.NormalizePath(s.BlogRoot)
	s.TagsRoot = model.NormalizePath(s.TagsRoot)
	s.ArchivesRoot = model.NormalizePath(s.ArchivesRoot)
	s.CommentsEnabled = comments == 1
	s.AllowAnonymous = anonymous == 1
	s.AnonymousUserID = anonymousUser.Int64
	s.Active = active == 1
	return s, nil
}
