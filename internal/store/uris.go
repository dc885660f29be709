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

const uriColumns = `id, site_id, uri, title, template, body, tag_id, post_id, active`

// GetActiveURI looks up an active registered URI of a site by exact path.
// The leading separator of uri is ignored.
func (q *Queries) GetActiveURI(ctx context.Context, siteID int64, uri string) (model.ContentURI, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+uriColumns+` FROM uris WHERE site_id = ? AND uri = ? AND active = 1`,
		siteID, strings.TrimPrefix(uri, "/"))
	u, err := scanURI(row)
	if err != nil {
		return model.ContentURI{}, notFound(err)
	}
	return u, nil
}

// GetCanonicalURIForPost returns the first active URI of a site pointing at a post.
func (q *Queries) GetCanonicalURIForPost(ctx context.Context, siteID, postID int64) (model.ContentURI, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+uriColumns+` FROM uris WHERE site_id = ? AND post_id = ? AND active = 1 ORDER BY id LIMIT 1`,
		siteID, postID)
	u, err := scanURI(row)
	if err != nil {
		return model.ContentURI{}, notFound(err)
	}
	return u, nil
}

// ListCanonicalURIs maps each post id to the path of its first active URI
// on the site. Posts without a URI are absent from the map.
func (q *Queries) ListCanonicalURIs(ctx context.Context, siteID int64, postIDs []int64) (map[int64]string, error) {
	return q.firstURIs(ctx, "post_id", siteID, postIDs)
}

// ListTagURIs maps each tag id to the path of its first active URI.
func (q *Queries) ListTagURIs(ctx context.Context, siteID int64, tagIDs []int64) (map[int64]string, error) {
	return q.firstURIs(ctx, "tag_id", siteID, tagIDs)
}

// firstURIs is shared by the payload lookups; column is never user input.
func (q *Queries) firstURIs(ctx context.Context, column string, siteID int64, ids []int64) (map[int64]string, error) {
	out := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, siteID)
	for _, id := range ids {
		args = append(args, id)
	}
	rows, err := q.db.QueryContext(ctx, `
		SELECT u.`+column+`, u.uri FROM uris u
		WHERE u.id IN (
			SELECT MIN(id) FROM uris
			WHERE site_id = ? AND active = 1 AND `+column+` IN (`+placeholders(len(ids))+`)
			GROUP BY `+column+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing uris by %s: %w", column, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id int64
		var uri string
		if err := rows.Scan(&id, &uri); err != nil {
			return nil, err
		}
		out[id] = "/" + uri
	}
	return out, rows.Err()
}

// CreateURIParams holds the fields of a new URI.
type CreateURIParams struct {
	SiteID   int64
	URI      string
	Title    string
	Template string
	Body     string
	TagID    int64
	PostID   int64
}

// CreateURI registers a path for a site.
func (q *Queries) CreateURI(ctx context.Context, arg CreateURIParams) (model.ContentURI, error) {
	uri := strings.Trim(arg.URI, "/")
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO uris (site_id, uri, title, template, body, tag_id, post_id, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1)`,
		arg.SiteID, uri, arg.Title, arg.Template, arg.Body, nullID(arg.TagID), nullID(arg.PostID))
	if err != nil {
		return model.ContentURI{}, fmt.Errorf("inserting uri %q: %w", uri, err)
	}
	return q.GetActiveURI(ctx, arg.SiteID, uri)
}

// DeactivateURI hides a URI from resolution without deleting it.
func (q *Queries) DeactivateURI(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `UPDATE uris SET active = 0 WHERE id = ?`, id)
	return err
}

func scanURI(row *sql.Row) (model.ContentURI, error) {
	var u model.ContentURI
	var tagID, postID sql.NullInt64
	var active int
	if err := row.Scan(&u.ID, &u.SiteID, &u.URI, &u.Title, &u.Template, &u.Body,
		&tagID, &postID, &active); err != nil {
		return model.ContentURI{}, err
	}
	u.TagID = tagID.Int64
	u.PostID = postID.Int64
	u.Active = active == 1
	return u, nil
}
