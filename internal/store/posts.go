// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/olegiv/ocms-blog/internal/model"
	"github.com/olegiv/ocms-blog/internal/util"
)

// maxStoredYear is the last year representable in the TEXT timestamp layout.
const maxStoredYear = 9999

const postColumns = `p.id, p.slug, p.title, p.description, p.content, p.metakeywords,
	COALESCE(p.user_id, 0), COALESCE(u.name, ''), p.visibility, p.active,
	p.created_at, p.published_at,
	(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id AND c.active = 1)`

const postFrom = ` FROM posts p LEFT JOIN users u ON u.id = p.user_id`

// dateColumn returns the whitelisted column for f.
func dateColumn(f model.DateField) string {
	if f == model.DateFieldCreated {
		return "p.created_at"
	}
	return "p.published_at"
}

// buildPostWhere compiles a filter into a WHERE clause and its arguments.
func buildPostWhere(f model.PostFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	clauses = append(clauses, "p.active = 1")

	vis := f.Visibility
	if len(vis) == 0 {
		vis = []model.Visibility{model.VisibilityPublic}
	}
	clauses = append(clauses, "p.visibility IN ("+placeholders(len(vis))+")")
	for _, v := range vis {
		args = append(args, string(v))
	}

	if f.SiteID != 0 {
		clauses = append(clauses, "EXISTS (SELECT 1 FROM post_sites ps WHERE ps.post_id = p.id AND ps.site_id = ?)")
		args = append(args, f.SiteID)
	}
	if f.TagID != 0 {
		clauses = append(clauses, "EXISTS (SELECT 1 FROM post_tags pt WHERE pt.post_id = p.id AND pt.tag_id = ?)")
		args = append(args, f.TagID)
	}
	if f.UserID != 0 {
		clauses = append(clauses, "p.user_id = ?")
		args = append(args, f.UserID)
	}
	if f.Keyword != "" {
		clauses = append(clauses, `p.metakeywords LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(f.Keyword)+"%")
	}
	if f.IDs != nil {
		if len(f.IDs) == 0 {
			clauses = append(clauses, "1 = 0")
		} else {
			clauses = append(clauses, "p.id IN ("+placeholders(len(f.IDs))+")")
			for _, id := range f.IDs {
				args = append(args, id)
			}
		}
	}

	col := dateColumn(f.DateField)
	if !f.Range.Start.IsZero() {
		clauses = append(clauses, col+" >= ?")
		args = append(args, model.FormatTime(f.Range.Start))
	}
	// An end past the storable range bounds nothing.
	if !f.Range.End.IsZero() && f.Range.End.Year() <= maxStoredYear {
		clauses = append(clauses, col+" < ?")
		args = append(args, model.FormatTime(f.Range.End))
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// CountPosts returns the number of posts matching f.
func (q *Queries) CountPosts(ctx context.Context, f model.PostFilter) (int64, error) {
	where, args := buildPostWhere(f)
	var n int64
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts p`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting posts: %w", err)
	}
	return n, nil
}

// ListPosts returns at most limit posts matching f, newest first by the
// filter's date field with ties broken by id, skipping offset rows.
func (q *Queries) ListPosts(ctx context.Context, f model.PostFilter, offset, limit int) ([]model.Post, error) {
	where, args := buildPostWhere(f)
	col := dateColumn(f.DateField)
	query := `SELECT ` + postColumns + postFrom + where +
		` ORDER BY ` + col + ` DESC, p.id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var posts []model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating posts: %w", err)
	}
	return posts, nil
}

// GetVisiblePost returns post id if it matches f.
func (q *Queries) GetVisiblePost(ctx context.Context, f model.PostFilter, id int64) (model.Post, error) {
	f.IDs = []int64{id}
	posts, err := q.ListPosts(ctx, f, 0, 1)
	if err != nil {
		return model.Post{}, err
	}
	if len(posts) == 0 {
		return model.Post{}, model.ErrNotFound
	}
	return posts[0], nil
}

// ListTagsForPosts returns the tags of each of the given posts.
func (q *Queries) ListTagsForPosts(ctx context.Context, postIDs []int64) (map[int64][]model.Tag, error) {
	out := make(map[int64][]model.Tag, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	args := make([]any, len(postIDs))
	for i, id := range postIDs {
		args[i] = id
	}
	rows, err := q.db.QueryContext(ctx, `
		SELECT pt.post_id, t.id, t.site_id, t.name, t.slug
		FROM post_tags pt JOIN tags t ON t.id = pt.tag_id
		WHERE pt.post_id IN (`+placeholders(len(postIDs))+`)
		ORDER BY t.name`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing post tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var postID int64
		var t model.Tag
		if err := rows.Scan(&postID, &t.ID, &t.SiteID, &t.Name, &t.Slug); err != nil {
			return nil, err
		}
		out[postID] = append(out[postID], t)
	}
	return out, rows.Err()
}

// ListIndexablePosts returns every active post with the fields fed to the
// text index.
func (q *Queries) ListIndexablePosts(ctx context.Context) ([]model.Post, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, title, description, content, metakeywords FROM posts WHERE active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing indexable posts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var posts []model.Post
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.Content, &p.MetaKeywords); err != nil {
			return nil, err
		}
		p.Active = true
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// CreatePostParams holds the fields of a new post. It issues several
// statements; run it through InTx when the post must appear atomically.
type CreatePostParams struct {
	Slug         string
	Title        string
	Description  string
	Content      string
	MetaKeywords string
	UserID       int64
	Visibility   model.Visibility
	Inactive     bool
	CreatedAt    time.Time
	PublishedAt  time.Time
	SiteIDs      []int64
	TagIDs       []int64
}

// CreatePost inserts a post with its site memberships and tags.
func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (int64, error) {
	if arg.Visibility == "" {
		arg.Visibility = model.VisibilityPublic
	}
	if arg.CreatedAt.IsZero() {
		arg.CreatedAt = time.Now()
	}
	if arg.PublishedAt.IsZero() {
		arg.PublishedAt = arg.CreatedAt
	}
	if arg.Slug == "" {
		arg.Slug = util.Slugify(arg.Title)
	}

	res, err := q.db.ExecContext(ctx, `
		INSERT INTO posts (slug, title, description, content, metakeywords, user_id,
			visibility, active, created_at, published_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Slug, arg.Title, arg.Description, arg.Content, arg.MetaKeywords,
		nullID(arg.UserID), string(arg.Visibility), boolToInt(!arg.Inactive),
		model.FormatTime(arg.CreatedAt), model.FormatTime(arg.PublishedAt))
	if err != nil {
		return 0, fmt.Errorf("inserting post: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, siteID := range arg.SiteIDs {
		if _, err := q.db.ExecContext(ctx,
			`INSERT INTO post_sites (post_id, site_id) VALUES (?, ?)`, id, siteID); err != nil {
			return 0, fmt.Errorf("linking post %d to site %d: %w", id, siteID, err)
		}
	}
	for _, tagID := range arg.TagIDs {
		if _, err := q.db.ExecContext(ctx,
			`INSERT INTO post_tags (post_id, tag_id) VALUES (?, ?)`, id, tagID); err != nil {
			return 0, fmt.Errorf("tagging post %d with %d: %w", id, tagID, err)
		}
	}
	return id, nil
}

// CreateTag inserts a tag for a site, deriving the slug from the name.
func (q *Queries) CreateTag(ctx context.Context, siteID int64, name string) (model.Tag, error) {
	slug := util.SlugOr(name, "tag")
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO tags (site_id, name, slug) VALUES (?, ?, ?)`, siteID, name, slug)
	if err != nil {
		return model.Tag{}, fmt.Errorf("inserting tag %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Tag{}, err
	}
	return model.Tag{ID: id, SiteID: siteID, Name: name, Slug: slug}, nil
}

// GetTag returns a tag by id.
func (q *Queries) GetTag(ctx context.Context, id int64) (model.Tag, error) {
	var t model.Tag
	err := q.db.QueryRowContext(ctx,
		`SELECT id, site_id, name, slug FROM tags WHERE id = ?`, id).
		Scan(&t.ID, &t.SiteID, &t.Name, &t.Slug)
	if err != nil {
		return model.Tag{}, notFound(err)
	}
	return t, nil
}

func scanPost(rows *sql.Rows) (model.Post, error) {
	var (
		p                  model.Post
		visibility         string
		active             int
		created, published string
	)
	if err := rows.Scan(&p.ID, &p.Slug, &p.Title, &p.Description, &p.Content, &p.MetaKeywords,
		&p.UserID, &p.UserName, &visibility, &active, &created, &published, &p.TotalComments); err != nil {
		return model.Post{}, fmt.Errorf("scanning post: %w", err)
	}
	p.Visibility = model.Visibility(visibility)
	p.Active = active == 1

	var err error
	if p.CreatedAt, err = model.ParseTime(created); err != nil {
		return model.Post{}, fmt.Errorf("post %d created_at: %w", p.ID, err)
	}
	if p.PublishedAt, err = model.ParseTime(published); err != nil {
		return model.Post{}, fmt.Errorf("post %d published_at: %w", p.ID, err)
	}
	return p, nil
}
