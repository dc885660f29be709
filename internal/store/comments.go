// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/olegiv/ocms-blog/internal/model"
)

// CreateCommentParams holds the fields of a new comment.
type CreateCommentParams struct {
	UUID        string
	PostID      int64
	UserID      int64
	Description string
	CreatedAt   time.Time
}

// CreateComment persists an active comment in a single statement.
func (q *Queries) CreateComment(ctx context.Context, arg CreateCommentParams) (model.Comment, error) {
	if arg.CreatedAt.IsZero() {
		arg.CreatedAt = time.Now()
	}
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO comments (uuid, post_id, user_id, description, active, created_at)
		VALUES (?, ?, ?, ?, 1, ?)`,
		arg.UUID, arg.PostID, nullID(arg.UserID), arg.Description, model.FormatTime(arg.CreatedAt))
	if err != nil {
		return model.Comment{}, fmt.Errorf("inserting comment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Comment{}, err
	}
	return model.Comment{
		ID:          id,
		UUID:        arg.UUID,
		PostID:      arg.PostID,
		UserID:      arg.UserID,
		Description: arg.Description,
		Active:      true,
		CreatedAt:   arg.CreatedAt.UTC().Truncate(time.Second),
	}, nil
}

// ListCommentsForPost returns the active comments of a post, oldest first.
func (q *Queries) ListCommentsForPost(ctx context.Context, postID int64) ([]model.Comment, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT c.id, c.uuid, c.post_id, COALESCE(c.user_id, 0), COALESCE(u.name, ''),
			c.description, c.created_at
		FROM comments c LEFT JOIN users u ON u.id = c.user_id
		WHERE c.post_id = ? AND c.active = 1
		ORDER BY c.created_at, c.id`, postID)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var comments []model.Comment
	for rows.Next() {
		var c model.Comment
		var created string
		if err := rows.Scan(&c.ID, &c.UUID, &c.PostID, &c.UserID, &c.UserName,
			&c.Description, &created); err != nil {
			return nil, err
		}
		if c.CreatedAt, err = model.ParseTime(created); err != nil {
			return nil, fmt.Errorf("comment %d created_at: %w", c.ID, err)
		}
		c.Active = true
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// CountComments returns the number of comments, active or not, of a post.
func (q *Queries) CountComments(ctx context.Context, postID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments WHERE post_id = ?`, postID).Scan(&n)
	return n, err
}
