// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/olegiv/ocms-blog/internal/model"
)

// GetUser returns a user by id.
func (q *Queries) GetUser(ctx context.Context, id int64) (model.User, error) {
	return q.getUser(ctx, `SELECT id, name, email, created_at FROM users WHERE id = ?`, id)
}

// GetUserByEmail returns a user by email address.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return q.getUser(ctx, `SELECT id, name, email, created_at FROM users WHERE email = ?`, email)
}

func (q *Queries) getUser(ctx context.Context, query string, arg any) (model.User, error) {
	var u model.User
	var created string
	if err := q.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Name, &u.Email, &created); err != nil {
		return model.User{}, notFound(err)
	}
	t, err := model.ParseTime(created)
	if err != nil {
		return model.User{}, fmt.Errorf("user %d created_at: %w", u.ID, err)
	}
	u.CreatedAt = t
	return u, nil
}

// CreateUser inserts a user.
func (q *Queries) CreateUser(ctx context.Context, name, email string) (model.User, error) {
	now := time.Now().UTC().Truncate(time.Second)
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO users (name, email, created_at) VALUES (?, ?, ?)`,
		name, email, model.FormatTime(now))
	if err != nil {
		return model.User{}, fmt.Errorf("inserting user %q: %w", email, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return model.User{ID: id, Name: name, Email: email, CreatedAt: now}, nil
}
