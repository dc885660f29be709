// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-blog/internal/model"
)

type countingSites struct {
	site  model.Site
	calls int
}

func (c *countingSites) GetActiveSite(_ context.Context, id int64) (model.Site, error) {
	c.calls++
	if id != c.site.ID {
		return model.Site{}, model.ErrNotFound
	}
	return c.site, nil
}

func TestSiteCache(t *testing.T) {
	ctx := context.Background()
	src := &countingSites{site: model.Site{ID: 3, Name: "Main", BlogRoot: "/blog", CommentsEnabled: true, Active: true}}
	mem := NewMemoryCache(MemoryOptions{})
	defer func() { _ = mem.Close() }()
	sc := NewSiteCache(mem, src, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))

	first, err := sc.GetActiveSite(ctx, 3)
	require.NoError(t, err)
	second, err := sc.GetActiveSite(ctx, 3)
	require.NoError(t, err)

	assert.Equal(t, src.site, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, src.calls)

	require.NoError(t, sc.Invalidate(ctx, 3))
	_, err = sc.GetActiveSite(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)

	_, err = sc.GetActiveSite(ctx, 42)
	assert.True(t, errors.Is(err, model.ErrNotFound))
	_, err = sc.GetActiveSite(ctx, 42)
	assert.True(t, errors.Is(err, model.ErrNotFound))
	assert.Equal(t, 4, src.calls, "not-found results are not cached")
}

func TestNewFallsBackToMemory(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := New(context.Background(), Config{RedisURL: "not a url"}, logger)
	defer func() { _ = c.Close() }()
	_, ok := c.(*MemoryCache)
	assert.True(t, ok)
}
