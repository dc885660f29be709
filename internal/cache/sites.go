// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/olegiv/ocms-blog/internal/model"
)

// SiteSource loads an active site from the database.
type SiteSource interface {
	GetActiveSite(ctx context.Context, id int64) (model.Site, error)
}

// SiteCache serves site configuration from a Cache and falls through to the
// database on a miss. Cache errors never fail a lookup.
type SiteCache struct {
	cache  Cache
	source SiteSource
	ttl    time.Duration
	logger *slog.Logger
}

// NewSiteCache wraps source with c.
func NewSiteCache(c Cache, source SiteSource, ttl time.Duration, logger *slog.Logger) *SiteCache {
	return &SiteCache{cache: c, source: source, ttl: ttl, logger: logger}
}

func siteKey(id int64) string {
	return "site:" + strconv.FormatInt(id, 10)
}

// GetActiveSite returns the site with the given id. model.ErrNotFound from
// the source is passed through and not cached.
func (s *SiteCache) GetActiveSite(ctx context.Context, id int64) (model.Site, error) {
	key := siteKey(id)
	if raw, err := s.cache.Get(ctx, key); err == nil {
		var site model.Site
		if err := json.Unmarshal(raw, &site); err == nil {
			return site, nil
		}
		s.logger.Warn("discarding undecodable cached site", "site_id", id)
	} else if !errors.Is(err, ErrCacheMiss) {
		s.logger.Warn("site cache read failed", "site_id", id, "error", err)
	}

	site, err := s.source.GetActiveSite(ctx, id)
	if err != nil {
		return model.Site{}, err
	}
	if raw, err := json.Marshal(site); err == nil {
		if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
			s.logger.Warn("site cache write failed", "site_id", id, "error", err)
		}
	}
	return site, nil
}

// Invalidate drops a cached site after its settings change.
func (s *SiteCache) Invalidate(ctx context.Context, id int64) error {
	return s.cache.Delete(ctx, siteKey(id))
}
