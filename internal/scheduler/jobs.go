// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/ocms-blog/internal/model"
	"github.com/olegiv/ocms-blog/internal/search"
)

// Job names.
const (
	JobReindex     = "search-reindex"
	JobPruneEvents = "prune-events"
)

// Reindexer rebuilds the text index.
type Reindexer interface {
	Reindex(ctx context.Context, src search.DocumentSource) (int, error)
}

// ReindexJob rebuilds the search index from src.
func ReindexJob(idx Reindexer, src search.DocumentSource, logger *slog.Logger) JobFunc {
	return func(ctx context.Context) error {
		n, err := idx.Reindex(ctx, src)
		if err != nil {
			return fmt.Errorf("rebuilding search index: %w", err)
		}
		logger.Info("search index rebuilt by scheduler", "category", model.EventCategorySearch, "documents", n)
		return nil
	}
}

// EventPruner deletes old event log entries.
type EventPruner interface {
	DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// PruneEventsJob deletes events older than maxAge.
func PruneEventsJob(p EventPruner, maxAge time.Duration, now func() time.Time, logger *slog.Logger) JobFunc {
	if now == nil {
		now = time.Now
	}
	return func(ctx context.Context) error {
		n, err := p.DeleteEventsBefore(ctx, now().Add(-maxAge))
		if err != nil {
			return fmt.Errorf("pruning events: %w", err)
		}
		if n > 0 {
			logger.Info("pruned old events", "category", model.EventCategorySystem, "deleted", n)
		}
		return nil
	}
}
