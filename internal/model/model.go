// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the domain types shared by the blog section:
// sites, registered content URIs, posts, comments, users and the
// per-request derived values (visibility sets and date ranges).
package model

import (
	"errors"
	"time"
)

// ErrNotFound is returned by repositories when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// TimeLayout is the layout used to persist timestamps. Values are always
// stored in UTC so that lexical order equals chronological order.
const TimeLayout = "2006-01-02 15:04:05"

// FormatTime formats t for storage.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a stored timestamp. Only TimeLayout is accepted: a
// date-only value would sort before midnight of its own day.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeLayout, s)
}
