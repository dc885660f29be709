// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// ContentURI is a path registered against a site. The path is stored without
// its leading separator and matched exactly.
type ContentURI struct {
	ID       int64
	SiteID   int64
	URI      string
	Title    string
	Template string
	Body     string
	TagID    int64 // 0 when the URI carries no tag payload
	PostID   int64 // 0 when the URI carries no post payload
	Active   bool
}

// Path returns the URI as an absolute request path.
func (u ContentURI) Path() string {
	return "/" + u.URI
}

// HasTag reports whether the URI is associated with a tag.
func (u ContentURI) HasTag() bool {
	return u.TagID != 0
}

// HasPost reports whether the URI is associated with a post.
func (u ContentURI) HasPost() bool {
	return u.PostID != 0
}
