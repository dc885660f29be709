// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "strings"

// Site is a tenant of the platform. Every content query is scoped to one site.
type Site struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	BlogRoot        string `json:"blog_root"`
	TagsRoot        string `json:"tags_root"`
	ArchivesRoot    string `json:"archives_root"`
	CommentsEnabled bool   `json:"comments_enabled"`
	AllowAnonymous  bool   `json:"allow_anonymous"`
	AnonymousUserID int64  `json:"anonymous_user_id"`
	Active          bool   `json:"active"`
}

// NormalizePath returns p with a single leading slash and no trailing slash.
// The empty string and "/" both normalize to "/".
func NormalizePath(p string) string {
	p = strings.Trim(p, "/")
	return "/" + p
}

// HasPathPrefix reports whether path lies under root, matching on whole
// segments so that "/blog/tagsfoo" is not under "/blog/tags".
func HasPathPrefix(path, root string) bool {
	root = NormalizePath(root)
	if root == "/" {
		return strings.HasPrefix(path, "/")
	}
	return path == root || strings.HasPrefix(path, root+"/")
}
