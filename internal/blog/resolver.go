// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package blog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/olegiv/ocms-blog/internal/model"
)

// URILookup finds an active registered URI of a site by exact path.
// It returns model.ErrNotFound when nothing is registered.
type URILookup interface {
	GetActiveURI(ctx context.Context, siteID int64, uri string) (model.ContentURI, error)
}

// OutcomeKind classifies a resolved path.
type OutcomeKind int

// Resolution outcomes.
const (
	NotFound OutcomeKind = iota
	DirectContent
	TagPage
	ArchivePage
)

func (k OutcomeKind) String() string {
	switch k {
	case DirectContent:
		return "direct"
	case TagPage:
		return "tag"
	case ArchivePage:
		return "archive"
	}
	return "not_found"
}

// Outcome is the result of resolving a path suffix.
type Outcome struct {
	Kind OutcomeKind
	// Path is the full request path that was resolved, with a leading slash.
	Path string
	// URI is set for DirectContent and TagPage.
	URI model.ContentURI
	// Archive is set for ArchivePage.
	Archive Archive
}

// Base selects the site root a path suffix is appended to.
type Base string

// Supported resolution bases.
const (
	// BaseBlogRoot appends the suffix to the blog root, so tag, archive and
	// content paths all live below the blog mount.
	BaseBlogRoot Base = "blog"
	// BaseArchiveRoot appends the suffix to the archive root. Only archive
	// dates and URIs registered below the archive root resolve.
	BaseArchiveRoot Base = "archive"
)

// IsValid reports whether b is a supported base.
func (b Base) IsValid() bool {
	return b == BaseBlogRoot || b == BaseArchiveRoot
}

// Resolver maps request path suffixes to outcomes.
type Resolver struct {
	uris URILookup
	base Base
}

// NewResolver creates a resolver. An invalid base falls back to BaseBlogRoot.
func NewResolver(uris URILookup, base Base) *Resolver {
	if !base.IsValid() {
		base = BaseBlogRoot
	}
	return &Resolver{uris: uris, base: base}
}

// Resolve decides what suffix denotes for site. A registered URI always wins
// over archive parsing. Lookup failures other than a miss are returned as
// errors, never as NotFound.
func (r *Resolver) Resolve(ctx context.Context, site model.Site, suffix string) (Outcome, error) {
	suffix = strings.TrimPrefix(suffix, "/")
	if suffix == "" {
		return Outcome{Kind: NotFound}, nil
	}

	root := site.BlogRoot
	if r.base == BaseArchiveRoot {
		root = site.ArchivesRoot
	}
	full := joinPath(root, suffix)
	out := Outcome{Kind: NotFound, Path: full}

	uri, err := r.uris.GetActiveURI(ctx, site.ID, strings.TrimPrefix(full, "/"))
	switch {
	case err == nil:
		out.URI = uri
		if model.HasPathPrefix(full, site.TagsRoot) {
			out.Kind = TagPage
		} else {
			out.Kind = DirectContent
		}
		return out, nil
	case !errors.Is(err, model.ErrNotFound):
		return Outcome{}, fmt.Errorf("looking up uri %q: %w", full, err)
	}

	archives := model.NormalizePath(site.ArchivesRoot)
	if !model.HasPathPrefix(full, archives) {
		return out, nil
	}
	rest := strings.TrimPrefix(full, archives)
	if archives == "/" {
		rest = full
	}
	archive, ok := ParseArchive(SplitArchivePath(rest))
	if !ok {
		return out, nil
	}
	out.Kind = ArchivePage
	out.Archive = archive
	return out, nil
}

// joinPath appends suffix to root, yielding a path with one leading slash.
func joinPath(root, suffix string) string {
	root = model.NormalizePath(root)
	if root == "/" {
		return "/" + suffix
	}
	return root + "/" + suffix
}
