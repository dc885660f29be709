// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/olegiv/ocms-blog/internal/blog"
	"github.com/olegiv/ocms-blog/internal/render"
	"github.com/olegiv/ocms-blog/internal/search"
	"github.com/olegiv/ocms-blog/internal/util"
)

// Search handles GET /search. The page size comes from the limit parameter,
// then the size remembered in the session, then the default.
func (h *BlogHandler) Search(w http.ResponseWriter, r *http.Request) {
	if h.search == nil || !h.search.Enabled() {
		h.NotFound(w, r)
		return
	}
	site, ok := h.site(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	params := r.URL.Query()
	query := strings.TrimSpace(params.Get("q"))

	requested := util.PositiveIntOr(params.Get("limit"), 0)
	limit := requested
	if h.sessions != nil {
		limit = h.sessions.RememberSearchLimit(ctx, requested, h.opts.PerPage)
	}
	if limit <= 0 {
		limit = h.opts.PerPage
	}
	limit = min(limit, maxPerPage)

	view := ListView{Heading: "Search", Query: query, Limit: limit}
	if query == "" {
		h.render(w, r, http.StatusOK, render.PageSearch, view.Heading, view)
		return
	}

	page := util.PositiveIntOr(params.Get(h.opts.PageParam), 1)
	base := r.URL.Path + "?" + url.Values{"q": {query}}.Encode()
	res, err := h.search.Search(ctx, h.filter(site, h.state(r)), query, page, limit, blog.LinkTemplate(base, h.opts.PageParam))
	if errors.Is(err, search.ErrIndexNotFound) || errors.Is(err, search.ErrSearchDisabled) {
		h.NotFound(w, r)
		return
	}
	if err != nil {
		h.serverError(w, r, "searching posts", err, "query", query)
		return
	}
	views, err := h.postViews(ctx, site, res.Posts)
	if err != nil {
		h.serverError(w, r, "loading post links", err)
		return
	}

	view.Heading = "Search results for " + query
	view.Posts = views
	view.PageInfo = res.PageInfo
	h.render(w, r, http.StatusOK, render.PageSearch, view.Heading, view)
}
