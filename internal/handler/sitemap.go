// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"time"

	"github.com/olegiv/ocms-blog/internal/model"
	"github.com/olegiv/ocms-blog/internal/seo"
)

// sitemapLimit bounds the posts listed in the sitemap.
const sitemapLimit = 1000

// Sitemap handles GET /sitemap.xml: the blog home, public posts with a
// registered URI, and the tag listings of those posts.
func (h *BlogHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	site, ok := h.site(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	f := model.PostFilter{SiteID: site.ID, Visibility: model.VisibilityFor(false, false)}
	res, err := h.posts.Query(ctx, f, 1, sitemapLimit, "")
	if err != nil {
		h.serverError(w, r, "querying sitemap posts", err)
		return
	}
	views, err := h.postViews(ctx, site, res.Posts)
	if err != nil {
		h.serverError(w, r, "loading sitemap links", err)
		return
	}

	b := seo.NewSitemapBuilder(h.baseURL(r))
	var latest time.Time
	if len(views) > 0 {
		latest = views[0].DisplayDate
	}
	b.AddHome(h.opts.MountPath, latest)
	for _, v := range views {
		b.AddPost(v.URL, v.DisplayDate)
	}
	// Posts are newest first, so a tag carries the date of its latest post.
	for _, v := range views {
		for _, t := range v.TagLinks {
			b.AddTag(t.URL, v.DisplayDate)
		}
	}

	data, err := b.Build()
	if err != nil {
		h.serverError(w, r, "building sitemap", err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write(data)
}

// baseURL returns the configured public origin, or the origin of r.
func (h *BlogHandler) baseURL(r *http.Request) string {
	if h.opts.BaseURL != "" {
		return h.opts.BaseURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
