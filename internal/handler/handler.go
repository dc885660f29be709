// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the HTTP handlers of the blog section.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-blog/internal/blog"
	"github.com/olegiv/ocms-blog/internal/model"
	"github.com/olegiv/ocms-blog/internal/render"
	"github.com/olegiv/ocms-blog/internal/search"
	"github.com/olegiv/ocms-blog/internal/session"
	"github.com/olegiv/ocms-blog/internal/store"
)

// SiteSource returns the site the blog serves.
type SiteSource interface {
	GetActiveSite(ctx context.Context, id int64) (model.Site, error)
}

// Options holds request-level settings of the blog.
type Options struct {
	SiteID    int64
	MountPath string
	// PerPage is the page size when the request carries no valid limit.
	PerPage   int
	PageParam string
	// BaseURL is the public origin used for absolute links; the request
	// host is used when empty.
	BaseURL string
	// CommentsEnabled is the deployment-wide comment switch.
	CommentsEnabled bool
}

// Deps are the services the blog handlers call into.
type Deps struct {
	Sites    SiteSource
	Queries  *store.Queries
	Resolver *blog.Resolver
	Posts    *blog.PostQuery
	Search   *search.Service
	Comments *blog.CommentService
	Sessions *session.Store
	Renderer *render.Renderer
	Logger   *slog.Logger
}

// BlogHandler serves the blog pages under the mount path.
type BlogHandler struct {
	opts     Options
	sites    SiteSource
	queries  *store.Queries
	resolver *blog.Resolver
	posts    *blog.PostQuery
	search   *search.Service
	comments *blog.CommentService
	sessions *session.Store
	renderer *render.Renderer
	logger   *slog.Logger
}

// NewBlogHandler creates the blog handler.
func NewBlogHandler(opts Options, d Deps) *BlogHandler {
	if opts.PerPage <= 0 {
		opts.PerPage = 20
	}
	if opts.PageParam == "" {
		opts.PageParam = "page"
	}
	opts.MountPath = model.NormalizePath(opts.MountPath)
	return &BlogHandler{
		opts:     opts,
		sites:    d.Sites,
		queries:  d.Queries,
		resolver: d.Resolver,
		posts:    d.Posts,
		search:   d.Search,
		comments: d.Comments,
		sessions: d.Sessions,
		renderer: d.Renderer,
		logger:   d.Logger,
	}
}

// Routes returns the blog router, to be mounted at the mount path.
// commentMiddleware wraps the comment endpoint only.
func (h *BlogHandler) Routes(commentMiddleware ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Home)
	r.Get("/search", h.Search)
	r.Get("/sitemap.xml", h.Sitemap)
	r.Get("/key/{key}", h.Key)
	r.Get("/user/{user}", h.User)
	r.With(commentMiddleware...).Post("/comment", h.Comment)
	r.Get("/*", h.Archives)
	return r
}

// path returns p below the mount path.
func (h *BlogHandler) path(p string) string {
	return h.opts.MountPath + p
}

// site loads the served site. It writes the error response and returns
// false when the site is unavailable.
func (h *BlogHandler) site(w http.ResponseWriter, r *http.Request) (model.Site, bool) {
	site, err := h.sites.GetActiveSite(r.Context(), h.opts.SiteID)
	if errors.Is(err, model.ErrNotFound) {
		h.NotFound(w, r)
		return model.Site{}, false
	}
	if err != nil {
		h.serverError(w, r, "loading site", err, "site_id", h.opts.SiteID)
		return model.Site{}, false
	}
	return site, true
}

func (h *BlogHandler) state(r *http.Request) session.State {
	if h.sessions == nil {
		return session.State{}
	}
	return h.sessions.Read(r.Context())
}

// filter returns the base post predicate for the visitor.
func (h *BlogHandler) filter(site model.Site, st session.State) model.PostFilter {
	return model.PostFilter{SiteID: site.ID, Visibility: st.Visibility()}
}

func (h *BlogHandler) render(w http.ResponseWriter, r *http.Request, status int, page, title string, data any) {
	err := h.renderer.Render(w, r, status, page, render.TemplateData{Title: title, Data: data})
	if err != nil {
		h.logger.Error("rendering page failed", "category", model.EventCategoryBlog, "page", page, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// NotFound renders the 404 page.
func (h *BlogHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, render.PageNotFound, "Page not found", nil)
}

func (h *BlogHandler) serverError(w http.ResponseWriter, r *http.Request, msg string, err error, args ...any) {
	attrs := append([]any{"category", model.EventCategoryBlog, "path", r.URL.Path, "error", err}, args...)
	h.logger.Error(msg, attrs...)
	h.render(w, r, http.StatusInternalServerError, render.PageError, "Error", nil)
}
