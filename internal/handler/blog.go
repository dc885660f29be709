// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-blog/internal/blog"
	"github.com/olegiv/ocms-blog/internal/model"
	"github.com/olegiv/ocms-blog/internal/render"
	"github.com/olegiv/ocms-blog/internal/session"
	"github.com/olegiv/ocms-blog/internal/util"
)

// maxPerPage bounds the limit a visitor may request.
const maxPerPage = 100

// Home handles GET / below the mount path. The site must register its blog
// root as a URI; its title and body head the feed.
func (h *BlogHandler) Home(w http.ResponseWriter, r *http.Request) {
	site, ok := h.site(w, r)
	if !ok {
		return
	}
	root := strings.Trim(site.BlogRoot, "/")
	uri, err := h.queries.GetActiveURI(r.Context(), site.ID, root)
	if errors.Is(err, model.ErrNotFound) {
		h.NotFound(w, r)
		return
	}
	if err != nil {
		h.serverError(w, r, "loading blog root", err, "uri", root)
		return
	}

	view, ok := h.list(w, r, site, h.filter(site, h.state(r)), uri.Title, uri.Body)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, h.renderer.Pick(uri.Template, render.PageBlog), uri.Title, view)
}

// Archives handles every other GET below the mount path: registered URIs
// first, then year and month archives.
func (h *BlogHandler) Archives(w http.ResponseWriter, r *http.Request) {
	site, ok := h.site(w, r)
	if !ok {
		return
	}
	suffix := chi.URLParam(r, "*")
	out, err := h.resolver.Resolve(r.Context(), site, suffix)
	if err != nil {
		h.serverError(w, r, "resolving blog path", err, "suffix", suffix)
		return
	}
	st := h.state(r)

	switch out.Kind {
	case blog.TagPage:
		if out.URI.HasTag() {
			h.tagPage(w, r, site, st, out.URI)
			return
		}
		h.contentPage(w, r, site, st, out.URI)
	case blog.DirectContent:
		h.contentPage(w, r, site, st, out.URI)
	case blog.ArchivePage:
		f := h.filter(site, st)
		f.Range = out.Archive.Range
		view, ok := h.list(w, r, site, f, out.Archive.Title, "")
		if !ok {
			return
		}
		h.render(w, r, http.StatusOK, render.PageArchive, out.Archive.Title, view)
	default:
		h.NotFound(w, r)
	}
}

// Key handles GET /key/{key}: posts whose keywords contain key.
func (h *BlogHandler) Key(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if unescaped, err := url.PathUnescape(key); err == nil {
		key = unescaped
	}
	key = strings.TrimSpace(key)
	if key == "" {
		h.NotFound(w, r)
		return
	}
	site, ok := h.site(w, r)
	if !ok {
		return
	}

	f := h.filter(site, h.state(r))
	f.Keyword = key
	heading := "Keyword: " + key
	view, ok := h.list(w, r, site, f, heading, "")
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, render.PageKey, heading, view)
}

// User handles GET /user/{user}: posts written by one user. Unknown users
// and users without visible posts are not found.
func (h *BlogHandler) User(w http.ResponseWriter, r *http.Request) {
	id, ok := util.ParsePositiveID(chi.URLParam(r, "user"))
	if !ok {
		h.NotFound(w, r)
		return
	}
	site, ok := h.site(w, r)
	if !ok {
		return
	}
	user, err := h.queries.GetUser(r.Context(), id)
	if errors.Is(err, model.ErrNotFound) {
		h.NotFound(w, r)
		return
	}
	if err != nil {
		h.serverError(w, r, "loading user", err, "user_id", id)
		return
	}

	f := h.filter(site, h.state(r))
	f.UserID = user.ID
	heading := "Posts by " + user.DisplayName()
	view, ok := h.list(w, r, site, f, heading, "")
	if !ok {
		return
	}
	if view.PageInfo.Total == 0 {
		h.NotFound(w, r)
		return
	}
	h.render(w, r, http.StatusOK, render.PageUser, heading, view)
}

func (h *BlogHandler) tagPage(w http.ResponseWriter, r *http.Request, site model.Site, st session.State, uri model.ContentURI) {
	heading := uri.Title
	if heading == "" {
		tag, err := h.queries.GetTag(r.Context(), uri.TagID)
		switch {
		case err == nil:
			heading = tag.Name
		case !errors.Is(err, model.ErrNotFound):
			h.serverError(w, r, "loading tag", err, "tag_id", uri.TagID)
			return
		}
	}

	f := h.filter(site, st)
	f.TagID = uri.TagID
	view, ok := h.list(w, r, site, f, heading, uri.Body)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, h.renderer.Pick(uri.Template, render.PageTag), heading, view)
}

// contentPage renders a URI that carries a post, or its own body when it
// carries none.
func (h *BlogHandler) contentPage(w http.ResponseWriter, r *http.Request, site model.Site, st session.State, uri model.ContentURI) {
	if !uri.HasPost() {
		view := PageView{Title: uri.Title, Body: render.Markdown(uri.Body)}
		h.render(w, r, http.StatusOK, h.renderer.Pick(uri.Template, render.PageContent), uri.Title, view)
		return
	}

	ctx := r.Context()
	posts, err := h.posts.Lookup(ctx, h.filter(site, st), []int64{uri.PostID})
	if err != nil {
		h.serverError(w, r, "loading post", err, "post_id", uri.PostID)
		return
	}
	if len(posts) == 0 {
		h.NotFound(w, r)
		return
	}
	views, err := h.postViews(ctx, site, posts)
	if err != nil {
		h.serverError(w, r, "loading post links", err, "post_id", uri.PostID)
		return
	}
	post := views[0]
	post.Body = render.Markdown(post.Content)

	comments, err := h.queries.ListCommentsForPost(ctx, post.ID)
	if err != nil {
		h.serverError(w, r, "loading comments", err, "post_id", post.ID)
		return
	}

	view := PostPageView{
		Post:          post,
		Comments:      comments,
		CommentsOpen:  h.commentsOpen(site, st),
		CommentAction: h.path("/comment"),
		MaxLength:     blog.MaxCommentLength,
	}
	h.render(w, r, http.StatusOK, h.renderer.Pick(uri.Template, render.PagePost), post.Title, view)
}

// commentsOpen reports whether the visitor would have a comment accepted.
func (h *BlogHandler) commentsOpen(site model.Site, st session.State) bool {
	if !h.opts.CommentsEnabled || !site.CommentsEnabled {
		return false
	}
	return st.Submitter().UserID > 0 || site.AllowAnonymous
}

// list runs a paginated post query for the request. It writes the error
// response and returns false on failure.
func (h *BlogHandler) list(w http.ResponseWriter, r *http.Request, site model.Site, f model.PostFilter, heading, description string) (ListView, bool) {
	page, perPage, tmpl := h.pageRequest(r)
	res, err := h.posts.Query(r.Context(), f, page, perPage, tmpl)
	if err != nil {
		h.serverError(w, r, "querying posts", err)
		return ListView{}, false
	}
	views, err := h.postViews(r.Context(), site, res.Posts)
	if err != nil {
		h.serverError(w, r, "loading post links", err)
		return ListView{}, false
	}
	return ListView{
		Heading:     heading,
		Description: description,
		Posts:       views,
		PageInfo:    res.PageInfo,
	}, true
}

// pageRequest reads the page number and size of a listing request and
// builds the link template for its pagination. A non-default limit is
// carried into the page links.
func (h *BlogHandler) pageRequest(r *http.Request) (page, perPage int, linkTemplate string) {
	q := r.URL.Query()
	page = util.PositiveIntOr(q.Get(h.opts.PageParam), 1)
	perPage = min(util.PositiveIntOr(q.Get("limit"), h.opts.PerPage), maxPerPage)

	base := r.URL.Path
	if perPage != h.opts.PerPage {
		base += "?limit=" + strconv.Itoa(perPage)
	}
	return page, perPage, blog.LinkTemplate(base, h.opts.PageParam)
}
