// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/olegiv/ocms-blog/internal/blog"
	"github.com/olegiv/ocms-blog/internal/model"
	"github.com/olegiv/ocms-blog/internal/util"
)

// maxCommentForm bounds the comment request body.
const maxCommentForm = 64 << 10

// NoticeRateLimited is shown when a visitor comments too often.
const NoticeRateLimited = "Too many comments. Please wait a moment and try again."

// Comment handles POST /comment. Every outcome sets one flash notice and
// redirects with 303.
func (h *BlogHandler) Comment(w http.ResponseWriter, r *http.Request) {
	site, ok := h.site(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCommentForm)
	// An unreadable form is handled like an empty one.
	_ = r.ParseForm()
	postID, _ := util.ParsePositiveID(r.PostFormValue("post"))

	decision, err := h.comments.Submit(r.Context(), site, h.state(r).Submitter(), blog.CommentInput{
		PostID:   postID,
		Body:     r.PostFormValue("comment"),
		Fallback: localReferer(r),
	})
	if err != nil {
		h.serverError(w, r, "submitting comment", err, "post_id", postID)
		return
	}

	h.flash(r, decision.Notice, decision.NoticeType)
	http.Redirect(w, r, decision.Redirect, http.StatusSeeOther)
}

// CommentRateLimited answers comment requests rejected by the rate limiter.
func (h *BlogHandler) CommentRateLimited(w http.ResponseWriter, r *http.Request) {
	h.logger.Warn("comment rate limited", "category", model.EventCategoryComment, "remote_addr", r.RemoteAddr)
	h.flash(r, NoticeRateLimited, blog.NoticeDanger)
	target := localReferer(r)
	if target == "" {
		target = h.opts.MountPath
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *BlogHandler) flash(r *http.Request, message, typ string) {
	if h.sessions != nil && message != "" {
		h.sessions.SetFlash(r.Context(), message, typ)
	}
}

// localReferer returns the Referer as a path on this host, or "" when it
// points elsewhere.
func localReferer(r *http.Request) string {
	ref := r.Referer()
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if u.Host != "" && !strings.EqualFold(u.Host, r.Host) {
		return ""
	}
	p := u.EscapedPath()
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return ""
	}
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return p
}
