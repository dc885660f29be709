// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"fmt"
	"html/template"
	"net/url"
	"strconv"
	"time"

	"github.com/olegiv/ocms-blog/internal/blog"
	"github.com/olegiv/ocms-blog/internal/model"
	"github.com/olegiv/ocms-blog/internal/util"
)

// Link is a named href.
type Link struct {
	Name string
	URL  string
}

// PostView is a post prepared for the templates.
type PostView struct {
	model.Post
	// URL is the canonical path of the post; empty when none is registered.
	URL          string
	DisplayDate  time.Time
	UserURL      string
	TagLinks     []Link
	KeywordLinks []Link
	Body         template.HTML
}

// ListView backs every listing page.
type ListView struct {
	Heading     string
	Description string
	Posts       []PostView
	PageInfo    blog.PageInfo
	// Query and Limit are set on the search page.
	Query string
	Limit int
}

// PostPageView backs a single post with its comments.
type PostPageView struct {
	Post          PostView
	Comments      []model.Comment
	CommentsOpen  bool
	CommentAction string
	MaxLength     int
}

// PageView backs a plain content URI.
type PageView struct {
	Title string
	Body  template.HTML
}

// postViews decorates posts with their canonical and tag links, loaded in
// two batch queries.
func (h *BlogHandler) postViews(ctx context.Context, site model.Site, posts []model.Post) ([]PostView, error) {
	if len(posts) == 0 {
		return nil, nil
	}
	postIDs := make([]int64, 0, len(posts))
	var tagIDs []int64
	seen := make(map[int64]bool)
	for _, p := range posts {
		postIDs = append(postIDs, p.ID)
		for _, t := range p.Tags {
			if !seen[t.ID] {
				seen[t.ID] = true
				tagIDs = append(tagIDs, t.ID)
			}
		}
	}

	postURLs, err := h.queries.ListCanonicalURIs(ctx, site.ID, postIDs)
	if err != nil {
		return nil, fmt.Errorf("loading post links: %w", err)
	}
	tagURLs, err := h.queries.ListTagURIs(ctx, site.ID, tagIDs)
	if err != nil {
		return nil, fmt.Errorf("loading tag links: %w", err)
	}

	views := make([]PostView, len(posts))
	for i, p := range posts {
		views[i] = h.postView(p, postURLs[p.ID], tagURLs)
	}
	return views, nil
}

func (h *BlogHandler) postView(p model.Post, canonical string, tagURLs map[int64]string) PostView {
	v := PostView{
		Post:        p,
		URL:         canonical,
		DisplayDate: p.Date(h.posts.DateField()),
	}
	if p.UserID > 0 {
		v.UserURL = h.path("/user/" + strconv.FormatInt(p.UserID, 10))
	}
	// Tags without a registered URI have nowhere to link to.
	for _, t := range p.Tags {
		if u, ok := tagURLs[t.ID]; ok {
			v.TagLinks = append(v.TagLinks, Link{Name: t.Name, URL: u})
		}
	}
	for _, k := range util.SplitKeywords(p.MetaKeywords) {
		v.KeywordLinks = append(v.KeywordLinks, Link{Name: k, URL: h.path("/key/" + url.PathEscape(k))})
	}
	return v
}
