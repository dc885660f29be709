// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package blog

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/olegiv/ocms-blog/internal/model"
	"github.com/olegiv/ocms-blog/internal/store"
)

// MaxCommentLength is the longest accepted comment body, in characters.
const MaxCommentLength = 5000

// Notice messages shown after a submission.
const (
	NoticeDisabled  = "Not available to publish comments."
	NoticeAnonymous = "Not available to publish comments for anonymous users. Please log in."
	NoticeEmpty     = "Add a comment to publish."
	NoticeNoPost    = "The post you tried to comment on is not available."
	NoticeTooLong   = "The comment is too long."
	NoticeAccepted  = "Comment published successfully."
)

// CommentStore is the backend used by comment submission.
type CommentStore interface {
	GetVisiblePost(ctx context.Context, f model.PostFilter, id int64) (model.Post, error)
	GetCanonicalURIForPost(ctx context.Context, siteID, postID int64) (model.ContentURI, error)
	CreateComment(ctx context.Context, arg store.CreateCommentParams) (model.Comment, error)
}

// Notifier announces a newly published comment.
type Notifier interface {
	NotifyComment(ctx context.Context, n CommentNotice) error
}

// CommentNotice is the payload handed to a Notifier.
type CommentNotice struct {
	Site    model.Site
	Post    model.Post
	Comment model.Comment
	URL     string
}

// Submitter identifies who is commenting. UserID is 0 for anonymous callers.
type Submitter struct {
	UserID     int64
	Visibility []model.Visibility
}

// CommentInput is the submitted form.
type CommentInput struct {
	PostID int64  `validate:"gt=0"`
	Body   string `validate:"required,max=5000"`
	// Fallback is where to send the caller when the post cannot be resolved.
	Fallback string `validate:"-"`
}

// Decision is the outcome of one submission. Exactly one notice is set.
type Decision struct {
	Accepted   bool
	Notice     string
	NoticeType string
	Redirect   string
	Comment    model.Comment
}

// Flash types matching the notice severity.
const (
	NoticeSuccess = "success"
	NoticeDanger  = "danger"
)

// CommentService applies a site's comment policy and persists accepted comments.
type CommentService struct {
	store    CommentStore
	notifier Notifier
	logger   *slog.Logger
	validate *validator.Validate
	policy   *bluemonday.Policy
	// globalEnabled is the deployment-wide switch; both it and the site
	// flag must be on.
	globalEnabled bool
	now           func() time.Time
}

// NewCommentService creates a comment service. notifier may be nil.
func NewCommentService(s CommentStore, notifier Notifier, logger *slog.Logger, globalEnabled bool) *CommentService {
	return &CommentService{
		store:         s,
		notifier:      notifier,
		logger:        logger,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		policy:        bluemonday.StrictPolicy(),
		globalEnabled: globalEnabled,
		now:           time.Now,
	}
}

// Submit decides on a comment and, when accepted, stores it and sends the
// notification. Policy failures are reported through the Decision; only
// backend failures are returned as errors. A failed notification is logged
// and does not affect the stored comment.
func (s *CommentService) Submit(ctx context.Context, site model.Site, who Submitter, in CommentInput) (Decision, error) {
	// Stored as plain text; templates escape on output.
	in.Body = strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(in.Body)))

	fallback := in.Fallback
	if fallback == "" {
		fallback = site.BlogRoot
	}

	var (
		post      model.Post
		postFound bool
	)
	if in.PostID > 0 {
		f := model.PostFilter{SiteID: site.ID, Visibility: who.Visibility}
		p, err := s.store.GetVisiblePost(ctx, f, in.PostID)
		switch {
		case err == nil:
			post, postFound = p, true
		case !errors.Is(err, model.ErrNotFound):
			return Decision{}, fmt.Errorf("loading post %d: %w", in.PostID, err)
		}
	}

	redirect := fallback
	if postFound {
		target, err := s.canonicalURL(ctx, site, post.ID)
		if err != nil {
			return Decision{}, err
		}
		redirect = target
	}
	reject := func(notice string) (Decision, error) {
		return Decision{Notice: notice, NoticeType: NoticeDanger, Redirect: redirect}, nil
	}

	switch {
	case !s.globalEnabled || !site.CommentsEnabled:
		return reject(NoticeDisabled)
	case who.UserID == 0 && !site.AllowAnonymous:
		return reject(NoticeAnonymous)
	}
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Tag() == "max" {
			return reject(NoticeTooLong)
		}
		if in.PostID <= 0 {
			return reject(NoticeNoPost)
		}
		return reject(NoticeEmpty)
	}
	if !postFound {
		return reject(NoticeNoPost)
	}

	userID := who.UserID
	if userID == 0 {
		userID = site.AnonymousUserID
	}
	comment, err := s.store.CreateComment(ctx, store.CreateCommentParams{
		UUID:        uuid.NewString(),
		PostID:      post.ID,
		UserID:      userID,
		Description: in.Body,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return Decision{}, fmt.Errorf("saving comment: %w", err)
	}

	s.notify(ctx, CommentNotice{Site: site, Post: post, Comment: comment, URL: redirect})

	return Decision{
		Accepted:   true,
		Notice:     NoticeAccepted,
		NoticeType: NoticeSuccess,
		Redirect:   redirect,
		Comment:    comment,
	}, nil
}

// canonicalURL returns the first active URI registered for the post, or the
// blog root when none is.
func (s *CommentService) canonicalURL(ctx context.Context, site model.Site, postID int64) (string, error) {
	uri, err := s.store.GetCanonicalURIForPost(ctx, site.ID, postID)
	if errors.Is(err, model.ErrNotFound) {
		return site.BlogRoot, nil
	}
	if err != nil {
		return "", fmt.Errorf("loading canonical uri of post %d: %w", postID, err)
	}
	return uri.Path(), nil
}

func (s *CommentService) notify(ctx context.Context, n CommentNotice) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyComment(ctx, n); err != nil {
		s.logger.Warn("comment notification failed",
			"category", model.EventCategoryNotify,
			"post_id", n.Post.ID,
			"comment_id", n.Comment.ID,
			"error", err,
		)
	}
}
