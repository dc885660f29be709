// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package blog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-blog/internal/model"
)

func commentFixture() *memPosts {
	m := seedPosts()
	m.uris = []model.ContentURI{{ID: 11, SiteID: 1, URI: "blog/one", PostID: 1, Active: true}}
	return m
}

func newTestCommentService(s CommentStore, n Notifier, enabled bool) *CommentService {
	svc := NewCommentService(s, n, slog.New(slog.NewTextHandler(io.Discard, nil)), enabled)
	svc.now = func() time.Time { return day(2024, 6, 1) }
	return svc
}

func TestSubmitAccepted(t *testing.T) {
	s := commentFixture()
	n := &recordingNotifier{}
	svc := newTestCommentService(s, n, true)

	d, err := svc.Submit(context.Background(), testSite(), Submitter{UserID: 42}, CommentInput{PostID: 1, Body: "  Great post!  "})
	require.NoError(t, err)

	assert.True(t, d.Accepted)
	assert.Equal(t, NoticeAccepted, d.Notice)
	assert.Equal(t, NoticeSuccess, d.NoticeType)
	assert.Equal(t, "/blog/one", d.Redirect)

	require.Len(t, s.comments, 1)
	assert.Equal(t, int64(42), s.comments[0].UserID)
	assert.Equal(t, "Great post!", s.comments[0].Description)
	assert.NotEmpty(t, s.comments[0].UUID)
	assert.Equal(t, day(2024, 6, 1), s.comments[0].CreatedAt)

	require.Len(t, n.notices, 1)
	assert.Equal(t, int64(1), n.notices[0].Post.ID)
	assert.Equal(t, "/blog/one", n.notices[0].URL)
}

func TestSubmitAnonymousUsesSiteUser(t *testing.T) {
	s := commentFixture()
	svc := newTestCommentService(s, nil, true)

	d, err := svc.Submit(context.Background(), testSite(), Submitter{}, CommentInput{PostID: 5, Body: "hi"})
	require.NoError(t, err)
	assert.True(t, d.Accepted)
	require.Len(t, s.comments, 1)
	assert.Equal(t, int64(99), s.comments[0].UserID)
	// Post 5 has no registered URI.
	assert.Equal(t, "/blog", d.Redirect)
}

func TestSubmitRejected(t *testing.T) {
	disabled := testSite()
	disabled.CommentsEnabled = false
	noAnon := testSite()
	noAnon.AllowAnonymous = false

	tests := []struct {
		name         string
		site         model.Site
		global       bool
		who          Submitter
		in           CommentInput
		wantNotice   string
		wantRedirect string
	}{
		{
			name:         "site disabled",
			site:         disabled,
			global:       true,
			who:          Submitter{UserID: 42},
			in:           CommentInput{PostID: 1, Body: "valid"},
			wantNotice:   NoticeDisabled,
			wantRedirect: "/blog/one",
		},
		{
			name:         "globally disabled",
			site:         testSite(),
			global:       false,
			who:          Submitter{UserID: 42},
			in:           CommentInput{PostID: 1, Body: "valid"},
			wantNotice:   NoticeDisabled,
			wantRedirect: "/blog/one",
		},
		{
			name:         "anonymous not allowed",
			site:         noAnon,
			global:       true,
			in:           CommentInput{PostID: 1, Body: "valid"},
			wantNotice:   NoticeAnonymous,
			wantRedirect: "/blog/one",
		},
		{
			name:         "empty body",
			site:         testSite(),
			global:       true,
			who:          Submitter{UserID: 42},
			in:           CommentInput{PostID: 1, Body: "   "},
			wantNotice:   NoticeEmpty,
			wantRedirect: "/blog/one",
		},
		{
			name:         "markup only body",
			site:         testSite(),
			global:       true,
			who:          Submitter{UserID: 42},
			in:           CommentInput{PostID: 1, Body: "<script></script>"},
			wantNotice:   NoticeEmpty,
			wantRedirect: "/blog/one",
		},
		{
			name:         "too long",
			site:         testSite(),
			global:       true,
			who:          Submitter{UserID: 42},
			in:           CommentInput{PostID: 1, Body: strings.Repeat("a", MaxCommentLength+1)},
			wantNotice:   NoticeTooLong,
			wantRedirect: "/blog/one",
		},
		{
			name:         "missing post id",
			site:         testSite(),
			global:       true,
			who:          Submitter{UserID: 42},
			in:           CommentInput{Body: "valid", Fallback: "/blog/previous"},
			wantNotice:   NoticeNoPost,
			wantRedirect: "/blog/previous",
		},
		{
			name:         "unknown post",
			site:         testSite(),
			global:       true,
			who:          Submitter{UserID: 42},
			in:           CommentInput{PostID: 404, Body: "valid", Fallback: "/blog/previous"},
			wantNotice:   NoticeNoPost,
			wantRedirect: "/blog/previous",
		},
		{
			name:         "post not visible falls back to blog root",
			site:         testSite(),
			global:       true,
			who:          Submitter{UserID: 42},
			in:           CommentInput{PostID: 4, Body: "valid"},
			wantNotice:   NoticeNoPost,
			wantRedirect: "/blog",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := commentFixture()
			n := &recordingNotifier{}
			svc := newTestCommentService(s, n, tt.global)

			d, err := svc.Submit(context.Background(), tt.site, tt.who, tt.in)
			require.NoError(t, err)
			assert.False(t, d.Accepted)
			assert.Equal(t, tt.wantNotice, d.Notice)
			assert.Equal(t, NoticeDanger, d.NoticeType)
			assert.Equal(t, tt.wantRedirect, d.Redirect)
			assert.Empty(t, s.comments, "no comment may be created")
			assert.Empty(t, n.notices)
		})
	}
}

func TestSubmitNotificationFailureKeepsComment(t *testing.T) {
	s := commentFixture()
	n := &recordingNotifier{err: errors.New("smtp: connection refused")}
	svc := newTestCommentService(s, n, true)

	d, err := svc.Submit(context.Background(), testSite(), Submitter{UserID: 42}, CommentInput{PostID: 1, Body: "hello"})
	require.NoError(t, err)
	assert.True(t, d.Accepted)
	assert.Len(t, s.comments, 1)
	assert.Len(t, n.notices, 1)
}

func TestSubmitSanitizesBody(t *testing.T) {
	s := commentFixture()
	svc := newTestCommentService(s, nil, true)

	_, err := svc.Submit(context.Background(), testSite(), Submitter{UserID: 42},
		CommentInput{PostID: 1, Body: `<b>bold</b> <a href="javascript:alert(1)">link</a>`})
	require.NoError(t, err)
	require.Len(t, s.comments, 1)
	assert.Equal(t, "bold link", s.comments[0].Description)

	_, err = svc.Submit(context.Background(), testSite(), Submitter{UserID: 42},
		CommentInput{PostID: 1, Body: "fish & chips"})
	require.NoError(t, err)
	require.Len(t, s.comments, 2)
	assert.Equal(t, "fish & chips", s.comments[1].Description)
}

func TestSubmitBackendError(t *testing.T) {
	s := commentFixture()
	s.err = errBackend
	svc := newTestCommentService(s, nil, true)

	_, err := svc.Submit(context.Background(), testSite(), Submitter{UserID: 42}, CommentInput{PostID: 1, Body: "hello"})
	assert.ErrorIs(t, err, errBackend)
	assert.Empty(t, s.comments)
}
