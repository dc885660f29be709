// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package webhook delivers signed JSON notifications about blog activity to
// an operator-configured endpoint.
package webhook

import (
	"time"

	"github.com/olegiv/ocms-blog/internal/blog"
)

// Event types.
const (
	EventCommentPublished = "comment.published"
)

// Event is the JSON envelope posted to the endpoint.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// NewEvent creates an event stamped with the current time.
func NewEvent(eventType string, data any) *Event {
	return &Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// CommentEventData describes a published comment.
type CommentEventData struct {
	CommentUUID string    `json:"comment_uuid"`
	PostID      int64     `json:"post_id"`
	PostTitle   string    `json:"post_title"`
	SiteID      int64     `json:"site_id"`
	UserID      int64     `json:"user_id"`
	Body        string    `json:"body"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
}

// CommentData builds the event payload for n.
func CommentData(n blog.CommentNotice) CommentEventData {
	return CommentEventData{
		CommentUUID: n.Comment.UUID,
		PostID:      n.Post.ID,
		PostTitle:   n.Post.Title,
		SiteID:      n.Site.ID,
		UserID:      n.Comment.UserID,
		Body:        n.Comment.Description,
		URL:         n.URL,
		CreatedAt:   n.Comment.CreatedAt,
	}
}
