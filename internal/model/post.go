// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// DateField names the post timestamp used for ordering and archive bounds.
type DateField string

// Supported post date fields.
const (
	DateFieldPublished DateField = "published_at"
	DateFieldCreated   DateField = "created_at"
)

// IsValid reports whether f is a supported column.
func (f DateField) IsValid() bool {
	return f == DateFieldPublished || f == DateFieldCreated
}

// Tag is a label attached to posts of a site.
type Tag struct {
	ID     int64
	SiteID int64
	Name   string
	Slug   string
}

// Post is a blog entry.
type Post struct {
	ID            int64
	Slug          string
	Title         string
	Description   string
	Content       string
	MetaKeywords  string
	UserID        int64
	UserName      string
	Visibility    Visibility
	Active        bool
	CreatedAt     time.Time
	PublishedAt   time.Time
	TotalComments int64
	Tags          []Tag
}

// Date returns the timestamp selected by f.
func (p Post) Date(f DateField) time.Time {
	if f == DateFieldCreated {
		return p.CreatedAt
	}
	return p.PublishedAt
}

// PostFilter is the predicate shared by every post listing:
// active AND visibility IN Visibility AND SiteID IN memberships,
// plus the optional narrowing fields.
type PostFilter struct {
	SiteID     int64
	Visibility []Visibility
	TagID      int64
	UserID     int64
	Keyword    string
	IDs        []int64
	Range      DateRange
	DateField  DateField
}
