// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Comment is a reader comment attached to a post.
type Comment struct {
	ID          int64
	UUID        string
	PostID      int64
	UserID      int64
	UserName    string
	Description string
	Active      bool
	CreatedAt   time.Time
}
