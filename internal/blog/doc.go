// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package blog holds the request-independent core of the blog section:
// the URI resolver that turns a path suffix into registered content, a tag
// page or a date archive; the paginated post query shared by every
// listing; and the comment submission state machine.
//
// Collaborators are consumed through small interfaces so the core can be
// exercised without a database.
package blog
