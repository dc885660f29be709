// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session wraps the scs session manager and the handful of keys the
// blog reads and writes: login state set by the surrounding platform, the
// visitor's search page size and one-shot flash notices.
package session

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/ocms-blog/internal/blog"
	"github.com/olegiv/ocms-blog/internal/model"
)

// Session keys.
const (
	KeyLoggedIn    = "logged_in"
	KeyManager     = "manager"
	KeyUser        = "user"
	KeySearchLimit = "search_limit"
	KeyFlash       = "flash"
	KeyFlashType   = "flash_type"
)

// New creates a session manager backed by the sessions table.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()
	sm.Store = sqlite3store.New(db)

	sm.Lifetime = 24 * time.Hour
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev
	if !isDev {
		sm.Cookie.Name = "__Host-session"
		sm.Cookie.Path = "/"
	}
	return sm
}

// State is the visitor identity as recorded in the session.
type State struct {
	LoggedIn bool
	Manager  bool
	UserID   int64
}

// Authenticated reports whether the session carries the login flag. A
// manager session counts as authenticated.
func (s State) Authenticated() bool {
	return s.LoggedIn || s.Manager
}

// Visibility returns the post visibility set the visitor may read. It
// depends on the session flags only.
func (s State) Visibility() []model.Visibility {
	return model.VisibilityFor(s.Authenticated(), s.Manager)
}

// Submitter returns the comment author for the visitor. Only an
// authenticated session with a remembered user is credited; everyone else
// has UserID 0 and comments as the site's anonymous user.
func (s State) Submitter() blog.Submitter {
	who := blog.Submitter{Visibility: s.Visibility()}
	if s.Authenticated() && s.UserID > 0 {
		who.UserID = s.UserID
	}
	return who
}

// Store reads and writes blog session keys.
type Store struct {
	sm *scs.SessionManager
}

// NewStore wraps sm.
func NewStore(sm *scs.SessionManager) *Store {
	return &Store{sm: sm}
}

// Manager returns the underlying session manager for LoadAndSave.
func (s *Store) Manager() *scs.SessionManager {
	return s.sm
}

// Read returns the visitor's State.
func (s *Store) Read(ctx context.Context) State {
	return State{
		LoggedIn: s.sm.GetBool(ctx, KeyLoggedIn),
		Manager:  s.sm.GetBool(ctx, KeyManager),
		UserID:   s.sm.GetInt64(ctx, KeyUser),
	}
}

// Login records an authenticated visitor. The surrounding platform owns
// authentication; the blog only reads these keys.
func (s *Store) Login(ctx context.Context, userID int64, manager bool) error {
	if err := s.sm.RenewToken(ctx); err != nil {
		return err
	}
	s.sm.Put(ctx, KeyLoggedIn, true)
	s.sm.Put(ctx, KeyManager, manager)
	s.sm.Put(ctx, KeyUser, userID)
	return nil
}

// RememberSearchLimit stores requested when positive and returns it.
// Otherwise it returns the stored limit, or def when none was stored.
func (s *Store) RememberSearchLimit(ctx context.Context, requested, def int) int {
	if requested > 0 {
		s.sm.Put(ctx, KeySearchLimit, requested)
		return requested
	}
	if stored := s.sm.GetInt(ctx, KeySearchLimit); stored > 0 {
		return stored
	}
	return def
}

// Flash is a one-shot notice shown on the next rendered page.
type Flash struct {
	Message string
	Type    string
}

// SetFlash queues a notice for the next page.
func (s *Store) SetFlash(ctx context.Context, message, typ string) {
	s.sm.Put(ctx, KeyFlash, message)
	s.sm.Put(ctx, KeyFlashType, typ)
}

// PopFlash returns and clears the queued notice.
func (s *Store) PopFlash(ctx context.Context) (Flash, bool) {
	msg := s.sm.PopString(ctx, KeyFlash)
	typ := s.sm.PopString(ctx, KeyFlashType)
	if msg == "" {
		return Flash{}, false
	}
	if typ == "" {
		typ = blog.NoticeSuccess
	}
	return Flash{Message: msg, Type: typ}, true
}
