// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"net/http"
	"slices"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/ocms-blog/internal/blog"
	"github.com/olegiv/ocms-blog/internal/model"
	"github.com/olegiv/ocms-blog/internal/testutil"
)

func loaded(t *testing.T, sm *scs.SessionManager) context.Context {
	t.Helper()
	ctx, err := sm.Load(context.Background(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return ctx
}

func TestNew(t *testing.T) {
	db := testutil.TestDB(t)

	dev := New(db, true)
	if dev.Cookie.Secure {
		t.Error("expected Cookie.Secure = false in dev mode")
	}
	if dev.Cookie.Name == "__Host-session" {
		t.Error("expected default cookie name in dev mode")
	}
	if dev.Lifetime != 24*time.Hour {
		t.Errorf("Lifetime = %v, want 24h", dev.Lifetime)
	}
	if !dev.Cookie.HttpOnly || dev.Cookie.SameSite != http.SameSiteLaxMode {
		t.Error("unexpected cookie flags")
	}

	prod := New(db, false)
	if !prod.Cookie.Secure || prod.Cookie.Name != "__Host-session" || prod.Cookie.Path != "/" {
		t.Errorf("production cookie = %+v", prod.Cookie)
	}
}

func TestStateVisibility(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  []model.Visibility
		user  int64
	}{
		{"anonymous", State{}, []model.Visibility{model.VisibilityPublic}, 0},
		{"user id alone", State{UserID: 4}, []model.Visibility{model.VisibilityPublic}, 0},
		{"flag without user", State{LoggedIn: true},
			[]model.Visibility{model.VisibilityPublic, model.VisibilityRegister}, 0},
		{"member", State{LoggedIn: true, UserID: 4},
			[]model.Visibility{model.VisibilityPublic, model.VisibilityRegister}, 4},
		{"manager", State{LoggedIn: true, Manager: true, UserID: 5},
			[]model.Visibility{model.VisibilityPublic, model.VisibilityRegister, model.VisibilityManager}, 5},
		{"manager without user", State{LoggedIn: true, Manager: true},
			[]model.Visibility{model.VisibilityPublic, model.VisibilityRegister, model.VisibilityManager}, 0},
		{"manager flag only", State{Manager: true, UserID: 3},
			[]model.Visibility{model.VisibilityPublic, model.VisibilityRegister, model.VisibilityManager}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.Visibility(); !slices.Equal(got, tt.want) {
				t.Errorf("Visibility() = %v, want %v", got, tt.want)
			}
			who := tt.state.Submitter()
			if who.UserID != tt.user {
				t.Errorf("Submitter().UserID = %d, want %d", who.UserID, tt.user)
			}
		})
	}
}

func TestStoreReadFlagsWithoutUser(t *testing.T) {
	s := NewStore(New(testutil.TestDB(t), true))
	ctx := loaded(t, s.Manager())

	// The platform may set the flags without remembering a user.
	s.Manager().Put(ctx, KeyLoggedIn, true)
	s.Manager().Put(ctx, KeyManager, true)

	st := s.Read(ctx)
	want := []model.Visibility{model.VisibilityPublic, model.VisibilityRegister, model.VisibilityManager}
	if got := st.Visibility(); !slices.Equal(got, want) {
		t.Errorf("Visibility() = %v, want %v", got, want)
	}
	if who := st.Submitter(); who.UserID != 0 {
		t.Errorf("Submitter().UserID = %d, want 0", who.UserID)
	}
}

func TestStoreLoginAndRead(t *testing.T) {
	s := NewStore(New(testutil.TestDB(t), true))
	ctx := loaded(t, s.Manager())

	if got := s.Read(ctx); got != (State{}) {
		t.Fatalf("fresh Read() = %+v", got)
	}
	if err := s.Login(ctx, 12, true); err != nil {
		t.Fatalf("Login: %v", err)
	}
	got := s.Read(ctx)
	if !got.LoggedIn || !got.Manager || got.UserID != 12 {
		t.Errorf("Read() = %+v", got)
	}
}

func TestRememberSearchLimit(t *testing.T) {
	s := NewStore(New(testutil.TestDB(t), true))
	ctx := loaded(t, s.Manager())

	if got := s.RememberSearchLimit(ctx, 0, 20); got != 20 {
		t.Errorf("default = %d, want 20", got)
	}
	if got := s.RememberSearchLimit(ctx, 50, 20); got != 50 {
		t.Errorf("requested = %d, want 50", got)
	}
	if got := s.RememberSearchLimit(ctx, 0, 20); got != 50 {
		t.Errorf("remembered = %d, want 50", got)
	}
}

func TestFlash(t *testing.T) {
	s := NewStore(New(testutil.TestDB(t), true))
	ctx := loaded(t, s.Manager())

	if _, ok := s.PopFlash(ctx); ok {
		t.Fatal("PopFlash on empty session returned a notice")
	}
	s.SetFlash(ctx, blog.NoticeEmpty, blog.NoticeDanger)
	f, ok := s.PopFlash(ctx)
	if !ok || f.Message != blog.NoticeEmpty || f.Type != blog.NoticeDanger {
		t.Errorf("PopFlash() = %+v, %v", f, ok)
	}
	if _, ok := s.PopFlash(ctx); ok {
		t.Error("flash should be cleared after pop")
	}
}
