// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/ocms-blog/internal/config"
	"github.com/olegiv/ocms-blog/internal/handler"
	"github.com/olegiv/ocms-blog/internal/middleware"
	"github.com/olegiv/ocms-blog/web"
)

// requestTimeout bounds every request, including the notification sent
// after a comment is stored.
const requestTimeout = 30 * time.Second

func newRouter(cfg *config.Config, sm *scs.SessionManager, blogHandler *handler.BlogHandler, healthHandler *handler.HealthHandler) (chi.Router, error) {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.SecurityHeaders(cfg.IsDevelopment()))
	r.Use(middleware.StripTrailingSlash)

	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		return nil, fmt.Errorf("getting static fs: %w", err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	csrf := middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment(), cfg.ServerAddr()))
	limit := middleware.RateLimit(middleware.RateLimitConfig{
		RPS:     cfg.CommentRate,
		Burst:   cfg.CommentBurst,
		OnLimit: http.HandlerFunc(blogHandler.CommentRateLimited),
	})

	r.Group(func(r chi.Router) {
		r.Use(sm.LoadAndSave)
		r.Mount(cfg.MountPath, blogHandler.Routes(csrf, limit))
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			http.Redirect(w, req, cfg.MountPath, http.StatusFound)
		})
		r.NotFound(blogHandler.NotFound)
	})

	return r, nil
}
