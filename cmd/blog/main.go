// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/olegiv/ocms-blog/internal/blog"
	"github.com/olegiv/ocms-blog/internal/cache"
	"github.com/olegiv/ocms-blog/internal/config"
	"github.com/olegiv/ocms-blog/internal/handler"
	"github.com/olegiv/ocms-blog/internal/logging"
	"github.com/olegiv/ocms-blog/internal/notify"
	"github.com/olegiv/ocms-blog/internal/render"
	"github.com/olegiv/ocms-blog/internal/scheduler"
	"github.com/olegiv/ocms-blog/internal/search"
	"github.com/olegiv/ocms-blog/internal/session"
	"github.com/olegiv/ocms-blog/internal/store"
	"github.com/olegiv/ocms-blog/internal/version"
	"github.com/olegiv/ocms-blog/internal/webhook"
	"github.com/olegiv/ocms-blog/web"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	reindex := flag.Bool("reindex", false, "Rebuild the search index and exit")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "ocms-blog - blog section for oCMS sites\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOG_SESSION_SECRET    Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOG_DB_PATH           SQLite database path (default: ./data/blog.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOG_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOG_MOUNT_PATH        Path the blog is served under (default: /blog)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOG_SEARCH_DIR        Search index directory name; empty disables search\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOG_REDIS_URL         Redis URL for the site cache (optional)\n")
	}
	flag.Parse()

	if *showVersion {
		_, _ = fmt.Println(version.Current())
		os.Exit(0)
	}

	if err := run(*reindex); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(reindexOnly bool) error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.NewLogger(os.Stdout, cfg.LogLevel, nil)
	slog.SetDefault(logger)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	ctx := context.Background()
	if err := store.Migrate(ctx, db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// WARN and above also go to the event log from here on.
	logger = logging.NewLogger(os.Stdout, cfg.LogLevel, db)
	slog.SetDefault(logger)

	if cfg.DoSeed {
		if err := store.Seed(ctx, db); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}
	queries := store.New(db)
	posts := blog.NewPostQuery(queries, cfg.PostDateField())

	searchSvc, err := newSearchService(cfg, posts, logger)
	if err != nil {
		return err
	}
	defer func() { _ = searchSvc.Close() }()

	if reindexOnly {
		n, err := searchSvc.Reindex(ctx, queries)
		if err != nil {
			return fmt.Errorf("rebuilding search index: %w", err)
		}
		slog.Info("search index rebuilt", "documents", n)
		return nil
	}

	sm := session.New(db, cfg.IsDevelopment())
	sessions := session.NewStore(sm)

	siteCache := cache.New(ctx, cache.Config{
		RedisURL:        cfg.RedisURL,
		Prefix:          cfg.CachePrefix,
		DefaultTTL:      cfg.CacheTTLDuration(),
		MaxSize:         cfg.CacheMaxSize,
		CleanupInterval: time.Minute,
	}, logger)
	defer func() { _ = siteCache.Close() }()
	sites := cache.NewSiteCache(siteCache, queries, cfg.CacheTTLDuration(), logger)

	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		return err
	}

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("getting templates fs: %w", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS: templatesFS,
		Sessions:    sessions,
		SiteTitle:   cfg.Title,
		MountPath:   cfg.MountPath,
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}

	blogHandler := handler.NewBlogHandler(handler.Options{
		SiteID:          cfg.SiteID,
		MountPath:       cfg.MountPath,
		PerPage:         cfg.PaginationLimit,
		PageParam:       cfg.PageParam,
		BaseURL:         cfg.BaseURL,
		CommentsEnabled: cfg.Comments,
	}, handler.Deps{
		Sites:    sites,
		Queries:  queries,
		Resolver: blog.NewResolver(queries, cfg.ResolverBase()),
		Posts:    posts,
		Search:   searchSvc,
		Comments: blog.NewCommentService(queries, notifier, logger, cfg.Comments),
		Sessions: sessions,
		Renderer: renderer,
		Logger:   logger,
	})
	healthHandler := handler.NewHealthHandler(db, searchSvc, sessions, filepath.Dir(cfg.DBPath))

	sched := scheduler.New(logger)
	if err := addJobs(sched, cfg, searchSvc, queries, logger); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	r, err := newRouter(cfg, sm, blogHandler, healthHandler)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "mount", cfg.MountPath, "version", version.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// newSearchService returns a disabled service when no index directory is
// configured.
func newSearchService(cfg *config.Config, posts *blog.PostQuery, logger *slog.Logger) (*search.Service, error) {
	dir, err := cfg.SearchIndexDir()
	if err != nil && !errors.Is(err, search.ErrSearchDisabled) {
		return nil, fmt.Errorf("resolving search index directory: %w", err)
	}
	if dir == "" {
		slog.Info("search disabled")
	}
	return search.NewService(search.Config{
		Dir:      dir,
		Wildcard: cfg.SearchWildcard,
		MaxLimit: cfg.SearchMaxLimit,
	}, posts, logger), nil
}

// newNotifier combines the configured comment notification channels. It
// returns nil when none is configured.
func newNotifier(cfg *config.Config, logger *slog.Logger) (blog.Notifier, error) {
	var channels notify.Multi
	if cfg.MailEnabled() {
		mailer, err := notify.NewMailer(notify.MailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			Sender:   cfg.MailSender,
			Title:    cfg.Title,
			BaseURL:  cfg.BaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("configuring mail notifications: %w", err)
		}
		channels = append(channels, mailer)
	}
	if cfg.NotifyWebhookURL != "" {
		hook, err := webhook.NewNotifier(webhook.Config{
			URL:    cfg.NotifyWebhookURL,
			Secret: cfg.NotifyWebhookSecret,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("configuring webhook notifications: %w", err)
		}
		channels = append(channels, hook)
	}
	if len(channels) == 0 {
		return nil, nil
	}
	slog.Info("comment notifications enabled", "channels", len(channels))
	return channels, nil
}

func addJobs(s *scheduler.Scheduler, cfg *config.Config, svc *search.Service, queries *store.Queries, logger *slog.Logger) error {
	if cfg.SearchReindex != "" && svc.Enabled() {
		if err := s.Add(scheduler.JobReindex, "Rebuild the search index", cfg.SearchReindex,
			scheduler.ReindexJob(svc, queries, logger)); err != nil {
			return err
		}
	}
	if cfg.EventRetention() > 0 && cfg.EventPruneSchedule != "" {
		if err := s.Add(scheduler.JobPruneEvents, "Delete old event log entries", cfg.EventPruneSchedule,
			scheduler.PruneEventsJob(queries, cfg.EventRetention(), nil, logger)); err != nil {
			return err
		}
	}
	return nil
}
