// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/olegiv/ocms-blog/internal/blog"
	"github.com/olegiv/ocms-blog/internal/model"
	"github.com/olegiv/ocms-blog/internal/search"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"BLOG_DB_PATH" envDefault:"./data/blog.db"`
	SessionSecret string `env:"BLOG_SESSION_SECRET,required"`
	ServerHost    string `env:"BLOG_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"BLOG_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"BLOG_ENV" envDefault:"development"`
	LogLevel      string `env:"BLOG_LOG_LEVEL" envDefault:"info"`

	// Blog section
	SiteID          int64   `env:"BLOG_SITE_ID" envDefault:"1"`
	MountPath       string  `env:"BLOG_MOUNT_PATH" envDefault:"/blog"`
	Title           string  `env:"BLOG_TITLE" envDefault:"Blog"`
	BaseURL         string  `env:"BLOG_BASE_URL"` // absolute links in notification mail
	PaginationLimit int     `env:"BLOG_PAGINATION_LIMIT" envDefault:"20"`
	Comments        bool    `env:"BLOG_COMMENTS" envDefault:"true"`
	DateField       string  `env:"BLOG_DATE_FIELD" envDefault:"published_at"` // published_at or created_at
	PageParam       string  `env:"BLOG_PAGE_PARAM" envDefault:"page"`         // page or p
	URIBase         string  `env:"BLOG_URI_BASE" envDefault:"blog"`           // blog or archive
	CommentRate     float64 `env:"BLOG_COMMENT_RATE" envDefault:"0.2"`        // comments per second per IP
	CommentBurst    int     `env:"BLOG_COMMENT_BURST" envDefault:"3"`

	// Search index location: <SEARCH_ROOT>/<DB_NAME>/search/<SEARCH_DIR>/<LOCALE>
	SearchRoot     string `env:"BLOG_SEARCH_ROOT" envDefault:"./data"`
	DBName         string `env:"BLOG_DB_NAME" envDefault:"blog"`
	SearchDir      string `env:"BLOG_SEARCH_DIR"` // empty disables search
	Locale         string `env:"BLOG_LOCALE" envDefault:"en"`
	SearchMaxLimit int    `env:"BLOG_SEARCH_MAX_LIMIT" envDefault:"500"`
	SearchWildcard bool   `env:"BLOG_SEARCH_WILDCARD" envDefault:"false"`
	SearchReindex  string `env:"BLOG_SEARCH_REINDEX"` // cron spec, e.g. "@every 1h"

	// Cache configuration
	RedisURL     string `env:"BLOG_REDIS_URL"`                         // Optional Redis URL for distributed caching
	CachePrefix  string `env:"BLOG_CACHE_PREFIX" envDefault:"blog:"`   // Redis key prefix
	CacheTTL     int    `env:"BLOG_CACHE_TTL" envDefault:"300"`        // Site cache TTL in seconds
	CacheMaxSize int    `env:"BLOG_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// Comment notifications
	MailSender          string `env:"BLOG_MAIL_SENDER"`
	SMTPHost            string `env:"BLOG_SMTP_HOST"`
	SMTPPort            int    `env:"BLOG_SMTP_PORT" envDefault:"587"`
	SMTPUser            string `env:"BLOG_SMTP_USER"`
	SMTPPassword        string `env:"BLOG_SMTP_PASSWORD"`
	NotifyWebhookURL    string `env:"BLOG_NOTIFY_WEBHOOK_URL"`
	NotifyWebhookSecret string `env:"BLOG_NOTIFY_WEBHOOK_SECRET"`

	// Event log retention; 0 keeps events forever
	EventRetentionDays int    `env:"BLOG_EVENT_RETENTION_DAYS" envDefault:"30"`
	EventPruneSchedule string `env:"BLOG_EVENT_PRUNE" envDefault:"@daily"`

	// Seeding configuration
	DoSeed bool `env:"BLOG_DO_SEED" envDefault:"false"`
}

// EventRetention returns how long event log entries are kept; 0 keeps them.
func (c Config) EventRetention() time.Duration {
	return time.Duration(c.EventRetentionDays) * 24 * time.Hour
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// CacheTTLDuration returns CacheTTL as a duration.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// SearchEnabled returns true if a search index directory is configured.
func (c Config) SearchEnabled() bool {
	return c.SearchDir != ""
}

// SearchIndexDir returns the locale-specific index directory.
func (c Config) SearchIndexDir() (string, error) {
	return search.IndexDir(c.SearchRoot, c.DBName, c.SearchDir, c.Locale)
}

// MailEnabled returns true if comment notification mail can be sent.
func (c Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.MailSender != ""
}

// PostDateField returns the configured post date column.
func (c Config) PostDateField() model.DateField {
	return model.DateField(c.DateField)
}

// ResolverBase returns the configured URI resolution base.
func (c Config) ResolverBase() blog.Base {
	return blog.Base(c.URIBase)
}

// MinSessionSecretLength is the minimum required length for the session secret.
// AES-256 requires 32 bytes minimum for secure encryption.
const MinSessionSecretLength = 32

// Load parses process environment variables and returns a Config struct.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses the given environment instead of the process environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Warn about low-entropy secrets
	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("BLOG_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.SessionSecret) < MinSessionSecretLength {
		return fmt.Errorf("BLOG_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(c.SessionSecret))
	}
	for _, weak := range knownWeakSecrets {
		if c.SessionSecret == weak {
			return fmt.Errorf("BLOG_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !c.PostDateField().IsValid() {
		return fmt.Errorf("BLOG_DATE_FIELD must be published_at or created_at, got %q", c.DateField)
	}
	if c.PageParam != "page" && c.PageParam != "p" {
		return fmt.Errorf("BLOG_PAGE_PARAM must be page or p, got %q", c.PageParam)
	}
	if !c.ResolverBase().IsValid() {
		return fmt.Errorf("BLOG_URI_BASE must be blog or archive, got %q", c.URIBase)
	}
	if c.PaginationLimit <= 0 {
		return fmt.Errorf("BLOG_PAGINATION_LIMIT must be positive, got %d", c.PaginationLimit)
	}
	if c.SiteID <= 0 {
		return fmt.Errorf("BLOG_SITE_ID must be positive, got %d", c.SiteID)
	}

	c.MountPath = model.NormalizePath(c.MountPath)
	if c.MountPath == "/" {
		return fmt.Errorf("BLOG_MOUNT_PATH must name a path below the site root")
	}
	return nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
