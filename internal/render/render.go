// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render executes the embedded page templates inside the base
// layout and renders post markdown.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/olegiv/ocms-blog/internal/session"
)

// Page template names.
const (
	PageBlog     = "blog"
	PagePost     = "blog-post"
	PageTag      = "blog-tag"
	PageArchive  = "blog-archive"
	PageSearch   = "blog-search"
	PageKey      = "blog-key"
	PageUser     = "blog-user"
	PageContent  = "page"
	PageNotFound = "404"
	PageError    = "500"
)

// Renderer holds one parsed template set per page.
type Renderer struct {
	templates map[string]*template.Template
	sessions  *session.Store
	siteTitle string
	mountPath string
	now       func() time.Time
}

// Config holds renderer configuration.
type Config struct {
	TemplatesFS fs.FS
	// Sessions supplies flash notices; nil disables them.
	Sessions  *session.Store
	SiteTitle string
	MountPath string
}

// New parses every page under pages/ together with the base layout and
// the partials.
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template),
		sessions:  cfg.Sessions,
		siteTitle: cfg.SiteTitle,
		mountPath: cfg.MountPath,
		now:       time.Now,
	}
	if err := r.parseTemplates(cfg.TemplatesFS); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Renderer) parseTemplates(templatesFS fs.FS) error {
	partials, err := fs.Glob(templatesFS, "partials/*.html")
	if err != nil {
		return fmt.Errorf("listing partials: %w", err)
	}
	pages, err := fs.Glob(templatesFS, "pages/*.html")
	if err != nil {
		return fmt.Errorf("listing pages: %w", err)
	}
	if len(pages) == 0 {
		return fmt.Errorf("no page templates found")
	}

	for _, page := range pages {
		name := strings.TrimSuffix(path.Base(page), ".html")
		files := append([]string{"layouts/base.html"}, partials...)
		files = append(files, page)

		tmpl, err := template.New("").Funcs(templateFuncs()).ParseFS(templatesFS, files...)
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", name, err)
		}
		r.templates[name] = tmpl
	}
	return nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t time.Time) string {
			return t.Format("Jan 2, 2006")
		},
		"formatDateTime": func(t time.Time) string {
			return t.Format("Jan 2, 2006 3:04 PM")
		},
		"markdown": Markdown,
		"truncate": func(s string, length int) string {
			r := []rune(s)
			if len(r) <= length {
				return s
			}
			return string(r[:length]) + "..."
		},
	}
}

// Has reports whether a page template exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

// Pick returns name when such a page exists, otherwise fallback. URI
// template identifiers come from the database and may name pages this
// build does not ship.
func (r *Renderer) Pick(name, fallback string) string {
	if name != "" && r.Has(name) {
		return name
	}
	return fallback
}

// TemplateData holds data passed to templates.
type TemplateData struct {
	Title       string
	SiteTitle   string
	MountPath   string
	Data        any
	Flash       session.Flash
	HasFlash    bool
	CurrentYear int
}

// Render executes page name with status. Output is buffered so a template
// error never produces a half-written page.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, status int, name string, data TemplateData) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}

	data.SiteTitle = r.siteTitle
	data.MountPath = r.mountPath
	data.CurrentYear = r.now().Year()
	if r.sessions != nil {
		data.Flash, data.HasFlash = r.sessions.PopFlash(req.Context())
	}

	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, "base", data); err != nil {
		return fmt.Errorf("executing template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
