// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package seo builds the blog sitemap.
package seo

import (
	"encoding/xml"
	"strings"
	"time"
)

// XMLNamespace is the sitemap XML namespace.
const XMLNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// ChangeFreq represents the change frequency of a URL.
type ChangeFreq string

// Change frequencies used by the blog.
const (
	ChangeFreqDaily   ChangeFreq = "daily"
	ChangeFreqWeekly  ChangeFreq = "weekly"
	ChangeFreqMonthly ChangeFreq = "monthly"
)

// SitemapURL represents a single URL entry in the sitemap.
type SitemapURL struct {
	Loc        string     `xml:"loc"`
	LastMod    string     `xml:"lastmod,omitempty"`
	ChangeFreq ChangeFreq `xml:"changefreq,omitempty"`
	Priority   string     `xml:"priority,omitempty"`
}

// Sitemap represents the complete sitemap document.
type Sitemap struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []SitemapURL `xml:"url"`
}

// SitemapBuilder collects blog URLs. Paths added more than once are kept
// at their first position.
type SitemapBuilder struct {
	baseURL string
	urls    []SitemapURL
	seen    map[string]bool
}

// NewSitemapBuilder creates a builder emitting locations below baseURL.
func NewSitemapBuilder(baseURL string) *SitemapBuilder {
	return &SitemapBuilder{
		baseURL: strings.TrimRight(baseURL, "/"),
		seen:    make(map[string]bool),
	}
}

// AddHome adds the blog home at path.
func (b *SitemapBuilder) AddHome(path string, updated time.Time) {
	b.add(path, updated, ChangeFreqDaily, "1.0")
}

// AddPost adds a post page.
func (b *SitemapBuilder) AddPost(path string, updated time.Time) {
	b.add(path, updated, ChangeFreqMonthly, "0.8")
}

// AddTag adds a tag listing.
func (b *SitemapBuilder) AddTag(path string, updated time.Time) {
	b.add(path, updated, ChangeFreqWeekly, "0.5")
}

func (b *SitemapBuilder) add(path string, updated time.Time, freq ChangeFreq, priority string) {
	if path == "" || b.seen[path] {
		return
	}
	b.seen[path] = true
	u := SitemapURL{
		Loc:        b.baseURL + path,
		ChangeFreq: freq,
		Priority:   priority,
	}
	if !updated.IsZero() {
		u.LastMod = updated.UTC().Format(time.RFC3339)
	}
	b.urls = append(b.urls, u)
}

// Len returns the number of collected URLs.
func (b *SitemapBuilder) Len() int {
	return len(b.urls)
}

// Build generates the sitemap XML.
func (b *SitemapBuilder) Build() ([]byte, error) {
	sitemap := Sitemap{
		XMLNS: XMLNamespace,
		URLs:  b.urls,
	}

	output := []byte(xml.Header)
	xmlBytes, err := xml.MarshalIndent(sitemap, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(output, xmlBytes...), nil
}
