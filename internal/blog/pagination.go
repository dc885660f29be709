// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package blog

import (
	"fmt"
	"strconv"
	"strings"
)

// PagePlaceholder is replaced by the page number in a link template.
const PagePlaceholder = "{page}"

// pageWindow is the number of page links shown around the current page.
const pageWindow = 5

// PageInfo is the pagination state of one listing request.
type PageInfo struct {
	Page         int
	PerPage      int
	Total        int64
	LinkTemplate string
}

// PageLink is one entry of a rendered pagination control.
type PageLink struct {
	Number     int
	URL        string
	IsCurrent  bool
	IsEllipsis bool
}

// NewPageInfo normalizes page and perPage (both at least 1).
func NewPageInfo(page, perPage int, total int64, linkTemplate string) PageInfo {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 1
	}
	if total < 0 {
		total = 0
	}
	return PageInfo{Page: page, PerPage: perPage, Total: total, LinkTemplate: linkTemplate}
}

// Offset returns the number of rows skipped before the current page.
func (p PageInfo) Offset() int {
	if p.Page < 1 || p.PerPage < 1 {
		return 0
	}
	return (p.Page - 1) * p.PerPage
}

// Pages returns the number of pages, at least 1.
func (p PageInfo) Pages() int {
	if p.PerPage < 1 || p.Total <= 0 {
		return 1
	}
	return int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

// URL returns the link to page n.
func (p PageInfo) URL(n int) string {
	return strings.ReplaceAll(p.LinkTemplate, PagePlaceholder, strconv.Itoa(n))
}

// HasPrev reports whether a previous page exists.
func (p PageInfo) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a next page exists.
func (p PageInfo) HasNext() bool { return p.Page < p.Pages() }

// PrevURL returns the link to the previous page.
func (p PageInfo) PrevURL() string { return p.URL(p.Page - 1) }

// NextURL returns the link to the next page.
func (p PageInfo) NextURL() string { return p.URL(p.Page + 1) }

// ShouldShow reports whether a page control is worth rendering.
func (p PageInfo) ShouldShow() bool { return p.Pages() > 1 }

// DisplayMessage describes the visible slice, e.g. "Displaying 21 - 40 of 45".
func (p PageInfo) DisplayMessage() string {
	offset := int64(p.Offset())
	if offset >= p.Total {
		return fmt.Sprintf("Displaying 0 - 0 of %d", p.Total)
	}
	start := offset + 1
	end := min(offset+int64(p.PerPage), p.Total)
	return fmt.Sprintf("Displaying %d - %d of %d", start, end, p.Total)
}

// Links returns up to five page links centered on the current page, plus
// the first and last pages separated by ellipses when they fall outside.
func (p PageInfo) Links() []PageLink {
	total := p.Pages()
	current := p.Page

	start := current - pageWindow/2
	end := current + pageWindow/2
	if start < 1 {
		start = 1
		end = pageWindow
	}
	if end > total {
		end = total
		start = max(end-pageWindow+1, 1)
	}

	var links []PageLink
	if start > 1 {
		links = append(links, PageLink{Number: 1, URL: p.URL(1)})
		if start > 2 {
			links = append(links, PageLink{IsEllipsis: true})
		}
	}
	for i := start; i <= end; i++ {
		links = append(links, PageLink{Number: i, URL: p.URL(i), IsCurrent: i == current})
	}
	if end < total {
		if end < total-1 {
			links = append(links, PageLink{IsEllipsis: true})
		}
		links = append(links, PageLink{Number: total, URL: p.URL(total)})
	}
	return links
}

// LinkTemplate builds a link template for base by adding the page
// parameter to its query string.
func LinkTemplate(base, param string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + param + "=" + PagePlaceholder
}
