// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"strings"
)

// StripTrailingSlash permanently redirects "/blog/2024/" to "/blog/2024",
// keeping the query string. The root path is left alone, and so are
// methods other than GET and HEAD: a redirected POST comes back as GET.
func StripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		safe := r.Method == http.MethodGet || r.Method == http.MethodHead
		if !safe || p == "/" || !strings.HasSuffix(p, "/") {
			next.ServeHTTP(w, r)
			return
		}
		// "//host/" must not become a protocol-relative redirect.
		target := "/" + strings.Trim(p, "/")
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, target, http.StatusMovedPermanently)
	})
}
