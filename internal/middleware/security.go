// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// hstsMaxAge is one year.
const hstsMaxAge = 31536000

// blogCSP allows only same-origin resources. Post bodies are sanitized
// server side and never need inline script.
var blogCSP = strings.Join([]string{
	"default-src 'self'",
	"img-src 'self' data: https:",
	"style-src 'self' 'unsafe-inline'",
	"object-src 'none'",
	"base-uri 'self'",
	"form-action 'self'",
	"frame-ancestors 'self'",
}, "; ")

// SecurityHeaders sets the response security headers. HSTS is sent only
// outside development.
func SecurityHeaders(isDev bool) func(http.Handler) http.Handler {
	hsts := "max-age=" + strconv.Itoa(hstsMaxAge) + "; includeSubDomains"
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Content-Security-Policy", blogCSP)
			if !isDev {
				h.Set("Strict-Transport-Security", hsts)
			}
			h.Set("X-Frame-Options", "SAMEORIGIN")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "camera=(), geolocation=(), microphone=(), interest-cohort=()")
			next.ServeHTTP(w, r)
		})
	}
}
