// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
})

func TestTimeoutNormalRequest(t *testing.T) {
	rr := httptest.NewRecorder()
	Timeout(5*time.Second)(okHandler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Errorf("got %d %q", rr.Code, rr.Body.String())
	}
}

func TestTimeoutSlowRequest(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(5 * time.Second):
			w.WriteHeader(http.StatusOK)
		case <-r.Context().Done():
		}
	})

	rr := httptest.NewRecorder()
	Timeout(50*time.Millisecond)(slow).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}

func TestTimeoutWriterDiscardsAfterTimeout(t *testing.T) {
	rr := httptest.NewRecorder()
	tw := &timeoutWriter{ResponseWriter: rr, timedOut: true}

	if _, err := tw.Write([]byte("late")); err != http.ErrHandlerTimeout {
		t.Errorf("Write error = %v, want ErrHandlerTimeout", err)
	}
	if rr.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rr.Body.String())
	}
}

func TestRateLimitPerIP(t *testing.T) {
	h := RateLimit(RateLimitConfig{RPS: 0.001, Burst: 2})(okHandler)

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/comment", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	for i := range 2 {
		if code := send("192.0.2.1:1234"); code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, code)
		}
	}
	if code := send("192.0.2.1:5678"); code != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", code)
	}
	if code := send("192.0.2.2:1234"); code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", code)
	}
}

func TestLimiterCacheBounded(t *testing.T) {
	lc := newLimiterCache[int](1, 1)
	for i := range maxTrackedClients + 5 {
		lc.get(i)
	}
	if n := lc.size(); n > maxTrackedClients {
		t.Errorf("size = %d, want <= %d", n, maxTrackedClients)
	}
}

func TestSecurityHeaders(t *testing.T) {
	tests := []struct {
		isDev    bool
		wantHSTS bool
	}{
		{isDev: true, wantHSTS: false},
		{isDev: false, wantHSTS: true},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		SecurityHeaders(tt.isDev)(okHandler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		if rr.Header().Get("Content-Security-Policy") == "" {
			t.Error("missing CSP")
		}
		if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Error("missing nosniff")
		}
		if got := rr.Header().Get("Strict-Transport-Security") != ""; got != tt.wantHSTS {
			t.Errorf("isDev=%v: HSTS present = %v", tt.isDev, got)
		}
	}
}

func TestStripTrailingSlash(t *testing.T) {
	tests := []struct {
		method   string
		path     string
		wantCode int
		wantLoc  string
	}{
		{http.MethodGet, "/", http.StatusOK, ""},
		{http.MethodGet, "/blog", http.StatusOK, ""},
		{http.MethodGet, "/blog/2024/", http.StatusMovedPermanently, "/blog/2024"},
		{http.MethodHead, "/blog/2024/", http.StatusMovedPermanently, "/blog/2024"},
		{http.MethodGet, "/blog/?page=2", http.StatusMovedPermanently, "/blog?page=2"},
		{http.MethodGet, "//evil.example/", http.StatusMovedPermanently, "/evil.example"},
		{http.MethodPost, "/blog/comment/", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			StripTrailingSlash(okHandler).ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))
			if rr.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantCode)
			}
			if loc := rr.Header().Get("Location"); loc != tt.wantLoc {
				t.Errorf("Location = %q, want %q", loc, tt.wantLoc)
			}
		})
	}
}

func TestCSRF(t *testing.T) {
	key := []byte("12345678901234567890123456789012")
	h := CSRF(DefaultCSRFConfig(key, false, ""))(okHandler)

	tests := []struct {
		name      string
		method    string
		fetchSite string
		want      int
	}{
		{"same origin post", http.MethodPost, "same-origin", http.StatusOK},
		{"cross site post", http.MethodPost, "cross-site", http.StatusForbidden},
		{"cross site get", http.MethodGet, "cross-site", http.StatusOK},
		{"non-browser post", http.MethodPost, "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/comment", nil)
			if tt.fetchSite != "" {
				req.Header.Set("Sec-Fetch-Site", tt.fetchSite)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestDefaultCSRFConfig(t *testing.T) {
	key := []byte("12345678901234567890123456789012")
	if cfg := DefaultCSRFConfig(key, true, "localhost:8080"); len(cfg.TrustedOrigins) != 1 || cfg.TrustedOrigins[0] != "localhost:8080" {
		t.Errorf("dev TrustedOrigins = %v", cfg.TrustedOrigins)
	}
	if cfg := DefaultCSRFConfig(key, false, "localhost:8080"); len(cfg.TrustedOrigins) != 0 {
		t.Errorf("production TrustedOrigins = %v", cfg.TrustedOrigins)
	}
}
