// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"errors"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"syscall"
	"time"

	"github.com/olegiv/ocms-blog/internal/search"
	"github.com/olegiv/ocms-blog/internal/session"
	"github.com/olegiv/ocms-blog/internal/version"
)

// Health check statuses.
const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// IndexPinger checks the search index.
type IndexPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	db        *sql.DB
	index     IndexPinger
	sessions  *session.Store
	dataDir   string
	startTime time.Time
}

// NewHealthHandler creates a new health handler. dataDir holds the database
// and the search index; its free space is reported. index may be nil.
func NewHealthHandler(db *sql.DB, index IndexPinger, sessions *session.Store, dataDir string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		index:     index,
		sessions:  sessions,
		dataDir:   dataDir,
		startTime: time.Now(),
	}
}

// HealthStatusPublic is the minimal health response for anonymous callers.
type HealthStatusPublic struct {
	Status string `json:"status"`
}

// HealthStatus is the detailed response shown to managers.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   version.Info     `json:"version"`
	Checks    map[string]Check `json:"checks"`
	System    *SystemInfo      `json:"system,omitempty"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// SystemInfo contains system-level information.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutines"`
	NumCPU       int    `json:"num_cpus"`
	MemAlloc     string `json:"mem_alloc"`
	MemSys       string `json:"mem_sys"`
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	dbCheck := h.checkDatabase(r)
	checks := map[string]Check{
		"database": dbCheck,
		"disk":     h.checkDiskSpace(),
		"search":   h.checkSearch(r),
	}

	overall := statusHealthy
	for _, c := range checks {
		if c.Status != statusHealthy {
			overall = statusDegraded
		}
	}
	// Only an unhealthy database fails the check.
	code := http.StatusOK
	if dbCheck.Status == statusUnhealthy {
		code = http.StatusServiceUnavailable
	}

	if !h.isManager(r) {
		writeJSON(w, code, HealthStatusPublic{Status: overall})
		return
	}

	status := HealthStatus{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   version.Current(),
		Checks:    checks,
	}
	if r.URL.Query().Get("verbose") == "true" {
		status.System = systemInfo()
	}
	writeJSON(w, code, status)
}

// Liveness handles GET /health/live.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Readiness handles GET /health/ready.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if check := h.checkDatabase(r); check.Status != statusHealthy {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// isManager reports whether the caller has a manager session. Session data
// may not be loaded for this route, in which case scs panics.
func (h *HealthHandler) isManager(r *http.Request) (ok bool) {
	if h.sessions == nil {
		return false
	}
	defer func() {
		if rec := recover(); rec != nil {
			ok = false
		}
	}()
	st := h.sessions.Read(r.Context())
	return st.Manager
}

func (h *HealthHandler) checkDatabase(r *http.Request) Check {
	start := time.Now()
	err := h.db.PingContext(r.Context())
	latency := time.Since(start)
	if err != nil {
		return Check{Status: statusUnhealthy, Message: err.Error(), Latency: latency.String()}
	}
	return Check{Status: statusHealthy, Message: "Connected", Latency: latency.String()}
}

func (h *HealthHandler) checkSearch(r *http.Request) Check {
	if h.index == nil {
		return Check{Status: statusHealthy, Message: "Disabled"}
	}
	start := time.Now()
	err := h.index.Ping(r.Context())
	latency := time.Since(start).String()
	switch {
	case err == nil:
		return Check{Status: statusHealthy, Message: "Index available", Latency: latency}
	case errors.Is(err, search.ErrSearchDisabled):
		return Check{Status: statusHealthy, Message: "Disabled"}
	case errors.Is(err, search.ErrIndexNotFound):
		return Check{Status: statusDegraded, Message: "Index not built", Latency: latency}
	default:
		return Check{Status: statusUnhealthy, Message: err.Error(), Latency: latency}
	}
}

// checkDiskSpace reports free space in the data directory.
func (h *HealthHandler) checkDiskSpace() Check {
	if _, err := os.Stat(h.dataDir); os.IsNotExist(err) {
		return Check{Status: statusHealthy, Message: "Data directory does not exist yet"}
	}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(h.dataDir, &stat); err != nil {
		return Check{Status: statusUnhealthy, Message: "Failed to check disk space: " + err.Error()}
	}
	availableBytes := stat.Bavail * uint64(stat.Bsize)
	available := formatBytes(availableBytes)

	const minSpace = 100 * 1024 * 1024
	if availableBytes < minSpace {
		return Check{Status: statusDegraded, Message: "Low disk space: " + available + " available"}
	}
	return Check{Status: statusHealthy, Message: available + " available"}
}

func systemInfo() *SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return &SystemInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     formatBytes(m.Alloc),
		MemSys:       formatBytes(m.Sys),
	}
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
