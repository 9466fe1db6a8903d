// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"net/http"
	"time"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	db        *sql.DB
	startTime time.Time
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{
		db:        db,
		startTime: time.Now(),
	}
}

// StartTime returns when the handler (and thus the process) started.
func (h *HealthHandler) StartTime() time.Time {
	return h.startTime
}

// Health handles GET /health. Reports overall status and uptime; the
// database check downgrades status to "degraded" rather than failing
// the whole probe.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "ok"

	if err := h.db.PingContext(r.Context()); err != nil {
		status = "degraded"
		dbStatus = "unreachable"
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set(HeaderContentType, "application/json")
	w.WriteHeader(code)
	writeJSONBody(w, map[string]any{
		"status":         status,
		"database":       dbStatus,
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
	})
}

// Liveness handles GET /health/live. Always succeeds while the process
// can serve requests.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set(HeaderContentType, "application/json")
	writeJSONBody(w, map[string]any{"status": "ok"})
}

// Readiness handles GET /health/ready. Fails when the database is
// unreachable so load balancers can drain the instance.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		w.Header().Set(HeaderContentType, "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSONBody(w, map[string]any{"status": "unavailable"})
		return
	}
	w.Header().Set(HeaderContentType, "application/json")
	writeJSONBody(w, map[string]any{"status": "ok"})
}
