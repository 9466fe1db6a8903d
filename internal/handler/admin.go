// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"net/http"

	"github.com/mrpdeals/mrpdeals-go/internal/middleware"
	"github.com/mrpdeals/mrpdeals-go/internal/model"
	"github.com/mrpdeals/mrpdeals-go/internal/render"
	"github.com/mrpdeals/mrpdeals-go/internal/store"
)

// AdminHandler serves the admin dashboard.
type AdminHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(db *sql.DB, renderer *render.Renderer) *AdminHandler {
	return &AdminHandler{
		queries:  store.New(db),
		renderer: renderer,
	}
}

// dashboardData is the template payload for the admin dashboard.
type dashboardData struct {
	PublishedCount int64
	DraftCount     int64
	TotalClicks    int64
	UserCount      int64
	RecentEvents   []model.Event
}

// Dashboard handles GET /admin.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	published, err := h.queries.CountDealsByStatus(ctx, model.DealStatusPublished)
	if err != nil {
		logAndInternalError(w, "failed to count published deals", "error", err)
		return
	}
	drafts, err := h.queries.CountDealsByStatus(ctx, model.DealStatusDraft)
	if err != nil {
		logAndInternalError(w, "failed to count draft deals", "error", err)
		return
	}
	clicks, err := h.queries.SumDealClicks(ctx)
	if err != nil {
		logAndInternalError(w, "failed to sum deal clicks", "error", err)
		return
	}
	users, err := h.queries.CountUsers(ctx)
	if err != nil {
		logAndInternalError(w, "failed to count users", "error", err)
		return
	}
	events, err := h.queries.ListEvents(ctx, store.ListEventsParams{Limit: 10})
	if err != nil {
		logAndInternalError(w, "failed to list recent events", "error", err)
		return
	}

	if err := h.renderer.Render(w, r, "admin/dashboard", render.TemplateData{
		Title: "Dashboard",
		User:  middleware.GetUser(r),
		Data: dashboardData{
			PublishedCount: published,
			DraftCount:     drafts,
			TotalClicks:    clicks,
			UserCount:      users,
			RecentEvents:   events,
		},
	}); err != nil {
		logAndInternalError(w, "failed to render dashboard", "error", err)
	}
}
