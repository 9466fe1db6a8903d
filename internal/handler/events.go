// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/mrpdeals/mrpdeals-go/internal/middleware"
	"github.com/mrpdeals/mrpdeals-go/internal/model"
	"github.com/mrpdeals/mrpdeals-go/internal/render"
	"github.com/mrpdeals/mrpdeals-go/internal/service"
	"github.com/mrpdeals/mrpdeals-go/internal/store"
)

// eventsPerPage is the event log page size.
const eventsPerPage = 50

// EventsHandler serves the admin event log viewer.
type EventsHandler struct {
	events   *service.EventService
	renderer *render.Renderer
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(events *service.EventService, renderer *render.Renderer) *EventsHandler {
	return &EventsHandler{
		events:   events,
		renderer: renderer,
	}
}

// eventListData is the template payload for the event log.
type eventListData struct {
	Events     []model.Event
	Level      string
	Category   string
	Levels     []string
	Categories []string
	Pagination Pagination
}

// List handles GET /admin/events with level and category filters.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := pageParam(r)

	params := store.ListEventsParams{
		Level:    q.Get("level"),
		Category: q.Get("category"),
		Limit:    eventsPerPage,
		Offset:   int64((page - 1) * eventsPerPage),
	}

	events, total, err := h.events.List(r.Context(), params)
	if err != nil {
		logAndInternalError(w, "failed to list events", "error", err)
		return
	}

	if err := h.renderer.Render(w, r, "admin/events", render.TemplateData{
		Title: "Event Log",
		User:  middleware.GetUser(r),
		Data: eventListData{
			Events:   events,
			Level:    params.Level,
			Category: params.Category,
			Levels: []string{
				model.EventLevelInfo, model.EventLevelWarning, model.EventLevelError,
			},
			Categories: []string{
				model.EventCategoryAuth, model.EventCategoryDeal, model.EventCategoryUser,
				model.EventCategoryAccess, model.EventCategoryConfig, model.EventCategorySystem,
			},
			Pagination: BuildPagination(page, total, eventsPerPage, redirectAdmin+RouteEvents, q),
		},
	}); err != nil {
		logAndInternalError(w, "failed to render event log", "error", err)
	}
}
