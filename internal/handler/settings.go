// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/mrpdeals/mrpdeals-go/internal/middleware"
	"github.com/mrpdeals/mrpdeals-go/internal/model"
	"github.com/mrpdeals/mrpdeals-go/internal/render"
	"github.com/mrpdeals/mrpdeals-go/internal/service"
	"github.com/mrpdeals/mrpdeals-go/internal/store"
)

// SettingsHandler serves the admin settings screen. The access code is
// write-only: the form never shows the stored value, only whether one
// is configured.
type SettingsHandler struct {
	queries      *store.Queries
	access       *service.AccessService
	eventService *service.EventService
	renderer     *render.Renderer
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(db *sql.DB, access *service.AccessService, events *service.EventService, renderer *render.Renderer) *SettingsHandler {
	return &SettingsHandler{
		queries:      store.New(db),
		access:       access,
		eventService: events,
		renderer:     renderer,
	}
}

// settingsData is the template payload for the settings form.
type settingsData struct {
	SiteName             string
	SiteTagline          string
	ContactEmail         string
	AccessCodeConfigured bool
}

// editableSettings lists the plain settings rows the form manages.
// The access code is handled separately through AccessService.
var editableSettings = map[string]string{
	"site_name":     model.SettingSiteName,
	"site_tagline":  model.SettingSiteTagline,
	"contact_email": model.SettingContactEmail,
}

// Form handles GET /admin/settings.
func (h *SettingsHandler) Form(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	configured, err := h.access.AccessCodeConfigured(ctx)
	if err != nil {
		logAndInternalError(w, "failed to check access code", "error", err)
		return
	}

	data := settingsData{AccessCodeConfigured: configured}
	if v, err := h.queries.GetSettingValue(ctx, model.SettingSiteName); err == nil {
		data.SiteName = v
	}
	if v, err := h.queries.GetSettingValue(ctx, model.SettingSiteTagline); err == nil {
		data.SiteTagline = v
	}
	if v, err := h.queries.GetSettingValue(ctx, model.SettingContactEmail); err == nil {
		data.ContactEmail = v
	}

	if err := h.renderer.Render(w, r, "admin/settings", render.TemplateData{
		Title: "Settings",
		User:  middleware.GetUser(r),
		Data:  data,
	}); err != nil {
		logAndInternalError(w, "failed to render settings", "error", err)
	}
}

// Save handles POST /admin/settings.
func (h *SettingsHandler) Save(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminSettings) {
		return
	}
	ctx := r.Context()

	for field, key := range editableSettings {
		if !r.Form.Has(field) {
			continue
		}
		if err := h.queries.UpsertSetting(ctx, store.UpsertSettingParams{
			Key:       key,
			Value:     strings.TrimSpace(r.FormValue(field)),
			UpdatedAt: time.Now(),
		}); err != nil {
			logAndInternalError(w, "failed to save setting", "error", err, "key", key)
			return
		}
	}

	// An empty access code field means "leave unchanged".
	if code := strings.TrimSpace(r.FormValue("access_code")); code != "" {
		if err := h.access.SetAccessCode(ctx, code); err != nil {
			logAndInternalError(w, "failed to save access code", "error", err)
			return
		}
		_ = h.eventService.LogConfigEvent(ctx, model.EventLevelInfo,
			"Access code rotated", middleware.GetUserIDPtr(r), nil)
	}

	_ = h.eventService.LogConfigEvent(ctx, model.EventLevelInfo,
		"Settings updated", middleware.GetUserIDPtr(r), nil)

	flashSuccess(w, r, h.renderer, redirectAdminSettings, "Settings saved")
}
