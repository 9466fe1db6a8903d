// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mrpdeals/mrpdeals-go/internal/ai"
	"github.com/mrpdeals/mrpdeals-go/internal/middleware"
	"github.com/mrpdeals/mrpdeals-go/internal/model"
	"github.com/mrpdeals/mrpdeals-go/internal/render"
	"github.com/mrpdeals/mrpdeals-go/internal/service"
	"github.com/mrpdeals/mrpdeals-go/internal/store"
)

// dealsPerPage is the admin list page size.
const dealsPerPage = 20

// DealsHandler serves the admin deal management screens.
type DealsHandler struct {
	deals        *service.DealService
	logos        *service.LogoService
	clicks       *service.ClickService
	eventService *service.EventService
	renderer     *render.Renderer
}

// NewDealsHandler creates a new DealsHandler.
func NewDealsHandler(deals *service.DealService, logos *service.LogoService, clicks *service.ClickService, events *service.EventService, renderer *render.Renderer) *DealsHandler {
	return &DealsHandler{
		deals:        deals,
		logos:        logos,
		clicks:       clicks,
		eventService: events,
		renderer:     renderer,
	}
}

// dealListData is the template payload for the admin deal list.
type dealListData struct {
	Deals      []model.Deal
	Search     string
	Category   string
	Status     string
	Categories []string
	Pagination Pagination
}

// List handles GET /admin/deals with search, category and status filters.
func (h *DealsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := pageParam(r)

	params := store.ListDealsParams{
		Search:   strings.TrimSpace(q.Get("q")),
		Category: q.Get("category"),
		Status:   q.Get("status"),
		Limit:    dealsPerPage,
		Offset:   int64((page - 1) * dealsPerPage),
	}
	if !model.ValidDealCategory(params.Category) {
		params.Category = ""
	}
	if !model.ValidDealStatus(params.Status) {
		params.Status = ""
	}

	deals, total, err := h.deals.List(r.Context(), params)
	if err != nil {
		logAndInternalError(w, "failed to list deals", "error", err)
		return
	}

	if err := h.renderer.Render(w, r, "admin/deals_list", render.TemplateData{
		Title: "Deals",
		User:  middleware.GetUser(r),
		Data: dealListData{
			Deals:      deals,
			Search:     params.Search,
			Category:   params.Category,
			Status:     params.Status,
			Categories: model.DealCategories,
			Pagination: BuildPagination(page, total, dealsPerPage, redirectAdminDeals, q),
		},
	}); err != nil {
		logAndInternalError(w, "failed to render deal list", "error", err)
	}
}

// dealFormData is the template payload for the deal create/edit form.
type dealFormData struct {
	Deal        model.Deal
	IsNew       bool
	Categories  []string
	AccessTypes []string
	Errors      map[string]string
	TagsValue   string
	AIEnabled   bool

	// Edit form only.
	RecentClicks []model.DealClick
	TotalClicks  int64
}

// NewForm handles GET /admin/deals/new.
func (h *DealsHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, model.Deal{Status: model.DealStatusDraft, Category: model.CategoryOther, AccessType: model.AccessTypeFree}, true, nil)
}

// EditForm handles GET /admin/deals/{id}.
func (h *DealsHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		flashError(w, r, h.renderer, redirectAdminDeals, "Invalid deal ID")
		return
	}

	deal, err := h.deals.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			flashError(w, r, h.renderer, redirectAdminDeals, "Deal not found")
			return
		}
		logAndInternalError(w, "failed to load deal", "error", err, "deal_id", id)
		return
	}

	h.renderForm(w, r, deal, false, nil)
}

func (h *DealsHandler) renderForm(w http.ResponseWriter, r *http.Request, deal model.Deal, isNew bool, fieldErrors map[string]string) {
	title := "Edit Deal"
	if isNew {
		title = "New Deal"
	}

	var recent []model.DealClick
	var totalClicks int64
	if !isNew {
		var err error
		recent, totalClicks, err = h.clicks.ListForDeal(r.Context(), deal.ID, 10)
		if err != nil {
			// The form is still usable without the click panel.
			slog.Error("failed to load deal clicks", "error", err, "deal_id", deal.ID)
		}
	}

	if err := h.renderer.Render(w, r, "admin/deal_form", render.TemplateData{
		Title: title,
		User:  middleware.GetUser(r),
		Data: dealFormData{
			Deal:         deal,
			IsNew:        isNew,
			Categories:   model.DealCategories,
			AccessTypes:  model.DealAccessTypes,
			Errors:       fieldErrors,
			TagsValue:    strings.Join(deal.TagList(), ", "),
			AIEnabled:    h.deals.AIEnabled(),
			RecentClicks: recent,
			TotalClicks:  totalClicks,
		},
	}); err != nil {
		logAndInternalError(w, "failed to render deal form", "error", err)
	}
}

// dealInputFromForm builds a service.DealInput from the submitted form.
// Tags arrive comma-separated; the expiry date uses the HTML date input
// format.
func dealInputFromForm(r *http.Request) service.DealInput {
	var tags []string
	for _, t := range strings.Split(r.FormValue("tags"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}

	var expiry sql.NullTime
	if v := strings.TrimSpace(r.FormValue("expiry_date")); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			expiry = sql.NullTime{Time: t, Valid: true}
		}
	}

	return service.DealInput{
		Title:          strings.TrimSpace(r.FormValue("title")),
		Description:    r.FormValue("description"),
		Category:       r.FormValue("category"),
		Tags:           tags,
		AccessType:     r.FormValue("access_type"),
		ValueHighlight: strings.TrimSpace(r.FormValue("value_highlight")),
		AffiliateURL:   strings.TrimSpace(r.FormValue("affiliate_url")),
		ExpiryDate:     expiry,
		IsFeatured:     r.FormValue("is_featured") == "on",
		Status:         r.FormValue("status"),
	}
}

// dealFromInput echoes form values back into a Deal for re-rendering a
// form that failed validation.
func dealFromInput(in service.DealInput) model.Deal {
	return model.Deal{
		Title:          in.Title,
		Description:    in.Description,
		Category:       in.Category,
		Tags:           tagsJSON(in.Tags),
		AccessType:     in.AccessType,
		ValueHighlight: in.ValueHighlight,
		AffiliateURL:   in.AffiliateURL,
		ExpiryDate:     in.ExpiryDate,
		IsFeatured:     in.IsFeatured,
		Status:         in.Status,
	}
}

func tagsJSON(tags []string) string {
	if len(tags) == 0 {
		return "[]"
	}
	quoted := make([]string, len(tags))
	for i, t := range tags {
		quoted[i] = fmt.Sprintf("%q", t)
	}
	return "[" + strings.Join(quoted, ",") + "]"
}

// Create handles POST /admin/deals.
func (h *DealsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminDealsNew) {
		return
	}

	in := dealInputFromForm(r)
	deal, err := h.deals.Create(r.Context(), in)
	if err != nil {
		if verr, ok := service.AsValidationError(err); ok {
			h.renderForm(w, r, dealFromInput(in), true, verr.Fields)
			return
		}
		logAndInternalError(w, "failed to create deal", "error", err)
		return
	}

	_ = h.eventService.LogDealEvent(r.Context(), model.EventLevelInfo,
		"Deal created", middleware.GetUserIDPtr(r), map[string]any{"deal_id": deal.ID, "title": deal.Title})

	flashSuccess(w, r, h.renderer, fmt.Sprintf(redirectAdminDealsID, deal.ID), "Deal created")
}

// Update handles POST /admin/deals/{id}.
func (h *DealsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		flashError(w, r, h.renderer, redirectAdminDeals, "Invalid deal ID")
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, fmt.Sprintf(redirectAdminDealsID, id)) {
		return
	}

	in := dealInputFromForm(r)
	deal, err := h.deals.Update(r.Context(), id, in)
	if err != nil {
		if verr, ok := service.AsValidationError(err); ok {
			back := dealFromInput(in)
			back.ID = id
			h.renderForm(w, r, back, false, verr.Fields)
			return
		}
		if errors.Is(err, service.ErrNotFound) {
			flashError(w, r, h.renderer, redirectAdminDeals, "Deal not found")
			return
		}
		logAndInternalError(w, "failed to update deal", "error", err, "deal_id", id)
		return
	}

	_ = h.eventService.LogDealEvent(r.Context(), model.EventLevelInfo,
		"Deal updated", middleware.GetUserIDPtr(r), map[string]any{"deal_id": deal.ID, "title": deal.Title})

	flashSuccess(w, r, h.renderer, fmt.Sprintf(redirectAdminDealsID, deal.ID), "Deal updated")
}

// TogglePublish handles POST /admin/deals/{id}/publish, flipping a
// deal between DRAFT and PUBLISHED.
func (h *DealsHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		flashError(w, r, h.renderer, redirectAdminDeals, "Invalid deal ID")
		return
	}

	deal, err := h.deals.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			flashError(w, r, h.renderer, redirectAdminDeals, "Deal not found")
			return
		}
		logAndInternalError(w, "failed to load deal", "error", err, "deal_id", id)
		return
	}

	newStatus := model.DealStatusPublished
	message := "Deal published"
	if deal.IsPublished() {
		newStatus = model.DealStatusDraft
		message = "Deal moved to drafts"
	}

	if err := h.deals.SetStatus(r.Context(), id, newStatus); err != nil {
		logAndInternalError(w, "failed to update deal status", "error", err, "deal_id", id)
		return
	}

	_ = h.eventService.LogDealEvent(r.Context(), model.EventLevelInfo,
		"Deal status changed", middleware.GetUserIDPtr(r),
		map[string]any{"deal_id": id, "status": newStatus})

	flashSuccess(w, r, h.renderer, redirectAdminDeals, message)
}

// Delete handles DELETE (and POST fallback) /admin/deals/{id}/delete.
func (h *DealsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		flashError(w, r, h.renderer, redirectAdminDeals, "Invalid deal ID")
		return
	}

	if err := h.logos.RemoveLogo(r.Context(), id); err != nil && !errors.Is(err, service.ErrNotFound) {
		logAndInternalError(w, "failed to remove deal logo", "error", err, "deal_id", id)
		return
	}
	if err := h.deals.Delete(r.Context(), id); err != nil {
		logAndInternalError(w, "failed to delete deal", "error", err, "deal_id", id)
		return
	}

	_ = h.eventService.LogDealEvent(r.Context(), model.EventLevelInfo,
		"Deal deleted", middleware.GetUserIDPtr(r), map[string]any{"deal_id": id})

	flashSuccess(w, r, h.renderer, redirectAdminDeals, "Deal deleted")
}

// reorderRequest is the POST /admin/deals/reorder payload, ordered by
// position.
type reorderRequest struct {
	Orders []service.OrderUpdate `json:"orders"`
}

// Reorder handles POST /admin/deals/reorder. The whole batch is
// applied in one transaction; any failure leaves the previous order
// intact.
func (h *DealsHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.deals.ApplyOrder(r.Context(), req.Orders); err != nil {
		if verr, ok := service.AsValidationError(err); ok {
			writeJSONError(w, http.StatusBadRequest, verr.Error())
			return
		}
		logAndInternalError(w, "failed to reorder deals", "error", err)
		return
	}

	_ = h.eventService.LogDealEvent(r.Context(), model.EventLevelInfo,
		"Deals reordered", middleware.GetUserIDPtr(r), map[string]any{"count": len(req.Orders)})

	writeJSONSuccess(w, nil)
}

// UploadLogo handles POST /admin/deals/{id}/logo (multipart).
func (h *DealsHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		flashError(w, r, h.renderer, redirectAdminDeals, "Invalid deal ID")
		return
	}
	back := fmt.Sprintf(redirectAdminDealsID, id)

	if err := r.ParseMultipartForm(service.MaxLogoSize); err != nil {
		flashError(w, r, h.renderer, back, "Upload too large or malformed")
		return
	}

	file, header, err := r.FormFile("logo")
	if err != nil {
		flashError(w, r, h.renderer, back, "No logo file in upload")
		return
	}
	defer func() { _ = file.Close() }()

	if _, err := h.logos.UploadLogo(r.Context(), id, file, header); err != nil {
		if verr, ok := service.AsValidationError(err); ok {
			flashError(w, r, h.renderer, back, verr.Fields["logo"])
			return
		}
		if errors.Is(err, service.ErrNotFound) {
			flashError(w, r, h.renderer, redirectAdminDeals, "Deal not found")
			return
		}
		logAndInternalError(w, "failed to upload logo", "error", err, "deal_id", id)
		return
	}

	flashSuccess(w, r, h.renderer, back, "Logo uploaded")
}

// RemoveLogo handles POST /admin/deals/{id}/logo/delete.
func (h *DealsHandler) RemoveLogo(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		flashError(w, r, h.renderer, redirectAdminDeals, "Invalid deal ID")
		return
	}

	if err := h.logos.RemoveLogo(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			flashError(w, r, h.renderer, redirectAdminDeals, "Deal not found")
			return
		}
		logAndInternalError(w, "failed to remove logo", "error", err, "deal_id", id)
		return
	}

	flashSuccess(w, r, h.renderer, fmt.Sprintf(redirectAdminDealsID, id), "Logo removed")
}

// suggestRequest is the POST /admin/deals/suggest payload.
type suggestRequest struct {
	Title      string `json:"title"`
	Category   string `json:"category"`
	AccessType string `json:"access_type"`
}

// Suggest handles POST /admin/deals/suggest, asking the configured AI
// model for a short description draft.
func (h *DealsHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeJSONError(w, http.StatusBadRequest, "Title is required")
		return
	}

	text, err := h.deals.SuggestDescription(r.Context(), req.Title, req.Category, req.AccessType)
	if err != nil {
		if errors.Is(err, ai.ErrDisabled) {
			writeJSONError(w, http.StatusNotImplemented, "AI drafts are not configured")
			return
		}
		if service.IsRemoteFailure(err) {
			writeJSONError(w, http.StatusBadGateway, "The AI service is unavailable right now")
			return
		}
		logAndInternalError(w, "failed to suggest description", "error", err)
		return
	}

	writeJSONSuccess(w, map[string]any{"description": text})
}
