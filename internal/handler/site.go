// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mrpdeals/mrpdeals-go/internal/markdown"
	"github.com/mrpdeals/mrpdeals-go/internal/middleware"
	"github.com/mrpdeals/mrpdeals-go/internal/model"
	"github.com/mrpdeals/mrpdeals-go/internal/render"
	"github.com/mrpdeals/mrpdeals-go/internal/seo"
	"github.com/mrpdeals/mrpdeals-go/internal/service"
)

// DealCard is a deal prepared for listing templates. Gated deals render
// without the affiliate URL until the viewer has full access.
type DealCard struct {
	Deal     model.Deal
	Locked   bool
	Expired  bool
	Featured bool
}

// SiteHandler serves the public deal pages.
type SiteHandler struct {
	deals    *service.DealService
	clicks   *service.ClickService
	renderer *render.Renderer
	site     seo.SiteConfig
}

// NewSiteHandler creates a new SiteHandler.
func NewSiteHandler(deals *service.DealService, clicks *service.ClickService, renderer *render.Renderer, site seo.SiteConfig) *SiteHandler {
	return &SiteHandler{
		deals:    deals,
		clicks:   clicks,
		renderer: renderer,
		site:     site,
	}
}

// homeData is the template payload for the public listing.
type homeData struct {
	Cards      []DealCard
	Categories []string
	Category   string
	Search     string
	CanAccess  bool
}

// Home handles GET /. Lists published deals in resolved order with an
// optional category filter and text search.
func (h *SiteHandler) Home(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if !model.ValidDealCategory(category) {
		category = ""
	}
	search := strings.TrimSpace(r.URL.Query().Get("q"))

	deals, err := h.deals.ListPublished(r.Context(), category)
	if err != nil {
		logAndInternalError(w, "failed to list published deals", "error", err)
		return
	}

	user := middleware.GetUser(r)
	canAccess := user != nil && user.CanAccessGated()

	var cards []DealCard
	for _, d := range deals {
		if search != "" && !matchesSearch(d, search) {
			continue
		}
		cards = append(cards, DealCard{
			Deal:     d,
			Locked:   d.IsGated() && !canAccess,
			Expired:  d.IsExpired(),
			Featured: d.IsFeatured,
		})
	}

	if err := h.renderer.Render(w, r, "site/home", render.TemplateData{
		Title:  h.site.SiteName,
		User:   user,
		Meta:   seo.BuildSiteMeta(h.site),
		JSONLD: seo.BuildWebSiteSchema(h.site),
		Data: homeData{
			Cards:      cards,
			Categories: model.DealCategories,
			Category:   category,
			Search:     search,
			CanAccess:  canAccess,
		},
	}); err != nil {
		logAndInternalError(w, "failed to render home page", "error", err)
	}
}

// matchesSearch reports whether a deal matches the query string,
// case-insensitively, across title, description and value highlight.
func matchesSearch(d model.Deal, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(d.Title), q) ||
		strings.Contains(strings.ToLower(d.Description), q) ||
		strings.Contains(strings.ToLower(d.ValueHighlight), q)
}

// dealDetailData is the template payload for the deal detail page.
type dealDetailData struct {
	Card        DealCard
	Description template.HTML
}

// DealDetail handles GET /deals/{slug}.
func (h *SiteHandler) DealDetail(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	deal, err := h.deals.GetBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		logAndInternalError(w, "failed to load deal", "error", err, "slug", slug)
		return
	}
	if !deal.IsPublished() {
		http.NotFound(w, r)
		return
	}

	user := middleware.GetUser(r)
	canAccess := user != nil && user.CanAccessGated()

	metaDeal := seo.DealData{
		Title:          deal.Title,
		Description:    deal.Description,
		Slug:           deal.Slug,
		Category:       deal.Category,
		ValueHighlight: deal.ValueHighlight,
		LogoURL:        deal.LogoURL.String,
		Expired:        deal.IsExpired(),
	}

	if err := h.renderer.Render(w, r, "site/deal", render.TemplateData{
		Title:  deal.Title,
		User:   user,
		Meta:   seo.BuildDealMeta(metaDeal, h.site),
		JSONLD: seo.BuildOfferSchema(metaDeal, h.site),
		Data: dealDetailData{
			Card: DealCard{
				Deal:     deal,
				Locked:   deal.IsGated() && !canAccess,
				Expired:  deal.IsExpired(),
				Featured: deal.IsFeatured,
			},
			Description: markdown.RenderOrEscape(deal.Description),
		},
	}); err != nil {
		logAndInternalError(w, "failed to render deal page", "error", err)
	}
}

// DealGo handles GET /deals/{slug}/go. Records the click-through and
// redirects to the affiliate URL. Viewers without access to a gated
// deal are sent to the unlock page instead.
func (h *SiteHandler) DealGo(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	deal, err := h.deals.GetBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		logAndInternalError(w, "failed to load deal", "error", err, "slug", slug)
		return
	}
	if !deal.IsPublished() {
		http.NotFound(w, r)
		return
	}

	user := middleware.GetUser(r)
	if deal.IsGated() && (user == nil || !user.CanAccessGated()) {
		http.Redirect(w, r, redirectUnlock, http.StatusSeeOther)
		return
	}

	if err := h.clicks.Record(r.Context(), deal.ID, middleware.GetUserIDPtr(r), remoteIP(r), r.UserAgent()); err != nil {
		// Analytics failures must not break the redirect.
		slog.Error("failed to record deal click", "error", err, "deal_id", deal.ID)
	}

	http.Redirect(w, r, deal.AffiliateURL, http.StatusFound)
}

// UnlockPage handles GET /unlock. The form posts to the JSON unlock
// endpoint via fetch; anonymous visitors are sent to login first.
func (h *SiteHandler) UnlockPage(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		http.Redirect(w, r, redirectLogin, http.StatusSeeOther)
		return
	}
	if user.CanAccessGated() {
		flashAndRedirect(w, r, h.renderer, RouteRoot, "You already have full access", "info")
		return
	}

	if err := h.renderer.Render(w, r, "site/unlock", render.TemplateData{
		Title: "Unlock Full Access",
		User:  user,
	}); err != nil {
		logAndInternalError(w, "failed to render unlock page", "error", err)
	}
}

// remoteIP extracts the client IP from RemoteAddr, which the RealIP
// middleware has already rewritten when behind a proxy.
func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
