// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mrpdeals/mrpdeals-go/internal/model"
	"github.com/mrpdeals/mrpdeals-go/internal/seo"
	"github.com/mrpdeals/mrpdeals-go/internal/service"
	"github.com/mrpdeals/mrpdeals-go/internal/store"
)

// SEOHandler serves sitemap.xml, robots.txt and security.txt for the
// public site.
type SEOHandler struct {
	deals   *service.DealService
	queries *store.Queries
	baseURL string
	isDev   bool
}

// NewSEOHandler creates a new SEOHandler. baseURL is the canonical site
// URL without a trailing slash.
func NewSEOHandler(deals *service.DealService, queries *store.Queries, baseURL string, isDev bool) *SEOHandler {
	return &SEOHandler{
		deals:   deals,
		queries: queries,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		isDev:   isDev,
	}
}

// Sitemap handles GET /sitemap.xml. Lists the homepage and every
// published deal; gated deals are included since their detail pages are
// public.
func (h *SEOHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	deals, err := h.deals.ListPublished(r.Context(), "")
	if err != nil {
		slog.Error("sitemap generation failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	entries := make([]seo.SitemapDeal, 0, len(deals))
	for _, d := range deals {
		entries = append(entries, seo.SitemapDeal{
			Slug:      d.Slug,
			UpdatedAt: d.UpdatedAt,
		})
	}

	out, err := seo.GenerateSitemap(h.baseURL, entries)
	if err != nil {
		slog.Error("sitemap marshal failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set(HeaderContentType, "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(out)
}

// Robots handles GET /robots.txt. Development instances block all
// crawlers so staging content never leaks into search results.
func (h *SEOHandler) Robots(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set(HeaderContentType, "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write([]byte(seo.GenerateRobots(h.baseURL, h.isDev)))
}

// SecurityTxt handles GET /.well-known/security.txt. Responds 404 until
// a contact email is configured in settings.
func (h *SEOHandler) SecurityTxt(w http.ResponseWriter, r *http.Request) {
	contact, err := h.queries.GetSettingValue(r.Context(), model.SettingContactEmail)
	if err != nil || contact == "" {
		http.NotFound(w, r)
		return
	}

	txt := seo.NewSecurityTxtBuilder(seo.SecurityTxtConfig{
		Contact:   []string{"mailto:" + contact},
		Expires:   time.Now().AddDate(1, 0, 0),
		Canonical: h.baseURL + "/.well-known/security.txt",
	}).Build()

	w.Header().Set(HeaderContentType, "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write([]byte(txt))
}
