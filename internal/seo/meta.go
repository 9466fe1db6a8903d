// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package seo builds meta tags, structured data, sitemaps, robots.txt
// and security.txt for the public deal pages.
package seo

import (
	"encoding/json"
	"html/template"
	"strings"
)

// Meta holds all SEO meta tag data for a page.
type Meta struct {
	Title         string // Page title (for <title> tag)
	Description   string // Meta description
	Canonical     string // Canonical URL
	OGTitle       string // Open Graph title
	OGDescription string // Open Graph description
	OGImage       string // Open Graph image URL (absolute)
	OGType        string // Open Graph type (website, product)
	OGSiteName    string // Open Graph site name
	OGURL         string // Open Graph URL
	Robots        string // Robots directive (index,follow / noindex,follow)
}

// DealData contains deal information for building meta tags.
type DealData struct {
	Title          string
	Description    string
	Slug           string
	Category       string
	ValueHighlight string
	LogoURL        string
	Expired        bool
}

// SiteConfig contains site-wide settings for SEO.
type SiteConfig struct {
	SiteName string
	SiteURL  string
	Tagline  string
}

const metaDescriptionLen = 160

// BuildSiteMeta creates meta tags for the public listing page.
func BuildSiteMeta(site SiteConfig) *Meta {
	return &Meta{
		Title:         site.SiteName,
		Description:   site.Tagline,
		Canonical:     site.SiteURL,
		OGTitle:       site.SiteName,
		OGDescription: site.Tagline,
		OGType:        "website",
		OGSiteName:    site.SiteName,
		OGURL:         site.SiteURL,
		Robots:        "index,follow",
	}
}

// BuildDealMeta creates a Meta struct for a deal detail page with proper
// fallbacks. Expired deals stay crawlable but are kept out of the index.
func BuildDealMeta(deal DealData, site SiteConfig) *Meta {
	description := truncateText(stripHTML(deal.Description), metaDescriptionLen)
	if description == "" {
		description = deal.ValueHighlight
	}

	canonical := site.SiteURL + "/deals/" + deal.Slug

	meta := &Meta{
		Title:         deal.Title + " - " + site.SiteName,
		Description:   description,
		Canonical:     canonical,
		OGTitle:       deal.Title,
		OGDescription: description,
		OGImage:       makeAbsoluteURL(deal.LogoURL, site.SiteURL),
		OGType:        "product",
		OGSiteName:    site.SiteName,
		OGURL:         canonical,
		Robots:        "index,follow",
	}
	if deal.Expired {
		meta.Robots = "noindex,follow"
	}

	return meta
}

// OfferSchema represents JSON-LD Offer structured data for a deal.
type OfferSchema struct {
	Context     string     `json:"@context"`
	Type        string     `json:"@type"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Image       string     `json:"image,omitempty"`
	URL         string     `json:"url"`
	Category    string     `json:"category,omitempty"`
	Seller      *OrgSchema `json:"offeredBy,omitempty"`
}

// OrgSchema represents JSON-LD Organization structured data.
type OrgSchema struct {
	Type string `json:"@type"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// WebSiteSchema represents JSON-LD WebSite structured data for the homepage.
type WebSiteSchema struct {
	Context     string `json:"@context"`
	Type        string `json:"@type"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// BuildOfferSchema creates JSON-LD Offer structured data for a deal page.
func BuildOfferSchema(deal DealData, site SiteConfig) template.JS {
	offer := OfferSchema{
		Context:     "https://schema.org",
		Type:        "Offer",
		Name:        deal.Title,
		Description: truncateText(stripHTML(deal.Description), metaDescriptionLen),
		Image:       makeAbsoluteURL(deal.LogoURL, site.SiteURL),
		URL:         site.SiteURL + "/deals/" + deal.Slug,
		Category:    deal.Category,
		Seller: &OrgSchema{
			Type: "Organization",
			Name: site.SiteName,
			URL:  site.SiteURL,
		},
	}

	return marshalJSONLD(offer)
}

// BuildWebSiteSchema creates JSON-LD WebSite structured data for the homepage.
func BuildWebSiteSchema(site SiteConfig) template.JS {
	return marshalJSONLD(WebSiteSchema{
		Context:     "https://schema.org",
		Type:        "WebSite",
		Name:        site.SiteName,
		URL:         site.SiteURL,
		Description: site.Tagline,
	})
}

// marshalJSONLD marshals structured data to JSON-LD script tag content.
func marshalJSONLD(v any) template.JS {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return template.JS(data)
}

// Helper functions

// stripHTML removes HTML tags from a string.
func stripHTML(html string) string {
	var result strings.Builder
	inTag := false
	for _, r := range html {
		if r == '<' {
			inTag = true
			continue
		}
		if r == '>' {
			inTag = false
			result.WriteRune(' ') // Replace tags with space
			continue
		}
		if !inTag {
			result.WriteRune(r)
		}
	}
	// Collapse whitespace
	return strings.Join(strings.Fields(result.String()), " ")
}

// truncateText truncates text to maxLen characters at word boundary.
func truncateText(text string, maxLen int) string {
	text = strings.TrimSpace(text)
	if len(text) <= maxLen {
		return text
	}

	truncated := text[:maxLen]
	lastSpace := strings.LastIndex(truncated, " ")
	if lastSpace > maxLen/2 {
		truncated = truncated[:lastSpace]
	}

	return strings.TrimSpace(truncated) + "..."
}

// makeAbsoluteURL ensures a URL is absolute by prepending site URL if needed.
func makeAbsoluteURL(url, siteURL string) string {
	if url == "" {
		return ""
	}
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	siteURL = strings.TrimSuffix(siteURL, "/")
	if !strings.HasPrefix(url, "/") {
		url = "/" + url
	}
	return siteURL + url
}
