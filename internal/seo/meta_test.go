// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package seo

import (
	"strings"
	"testing"
)

func testSite() SiteConfig {
	return SiteConfig{
		SiteName: "MRP Deals",
		SiteURL:  "https://example.com",
		Tagline:  "Curated deals for makers",
	}
}

func TestBuildSiteMeta(t *testing.T) {
	meta := BuildSiteMeta(testSite())

	if meta.Title != "MRP Deals" {
		t.Errorf("Title = %q, want %q", meta.Title, "MRP Deals")
	}
	if meta.Description != "Curated deals for makers" {
		t.Errorf("Description = %q, want %q", meta.Description, "Curated deals for makers")
	}
	if meta.Canonical != "https://example.com" {
		t.Errorf("Canonical = %q, want %q", meta.Canonical, "https://example.com")
	}
	if meta.OGType != "website" {
		t.Errorf("OGType = %q, want %q", meta.OGType, "website")
	}
	if meta.OGSiteName != "MRP Deals" {
		t.Errorf("OGSiteName = %q, want %q", meta.OGSiteName, "MRP Deals")
	}
	if meta.Robots != "index,follow" {
		t.Errorf("Robots = %q, want %q", meta.Robots, "index,follow")
	}
}

func TestBuildDealMeta(t *testing.T) {
	deal := DealData{
		Title:          "Cloud Starter Credits",
		Description:    "<p>Get <strong>$5,000</strong> in cloud credits for your startup.</p>",
		Slug:           "cloud-starter-credits",
		Category:       "Cloud",
		ValueHighlight: "$5,000 in credits",
		LogoURL:        "/uploads/logos/cloud.png",
	}

	meta := BuildDealMeta(deal, testSite())

	if meta.Title != "Cloud Starter Credits - MRP Deals" {
		t.Errorf("Title = %q", meta.Title)
	}
	if strings.Contains(meta.Description, "<") {
		t.Errorf("Description contains HTML: %q", meta.Description)
	}
	if !strings.Contains(meta.Description, "$5,000 in cloud credits") {
		t.Errorf("Description = %q, want cloud credits text", meta.Description)
	}
	if meta.Canonical != "https://example.com/deals/cloud-starter-credits" {
		t.Errorf("Canonical = %q", meta.Canonical)
	}
	if meta.OGURL != meta.Canonical {
		t.Errorf("OGURL = %q, want %q", meta.OGURL, meta.Canonical)
	}
	if meta.OGImage != "https://example.com/uploads/logos/cloud.png" {
		t.Errorf("OGImage = %q", meta.OGImage)
	}
	if meta.OGType != "product" {
		t.Errorf("OGType = %q, want %q", meta.OGType, "product")
	}
	if meta.Robots != "index,follow" {
		t.Errorf("Robots = %q, want %q", meta.Robots, "index,follow")
	}
}

func TestBuildDealMetaFallbackDescription(t *testing.T) {
	deal := DealData{
		Title:          "Team Wiki Pro Trial",
		Slug:           "team-wiki-pro-trial",
		ValueHighlight: "6 months free",
	}

	meta := BuildDealMeta(deal, testSite())

	if meta.Description != "6 months free" {
		t.Errorf("Description = %q, want value highlight fallback", meta.Description)
	}
	if meta.OGImage != "" {
		t.Errorf("OGImage = %q, want empty", meta.OGImage)
	}
}

func TestBuildDealMetaExpired(t *testing.T) {
	deal := DealData{
		Title:   "Old Deal",
		Slug:    "old-deal",
		Expired: true,
	}

	meta := BuildDealMeta(deal, testSite())

	if meta.Robots != "noindex,follow" {
		t.Errorf("Robots = %q, want %q", meta.Robots, "noindex,follow")
	}
}

func TestBuildDealMetaLongDescription(t *testing.T) {
	deal := DealData{
		Title:       "Long Deal",
		Slug:        "long-deal",
		Description: strings.Repeat("lorem ipsum dolor sit amet ", 20),
	}

	meta := BuildDealMeta(deal, testSite())

	if len(meta.Description) > metaDescriptionLen+3 {
		t.Errorf("Description length = %d, want <= %d", len(meta.Description), metaDescriptionLen+3)
	}
	if !strings.HasSuffix(meta.Description, "...") {
		t.Errorf("Description = %q, want truncation ellipsis", meta.Description)
	}
}

func TestBuildOfferSchema(t *testing.T) {
	deal := DealData{
		Title:       "Cloud Starter Credits",
		Description: "Cloud credits for startups.",
		Slug:        "cloud-starter-credits",
		Category:    "Cloud",
		LogoURL:     "/uploads/logos/cloud.png",
	}

	schema := string(BuildOfferSchema(deal, testSite()))

	for _, want := range []string{
		`"@context": "https://schema.org"`,
		`"@type": "Offer"`,
		`"name": "Cloud Starter Credits"`,
		`"url": "https://example.com/deals/cloud-starter-credits"`,
		`"category": "Cloud"`,
		`"image": "https://example.com/uploads/logos/cloud.png"`,
		`"Organization"`,
	} {
		if !strings.Contains(schema, want) {
			t.Errorf("schema missing %q:\n%s", want, schema)
		}
	}
}

func TestBuildWebSiteSchema(t *testing.T) {
	schema := string(BuildWebSiteSchema(testSite()))

	if !strings.Contains(schema, `"@type": "WebSite"`) {
		t.Errorf("schema missing WebSite type:\n%s", schema)
	}
	if !strings.Contains(schema, `"name": "MRP Deals"`) {
		t.Errorf("schema missing site name:\n%s", schema)
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "hello world", "hello world"},
		{"simple tags", "<p>hello</p>", "hello"},
		{"nested tags", "<div><p>hello <b>world</b></p></div>", "hello world"},
		{"empty", "", ""},
		{"collapses whitespace", "<p>a</p>\n\n<p>b</p>", "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripHTML(tt.input); got != tt.want {
				t.Errorf("stripHTML(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"short text unchanged", "hello", 10, "hello"},
		{"exact length unchanged", "hello", 5, "hello"},
		{"truncates at word boundary", "hello wonderful world", 15, "hello wonderful..."},
		{"trims whitespace", "  hello  ", 10, "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateText(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("truncateText(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestMakeAbsoluteURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		siteURL string
		want    string
	}{
		{"empty", "", "https://example.com", ""},
		{"already absolute", "https://cdn.example.com/x.png", "https://example.com", "https://cdn.example.com/x.png"},
		{"relative with slash", "/uploads/x.png", "https://example.com", "https://example.com/uploads/x.png"},
		{"relative without slash", "uploads/x.png", "https://example.com", "https://example.com/uploads/x.png"},
		{"site URL with trailing slash", "/uploads/x.png", "https://example.com/", "https://example.com/uploads/x.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := makeAbsoluteURL(tt.url, tt.siteURL); got != tt.want {
				t.Errorf("makeAbsoluteURL(%q, %q) = %q, want %q", tt.url, tt.siteURL, got, tt.want)
			}
		})
	}
}
