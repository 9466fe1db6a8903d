// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Deal statuses.
const (
	DealStatusPublished = "PUBLISHED"
	DealStatusDraft     = "DRAFT"
)

// Deal categories.
const (
	CategoryCloud        = "Cloud"
	CategoryProductivity = "Productivity"
	CategoryAI           = "AI"
	CategoryEducation    = "Education"
	CategoryOther        = "Other"
)

// Deal access types. Anything other than Free requires the member to
// have unlocked full access before the affiliate link is shown.
const (
	AccessTypeFree     = "Free"
	AccessTypeDiscount = "Discount"
	AccessTypeCredit   = "Credit"
	AccessTypeTrial    = "Trial"
)

// DealCategories lists the selectable categories in display order.
var DealCategories = []string{
	CategoryCloud,
	CategoryProductivity,
	CategoryAI,
	CategoryEducation,
	CategoryOther,
}

// DealAccessTypes lists the selectable access types in display order.
var DealAccessTypes = []string{
	AccessTypeFree,
	AccessTypeDiscount,
	AccessTypeCredit,
	AccessTypeTrial,
}

// Deal represents a catalog entry.
type Deal struct {
	ID             int64          `json:"id"`
	Title          string         `json:"title"`
	Slug           string         `json:"slug"`
	Description    string         `json:"description"`
	Category       string         `json:"category"`
	Tags           string         `json:"tags"` // JSON array of strings
	AccessType     string         `json:"access_type"`
	ValueHighlight string         `json:"value_highlight"`
	AffiliateURL   string         `json:"affiliate_url"`
	LogoURL        sql.NullString `json:"logo_url"`
	ExpiryDate     sql.NullTime   `json:"expiry_date"`
	IsFeatured     bool           `json:"is_featured"`
	Status         string         `json:"status"`
	DisplayOrder   sql.NullInt64  `json:"display_order"`
	ClickCount     int64          `json:"click_count"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// IsPublished returns true if the deal is visible on the public listing.
func (d *Deal) IsPublished() bool {
	return d.Status == DealStatusPublished
}

// IsExpired returns true if the deal has an expiry date in the past.
func (d *Deal) IsExpired() bool {
	return d.ExpiryDate.Valid && d.ExpiryDate.Time.Before(time.Now())
}

// IsGated returns true if the deal requires full access to reveal its link.
func (d *Deal) IsGated() bool {
	return d.AccessType != AccessTypeFree
}

// TagList decodes the stored tags column into a slice. Invalid or empty
// values decode to nil rather than an error so templates stay simple.
func (d *Deal) TagList() []string {
	if d.Tags == "" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(d.Tags), &tags); err != nil {
		return nil
	}
	return tags
}

// ValidDealStatus reports whether s is a known deal status.
func ValidDealStatus(s string) bool {
	return s == DealStatusPublished || s == DealStatusDraft
}

// ValidDealCategory reports whether c is a known category.
func ValidDealCategory(c string) bool {
	for _, known := range DealCategories {
		if c == known {
			return true
		}
	}
	return false
}

// ValidAccessType reports whether a is a known access type.
func ValidAccessType(a string) bool {
	for _, known := range DealAccessTypes {
		if a == known {
			return true
		}
	}
	return false
}
