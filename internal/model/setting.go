// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Well-known setting keys.
const (
	SettingAccessCode   = "MRP_DEALS_ACCESS_CODE"
	SettingSiteName     = "SITE_NAME"
	SettingSiteTagline  = "SITE_TAGLINE"
	SettingContactEmail = "CONTACT_EMAIL"
)

// Setting represents a key/value configuration row editable at runtime.
type Setting struct {
	ID        int64     `json:"id"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Sensitive reports whether the setting value must be masked in admin
// screens and never rendered into pages.
func (s *Setting) Sensitive() bool {
	return s.Key == SettingAccessCode
}
