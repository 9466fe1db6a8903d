// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the
// application including Deal, User, Event, and settings structures.
package model

import (
	"database/sql"
	"time"
)

// User roles.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// User represents a registered account. Members start without full
// access; the flag flips when they redeem the site access code.
type User struct {
	ID            int64        `json:"id"`
	Email         string       `json:"email"`
	PasswordHash  string       `json:"-"` // Never expose in JSON
	Role          string       `json:"role"`
	Name          string       `json:"name"`
	HasFullAccess bool         `json:"has_full_access"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	LastLoginAt   sql.NullTime `json:"last_login_at,omitempty"`
}

// IsAdmin returns true if the user has admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanAccessGated returns true if gated deal links should be revealed.
func (u *User) CanAccessGated() bool {
	return u.HasFullAccess || u.IsAdmin()
}
