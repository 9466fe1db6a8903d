// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// PasswordReset is a pending one-time code for the reset wizard.
type PasswordReset struct {
	ID        int64
	UserID    int64
	CodeHash  string
	ExpiresAt time.Time
	UsedAt    sql.NullTime
	CreatedAt time.Time
}

// Usable reports whether the code can still be redeemed.
func (p *PasswordReset) Usable(now time.Time) bool {
	return !p.UsedAt.Valid && now.Before(p.ExpiresAt)
}
