// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures the scs session manager backed by SQLite.
package session

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// Keys for the password reset wizard state.
const (
	KeyResetEmail = "resetEmail"
	KeyResetStage = "resetStage"
	KeyResetCode  = "resetCode"
)

// Password reset wizard stages stored under KeyResetStage.
const (
	ResetStageOTP      = "otp"
	ResetStagePassword = "password"
)

// New creates a new session manager configured with SQLite store.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()

	sm.Store = sqlite3store.New(db)

	sm.Lifetime = 24 * time.Hour
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode

	if !isDev {
		// The __Host- prefix binds the cookie to this origin.
		// It requires Secure, Path=/ and no Domain attribute.
		sm.Cookie.Name = "__Host-session"
		sm.Cookie.Secure = true
		sm.Cookie.Path = "/"
	}

	return sm
}
