// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"

	"github.com/mrpdeals/mrpdeals-go/internal/render"
	"github.com/mrpdeals/mrpdeals-go/internal/service"
	"github.com/mrpdeals/mrpdeals-go/internal/session"
)

// ResetHandler drives the three-step password reset wizard:
// email entry, OTP entry, new password. Wizard state lives in the
// session so steps cannot be skipped.
type ResetHandler struct {
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
	resets         *service.ResetService
}

// NewResetHandler creates a new ResetHandler.
func NewResetHandler(renderer *render.Renderer, sm *scs.SessionManager, resets *service.ResetService) *ResetHandler {
	return &ResetHandler{
		renderer:       renderer,
		sessionManager: sm,
		resets:         resets,
	}
}

// EmailForm renders the email entry step. GET /forgot
func (h *ResetHandler) EmailForm(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.Render(w, r, "auth/forgot", render.TemplateData{
		Title: "Reset Password",
	}); err != nil {
		logAndInternalError(w, "failed to render reset email page", "error", err)
	}
}

// SendCode handles the email step submission. POST /forgot
// An unknown email gets the same confirmation as a known one so the
// form cannot be used to probe for accounts.
func (h *ResetHandler) SendCode(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectForgot) {
		return
	}

	email := normalizeEmail(r.FormValue("email"))
	if email == "" {
		flashError(w, r, h.renderer, redirectForgot, "Email is required")
		return
	}

	if err := h.resets.Start(r.Context(), email); err != nil && !errors.Is(err, service.ErrNotFound) {
		logAndInternalError(w, "failed to start password reset", "error", err)
		return
	}

	h.sessionManager.Put(r.Context(), session.KeyResetEmail, email)
	h.sessionManager.Put(r.Context(), session.KeyResetStage, session.ResetStageOTP)

	flashAndRedirect(w, r, h.renderer, redirectForgot+"/code",
		"If that email has an account, a reset code is on its way", "info")
}

// CodeForm renders the OTP entry step. GET /forgot/code
func (h *ResetHandler) CodeForm(w http.ResponseWriter, r *http.Request) {
	if !h.requireStage(w, r, session.ResetStageOTP, session.ResetStagePassword) {
		return
	}

	if err := h.renderer.Render(w, r, "auth/reset_code", render.TemplateData{
		Title: "Enter Reset Code",
	}); err != nil {
		logAndInternalError(w, "failed to render reset code page", "error", err)
	}
}

// VerifyCode handles the OTP step submission. POST /forgot/code
func (h *ResetHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	if !h.requireStage(w, r, session.ResetStageOTP, session.ResetStagePassword) {
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, redirectForgot+"/code") {
		return
	}

	email := h.sessionManager.GetString(r.Context(), session.KeyResetEmail)
	code := strings.TrimSpace(r.FormValue("code"))

	if err := h.resets.Verify(r.Context(), email, code); err != nil {
		if errors.Is(err, service.ErrInvalidCode) || errors.Is(err, service.ErrNotFound) {
			flashError(w, r, h.renderer, redirectForgot+"/code", "Invalid or expired code")
			return
		}
		logAndInternalError(w, "failed to verify reset code", "error", err)
		return
	}

	h.sessionManager.Put(r.Context(), session.KeyResetStage, session.ResetStagePassword)
	// Carry the verified code forward for the final consuming step.
	h.sessionManager.Put(r.Context(), session.KeyResetCode, code)

	http.Redirect(w, r, redirectForgot+"/password", http.StatusSeeOther)
}

// PasswordForm renders the new password step. GET /forgot/password
func (h *ResetHandler) PasswordForm(w http.ResponseWriter, r *http.Request) {
	if !h.requireStage(w, r, session.ResetStagePassword) {
		return
	}

	if err := h.renderer.Render(w, r, "auth/reset_password", render.TemplateData{
		Title: "Choose a New Password",
	}); err != nil {
		logAndInternalError(w, "failed to render reset password page", "error", err)
	}
}

// SetPassword handles the final step. POST /forgot/password
func (h *ResetHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	if !h.requireStage(w, r, session.ResetStagePassword) {
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, redirectForgot+"/password") {
		return
	}

	email := h.sessionManager.GetString(r.Context(), session.KeyResetEmail)
	code := h.sessionManager.GetString(r.Context(), session.KeyResetCode)
	password := r.FormValue("password")

	if err := h.resets.Complete(r.Context(), email, code, password); err != nil {
		if verr, ok := service.AsValidationError(err); ok {
			flashError(w, r, h.renderer, redirectForgot+"/password", verr.Fields["password"])
			return
		}
		if errors.Is(err, service.ErrInvalidCode) || errors.Is(err, service.ErrNotFound) {
			// Code consumed or expired between steps, restart at OTP entry.
			h.sessionManager.Put(r.Context(), session.KeyResetStage, session.ResetStageOTP)
			flashError(w, r, h.renderer, redirectForgot+"/code", "Invalid or expired code")
			return
		}
		logAndInternalError(w, "failed to complete password reset", "error", err)
		return
	}

	h.sessionManager.Remove(r.Context(), session.KeyResetEmail)
	h.sessionManager.Remove(r.Context(), session.KeyResetStage)
	h.sessionManager.Remove(r.Context(), session.KeyResetCode)

	flashSuccess(w, r, h.renderer, redirectLogin, "Password updated. You can log in now.")
}

// requireStage checks the wizard stage in the session and bounces the
// request back to the email step when it doesn't match.
func (h *ResetHandler) requireStage(w http.ResponseWriter, r *http.Request, allowed ...string) bool {
	stage := h.sessionManager.GetString(r.Context(), session.KeyResetStage)
	for _, s := range allowed {
		if stage == s {
			return true
		}
	}
	http.Redirect(w, r, redirectForgot, http.StatusSeeOther)
	return false
}
