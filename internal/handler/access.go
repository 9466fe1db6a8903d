// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"net/http"

	"github.com/mrpdeals/mrpdeals-go/internal/middleware"
	"github.com/mrpdeals/mrpdeals-go/internal/service"
)

// AccessHandler serves the JSON access unlock endpoint. The stored
// access code never leaves the server; this handler only reports
// whether a submitted code matched. The user row is re-read on every
// request by the user-loading middleware, so a successful unlock shows
// up on the next page load without any session mutation here.
type AccessHandler struct {
	access *service.AccessService
}

// NewAccessHandler creates a new AccessHandler.
func NewAccessHandler(access *service.AccessService) *AccessHandler {
	return &AccessHandler{access: access}
}

// unlockRequest is the POST /api/v1/access/unlock payload.
type unlockRequest struct {
	Code string `json:"code"`
}

// Unlock handles POST /api/v1/access/unlock.
//
// An invalid code is a normal outcome of the form, not a transport
// error, so it answers 200 with success=false. A missing or empty
// configured code is a server misconfiguration and answers 500 with a
// generic message; the detail is only logged.
func (h *AccessHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	var req unlockRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.access.Unlock(r.Context(), middleware.GetUserIDPtr(r), req.Code)
	switch {
	case err == nil:
		writeJSONSuccess(w, nil)
	case errors.Is(err, service.ErrNotAuthenticated):
		writeJSONError(w, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, service.ErrInvalidCode):
		w.Header().Set(HeaderContentType, "application/json")
		writeJSONBody(w, map[string]any{
			"success": false,
			"error":   "Invalid code",
		})
	default:
		writeJSONError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}
