// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mrpdeals/mrpdeals-go/internal/auth"
	"github.com/mrpdeals/mrpdeals-go/internal/middleware"
	"github.com/mrpdeals/mrpdeals-go/internal/model"
	"github.com/mrpdeals/mrpdeals-go/internal/render"
	"github.com/mrpdeals/mrpdeals-go/internal/service"
	"github.com/mrpdeals/mrpdeals-go/internal/store"
)

// usersPerPage is the admin user list page size.
const usersPerPage = 20

// UsersHandler serves the admin user management screens.
type UsersHandler struct {
	queries      *store.Queries
	eventService *service.EventService
	renderer     *render.Renderer
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(db *sql.DB, events *service.EventService, renderer *render.Renderer) *UsersHandler {
	return &UsersHandler{
		queries:      store.New(db),
		eventService: events,
		renderer:     renderer,
	}
}

// userListData is the template payload for the admin user list.
type userListData struct {
	Users      []model.User
	Pagination Pagination
}

// List handles GET /admin/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	page := pageParam(r)

	users, err := h.queries.ListUsers(r.Context(), store.ListUsersParams{
		Limit:  usersPerPage,
		Offset: int64((page - 1) * usersPerPage),
	})
	if err != nil {
		logAndInternalError(w, "failed to list users", "error", err)
		return
	}
	total, err := h.queries.CountUsers(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to count users", "error", err)
		return
	}

	if err := h.renderer.Render(w, r, "admin/users_list", render.TemplateData{
		Title: "Users",
		User:  middleware.GetUser(r),
		Data: userListData{
			Users:      users,
			Pagination: BuildPagination(page, total, usersPerPage, redirectAdminUsers, r.URL.Query()),
		},
	}); err != nil {
		logAndInternalError(w, "failed to render user list", "error", err)
	}
}

// userFormData is the template payload for the user create/edit form.
type userFormData struct {
	FormUser model.User
	IsNew    bool
	Roles    []string
}

// NewForm handles GET /admin/users/new.
func (h *UsersHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, model.User{Role: model.RoleMember}, true)
}

// EditForm handles GET /admin/users/{id}.
func (h *UsersHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		flashError(w, r, h.renderer, redirectAdminUsers, "Invalid user ID")
		return
	}

	user, err := h.queries.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			flashError(w, r, h.renderer, redirectAdminUsers, "User not found")
			return
		}
		logAndInternalError(w, "failed to load user", "error", err, "user_id", id)
		return
	}

	h.renderForm(w, r, user, false)
}

func (h *UsersHandler) renderForm(w http.ResponseWriter, r *http.Request, formUser model.User, isNew bool) {
	title := "Edit User"
	if isNew {
		title = "New User"
	}

	if err := h.renderer.Render(w, r, "admin/user_form", render.TemplateData{
		Title: title,
		User:  middleware.GetUser(r),
		Data: userFormData{
			FormUser: formUser,
			IsNew:    isNew,
			Roles:    []string{model.RoleMember, model.RoleAdmin},
		},
	}); err != nil {
		logAndInternalError(w, "failed to render user form", "error", err)
	}
}

// Create handles POST /admin/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminUsersNew) {
		return
	}

	email := normalizeEmail(r.FormValue("email"))
	name := strings.TrimSpace(r.FormValue("name"))
	role := r.FormValue("role")
	password := r.FormValue("password")

	if email == "" || !strings.Contains(email, "@") {
		flashError(w, r, h.renderer, redirectAdminUsersNew, "A valid email address is required")
		return
	}
	if role != model.RoleAdmin && role != model.RoleMember {
		flashError(w, r, h.renderer, redirectAdminUsersNew, "Invalid role")
		return
	}
	if len(password) < minPasswordLength {
		flashError(w, r, h.renderer, redirectAdminUsersNew,
			fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		logAndInternalError(w, "failed to hash password", "error", err)
		return
	}

	now := time.Now()
	user, err := h.queries.CreateUser(r.Context(), store.CreateUserParams{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminUsersNew, "Could not create user (email may already exist)")
		return
	}

	_ = h.eventService.LogUserEvent(r.Context(), model.EventLevelInfo,
		"User created by admin", middleware.GetUserIDPtr(r),
		map[string]any{"created_user_id": user.ID, "email": user.Email, "role": user.Role})

	flashSuccess(w, r, h.renderer, redirectAdminUsers, "User created")
}

// Update handles POST /admin/users/{id}. Admins cannot demote their
// own account; that prevents locking the last admin out mid-session.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		flashError(w, r, h.renderer, redirectAdminUsers, "Invalid user ID")
		return
	}
	back := fmt.Sprintf(redirectAdminUsersID, id)
	if !parseFormOrRedirect(w, r, h.renderer, back) {
		return
	}

	target, err := h.queries.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			flashError(w, r, h.renderer, redirectAdminUsers, "User not found")
			return
		}
		logAndInternalError(w, "failed to load user", "error", err, "user_id", id)
		return
	}

	email := normalizeEmail(r.FormValue("email"))
	name := strings.TrimSpace(r.FormValue("name"))
	role := r.FormValue("role")

	if email == "" || !strings.Contains(email, "@") {
		flashError(w, r, h.renderer, back, "A valid email address is required")
		return
	}
	if role != model.RoleAdmin && role != model.RoleMember {
		flashError(w, r, h.renderer, back, "Invalid role")
		return
	}

	current := middleware.GetUser(r)
	if current != nil && current.ID == id && role != model.RoleAdmin {
		flashError(w, r, h.renderer, back, "You cannot change your own role")
		return
	}

	if err := h.queries.UpdateUser(r.Context(), store.UpdateUserParams{
		ID:        id,
		Email:     email,
		Role:      role,
		Name:      name,
		UpdatedAt: time.Now(),
	}); err != nil {
		logAndInternalError(w, "failed to update user", "error", err, "user_id", id)
		return
	}

	// Optional password change alongside profile edits.
	if password := r.FormValue("password"); password != "" {
		if len(password) < minPasswordLength {
			flashError(w, r, h.renderer, back,
				fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
			return
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			logAndInternalError(w, "failed to hash password", "error", err)
			return
		}
		if err := h.queries.UpdateUserPassword(r.Context(), store.UpdateUserPasswordParams{
			ID:           id,
			PasswordHash: hash,
			UpdatedAt:    time.Now(),
		}); err != nil {
			logAndInternalError(w, "failed to update password", "error", err, "user_id", id)
			return
		}
	}

	_ = h.eventService.LogUserEvent(r.Context(), model.EventLevelInfo,
		"User updated by admin", middleware.GetUserIDPtr(r),
		map[string]any{"updated_user_id": id, "email": email, "role": role, "was_role": target.Role})

	flashSuccess(w, r, h.renderer, redirectAdminUsers, "User updated")
}

// Delete handles POST /admin/users/{id}/delete. Self-deletion and
// deleting the last admin are rejected.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		flashError(w, r, h.renderer, redirectAdminUsers, "Invalid user ID")
		return
	}

	current := middleware.GetUser(r)
	if current != nil && current.ID == id {
		flashError(w, r, h.renderer, redirectAdminUsers, "You cannot delete your own account")
		return
	}

	target, err := h.queries.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			flashError(w, r, h.renderer, redirectAdminUsers, "User not found")
			return
		}
		logAndInternalError(w, "failed to load user", "error", err, "user_id", id)
		return
	}

	if target.IsAdmin() {
		admins, err := h.queries.CountAdmins(r.Context())
		if err != nil {
			logAndInternalError(w, "failed to count admins", "error", err)
			return
		}
		if admins <= 1 {
			flashError(w, r, h.renderer, redirectAdminUsers, "Cannot delete the last admin")
			return
		}
	}

	if err := h.queries.DeleteUser(r.Context(), id); err != nil {
		logAndInternalError(w, "failed to delete user", "error", err, "user_id", id)
		return
	}

	_ = h.eventService.LogUserEvent(r.Context(), model.EventLevelWarning,
		"User deleted by admin", middleware.GetUserIDPtr(r),
		map[string]any{"deleted_user_id": id, "email": target.Email})

	flashSuccess(w, r, h.renderer, redirectAdminUsers, "User deleted")
}
