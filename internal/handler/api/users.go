// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"net/http"

	"github.com/olegiv/devdash/internal/middleware"
	"github.com/olegiv/devdash/internal/model"
	"github.com/olegiv/devdash/internal/service"
)

// PasswordRequest is the body of PUT /users/{id}/password.
type PasswordRequest struct {
	Password string `json:"password"`
}

// StatusRequest is the body of PUT /users/{id}/status.
type StatusRequest struct {
	IsActive *bool `json:"isActive"`
}

// AssignPagesRequest is the body of PUT /users/{id}/pages.
type AssignPagesRequest struct {
	PageIDs []string `json:"pageIds"`
}

// ListUsers lists all accounts, or the account holding ?phone=.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if phone := r.URL.Query().Get("phone"); phone != "" {
		user, err := h.deps.Users.GetUserByPhone(r.Context(), phone)
		if errors.Is(err, service.ErrNotFound) {
			WriteSuccess(w, []model.User{}, &Meta{Total: 0})
			return
		}
		if err != nil {
			writeServiceError(w, r, err, "users")
			return
		}
		WriteSuccess(w, []model.User{user}, &Meta{Total: 1})
		return
	}

	users, err := h.deps.Users.GetAllUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "users")
		return
	}
	WriteSuccess(w, users, &Meta{Total: len(users)})
}

// GetUser returns one account.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.deps.Users.GetUserByID(r.Context(), idParam(r))
	if err != nil {
		writeServiceError(w, r, err, "user")
		return
	}
	WriteSuccess(w, user, nil)
}

// CreateUser creates an account on behalf of the signed-in operator.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r)
	if actor == nil {
		writeUnauthorized(w)
		return
	}
	var in service.CreateUserInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.Role != "" && !canGrantRole(*actor, in.Role) {
		writeForbidden(w, "Cannot grant a role above your own")
		return
	}

	user, err := h.deps.Users.CreateUser(r.Context(), actor.ID, in)
	if err != nil {
		writeServiceError(w, r, err, "user")
		return
	}
	WriteCreated(w, user)
}

// UpdateUser applies a partial update to an account.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var upd service.UserUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}
	actor, target, ok := h.managedUser(w, r)
	if !ok {
		return
	}
	if upd.Role != nil && !canGrantRole(actor, *upd.Role) {
		writeForbidden(w, "Cannot grant a role above your own")
		return
	}
	if actor.ID == target.ID {
		if upd.IsActive != nil && !*upd.IsActive {
			writeSelfConflict(w, "You cannot deactivate your own account")
			return
		}
		if upd.Role != nil && *upd.Role != actor.Role {
			writeSelfConflict(w, "You cannot change your own role")
			return
		}
	}

	if err := h.deps.Users.UpdateUser(r.Context(), actor.ID, target.ID, upd); err != nil {
		writeServiceError(w, r, err, "user")
		return
	}
	h.writeUser(w, r, target.ID)
}

// UpdateUserPassword sets a new password for an account.
func (h *Handler) UpdateUserPassword(w http.ResponseWriter, r *http.Request) {
	var req PasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	actor, target, ok := h.managedUser(w, r)
	if !ok {
		return
	}
	if err := h.deps.Users.UpdateUserPassword(r.Context(), actor.ID, target.ID, req.Password); err != nil {
		writeServiceError(w, r, err, "user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateUserStatus activates or deactivates an account.
func (h *Handler) UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.IsActive == nil {
		WriteValidationError(w, map[string]string{"isActive": "Status is required"})
		return
	}
	actor, target, ok := h.managedUser(w, r)
	if !ok {
		return
	}
	if actor.ID == target.ID && !*req.IsActive {
		writeSelfConflict(w, "You cannot deactivate your own account")
		return
	}

	if err := h.deps.Users.UpdateUserStatus(r.Context(), actor.ID, target.ID, *req.IsActive); err != nil {
		writeServiceError(w, r, err, "user")
		return
	}
	h.writeUser(w, r, target.ID)
}

// AssignUserPages replaces the pages assigned to an account.
func (h *Handler) AssignUserPages(w http.ResponseWriter, r *http.Request) {
	var req AssignPagesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	actor, target, ok := h.managedUser(w, r)
	if !ok {
		return
	}
	if err := h.deps.Users.AssignPagesToUser(r.Context(), actor.ID, target.ID, req.PageIDs); err != nil {
		writeServiceError(w, r, err, "user")
		return
	}
	h.writeUser(w, r, target.ID)
}

// DeleteUser removes an account.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, target, ok := h.managedUser(w, r)
	if !ok {
		return
	}
	if actor.ID == target.ID {
		writeSelfConflict(w, "You cannot delete your own account")
		return
	}
	if err := h.deps.Users.DeleteUser(r.Context(), actor.ID, target.ID); err != nil {
		writeServiceError(w, r, err, "user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// managedUser loads the {id} account and checks the signed-in operator
// ranks at least as high as it.
func (h *Handler) managedUser(w http.ResponseWriter, r *http.Request) (actor, target model.User, ok bool) {
	a := middleware.GetUser(r)
	if a == nil {
		writeUnauthorized(w)
		return model.User{}, model.User{}, false
	}
	target, err := h.deps.Users.GetUserByID(r.Context(), idParam(r))
	if err != nil {
		writeServiceError(w, r, err, "user")
		return model.User{}, model.User{}, false
	}
	if model.RoleRank(target.Role) > model.RoleRank(a.Role) {
		writeForbidden(w, "Cannot manage an account with a higher role")
		return model.User{}, model.User{}, false
	}
	return *a, target, true
}

func (h *Handler) writeUser(w http.ResponseWriter, r *http.Request, id string) {
	user, err := h.deps.Users.GetUserByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "user")
		return
	}
	WriteSuccess(w, user, nil)
}

func canGrantRole(actor model.User, role string) bool {
	return model.RoleRank(role) <= model.RoleRank(actor.Role)
}

func writeUnauthorized(w http.ResponseWriter) {
	WriteError(w, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
}

func writeForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, "forbidden", message, nil)
}

func writeSelfConflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, "self_operation", message, nil)
}
