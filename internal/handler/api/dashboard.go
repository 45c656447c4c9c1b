// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/devdash/internal/dashboard"
	"github.com/olegiv/devdash/internal/middleware"
)

// NavigateRequest is the body of POST /dashboard/view.
type NavigateRequest struct {
	View   dashboard.View `json:"view"`
	UserID string         `json:"userId,omitempty"`
	PageID string         `json:"pageId,omitempty"`
}

// controller returns the signed-in operator's dashboard, loading it on
// first use.
func (h *Handler) controller(w http.ResponseWriter, r *http.Request) (*dashboard.Controller, bool) {
	userID := middleware.GetUserID(r)
	if userID == "" {
		writeUnauthorized(w)
		return nil, false
	}
	c := h.deps.Dashboards.For(userID)
	if c.Snapshot() == nil {
		if _, err := c.Reload(r.Context()); err != nil {
			writeServiceError(w, r, err, "dashboard")
			return nil, false
		}
	}
	return c, true
}

// Dashboard returns the operator's dashboard state.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	WriteSuccess(w, c.State(), nil)
}

// ReloadDashboard refetches the dashboard snapshot.
func (h *Handler) ReloadDashboard(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == "" {
		writeUnauthorized(w)
		return
	}
	c := h.deps.Dashboards.For(userID)
	if _, err := c.Reload(r.Context()); err != nil {
		writeServiceError(w, r, err, "dashboard")
		return
	}
	WriteSuccess(w, c.State(), nil)
}

// NavigateDashboard switches the dashboard view.
func (h *Handler) NavigateDashboard(w http.ResponseWriter, r *http.Request) {
	var req NavigateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	if err := c.Navigate(req.View, req.UserID, req.PageID); err != nil {
		writeServiceError(w, r, err, "dashboard selection")
		return
	}
	WriteSuccess(w, c.State(), nil)
}

// ToggleUserStatus flips a user's active flag from the dashboard.
func (h *Handler) ToggleUserStatus(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	if err := c.ToggleUserStatus(r.Context(), idParam(r)); err != nil {
		writeServiceError(w, r, err, "user")
		return
	}
	WriteSuccess(w, c.State(), nil)
}

// RequestDeleteUser stages a user deletion for confirmation.
func (h *Handler) RequestDeleteUser(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	conf, err := c.RequestDeleteUser(idParam(r))
	if err != nil {
		writeServiceError(w, r, err, "user")
		return
	}
	WriteJSON(w, http.StatusAccepted, Response{Data: conf})
}

// RequestDeletePage stages a page deletion for confirmation.
func (h *Handler) RequestDeletePage(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	conf, err := c.RequestDeletePage(idParam(r))
	if err != nil {
		writeServiceError(w, r, err, "page")
		return
	}
	WriteJSON(w, http.StatusAccepted, Response{Data: conf})
}

// ConfirmDashboardAction runs a staged deletion.
func (h *Handler) ConfirmDashboardAction(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	if err := c.Confirm(r.Context(), chi.URLParam(r, "token")); err != nil {
		writeServiceError(w, r, err, "confirmation")
		return
	}
	WriteSuccess(w, c.State(), nil)
}

// CancelDashboardAction discards a staged deletion.
func (h *Handler) CancelDashboardAction(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	if err := c.Cancel(chi.URLParam(r, "token")); err != nil {
		writeServiceError(w, r, err, "confirmation")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
