// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/olegiv/devdash/internal/middleware"
	"github.com/olegiv/devdash/internal/model"
	"github.com/olegiv/devdash/internal/render"
	"github.com/olegiv/devdash/internal/service"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates the credentials and starts a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		WriteValidationError(w, map[string]string{"credentials": "Username and password are required"})
		return
	}

	if locked, remaining := h.deps.Login.IsLocked(username); locked {
		writeLocked(w, remaining)
		return
	}

	user, err := h.deps.Users.Authenticate(r.Context(), username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			if locked, d := h.deps.Login.RecordFailure(username); locked {
				slog.Warn("account locked after failed logins", "username", username, "duration", d)
				writeLocked(w, d)
				return
			}
		}
		writeServiceError(w, r, err, "login")
		return
	}
	h.deps.Login.RecordSuccess(username)

	if err := h.deps.Sessions.RenewToken(r.Context()); err != nil {
		writeServiceError(w, r, fmt.Errorf("renewing session token: %w", err), "login")
		return
	}
	h.deps.Sessions.Put(r.Context(), middleware.SessionKeyUserID, user.ID)

	slog.Info("user logged in", "user_id", user.ID, "role", user.Role)
	WriteSuccess(w, user, nil)
}

func writeLocked(w http.ResponseWriter, d time.Duration) {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	WriteError(w, http.StatusTooManyRequests, "account_locked",
		"Too many failed login attempts. Try again later", nil)
}

// Logout ends the session and drops the operator's dashboard.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if userID := middleware.GetUserID(r); userID != "" && h.deps.Dashboards != nil {
		h.deps.Dashboards.Drop(userID)
	}
	if err := h.deps.Sessions.Destroy(r.Context()); err != nil {
		writeServiceError(w, r, fmt.Errorf("destroying session: %w", err), "logout")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Register creates a user account. It does not sign the new user in.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if !decodeJSON(w, r, &in) {
		return
	}
	user, err := h.deps.Users.RegisterUser(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err, "registration")
		return
	}
	WriteCreated(w, user)
}

// Me returns the signed-in user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		writeUnauthorized(w)
		return
	}
	WriteSuccess(w, user.Sanitized(), nil)
}

// MyPages lists the pages the signed-in user may open.
func (h *Handler) MyPages(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		writeUnauthorized(w)
		return
	}
	pages, err := h.deps.Pages.GetPagesForUser(r.Context(), *user)
	if err != nil {
		writeServiceError(w, r, err, "pages")
		return
	}
	WriteSuccess(w, pages, &Meta{Total: len(pages)})
}

// MyPage renders one page the signed-in user may open.
func (h *Handler) MyPage(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		writeUnauthorized(w)
		return
	}
	page, err := h.deps.Pages.GetPageForUser(r.Context(), *user, idParam(r))
	if err != nil {
		writeServiceError(w, r, err, "page")
		return
	}
	writeRendered(w, r, page)
}

func writeRendered(w http.ResponseWriter, r *http.Request, page model.Page) {
	view, err := render.RenderPage(page)
	if err != nil {
		writeServiceError(w, r, err, "page")
		return
	}
	WriteSuccess(w, view, nil)
}
