// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the JSON REST API of the console.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/devdash/internal/dashboard"
	"github.com/olegiv/devdash/internal/middleware"
	"github.com/olegiv/devdash/internal/pagefile"
	"github.com/olegiv/devdash/internal/render"
	"github.com/olegiv/devdash/internal/scheduler"
	"github.com/olegiv/devdash/internal/service"
	"github.com/olegiv/devdash/internal/store"
	"github.com/olegiv/devdash/internal/version"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

// Deps are the collaborators of the API handlers. Scheduler, CSRF and
// RateLimiter are optional.
type Deps struct {
	Client      *store.Client
	Sessions    *scs.SessionManager
	Users       *service.UserService
	Pages       *service.PageService
	Activity    *service.ActivityService
	Stats       *service.StatsService
	Catalog     *pagefile.Store
	Dashboards  *dashboard.Registry
	Login       *middleware.LoginProtection
	Scheduler   *scheduler.Scheduler
	CSRF        func(http.Handler) http.Handler
	RateLimiter *middleware.RateLimiter
	Version     version.Info
}

// Handler serves the /api/v1 routes.
type Handler struct {
	deps      Deps
	startTime time.Time
}

// NewHandler creates a Handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{deps: deps, startTime: time.Now()}
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta carries collection metadata.
type Meta struct {
	Total int `json:"total"`
	Limit int `json:"limit,omitempty"`
}

// WriteJSON writes data as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a 200 response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteError writes the standard error envelope.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	middleware.WriteAPIError(w, statusCode, code, message, details)
}

// WriteBadRequest writes a 400 response.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, nil)
}

// WriteNotFound writes a 404 response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteValidationError writes a 422 response with field errors.
func WriteValidationError(w http.ResponseWriter, fields map[string]string) {
	WriteError(w, http.StatusUnprocessableEntity, "validation_error", "Validation failed", fields)
}

// WriteInternalError writes a 500 response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		msg := "Invalid JSON body"
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			msg = "Request body too large"
		case errors.Is(err, io.EOF):
			msg = "Request body is empty"
		case strings.HasPrefix(err.Error(), "json: unknown field"):
			msg = "Unknown field " + strings.TrimPrefix(err.Error(), "json: unknown field ")
		}
		WriteBadRequest(w, msg)
		return false
	}
	return true
}

// writeServiceError maps errors from the service, catalog, dashboard and
// scheduler layers onto HTTP responses. what names the subject for
// not-found and internal messages.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, what string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		WriteValidationError(w, verr.Fields)
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, pagefile.ErrNotFound),
		errors.Is(err, dashboard.ErrUnknownUser),
		errors.Is(err, dashboard.ErrUnknownPage),
		errors.Is(err, dashboard.ErrUnknownToken),
		errors.Is(err, scheduler.ErrJobNotFound):
		WriteNotFound(w, capitalizeFirst(what)+" not found")
	case errors.Is(err, pagefile.ErrInvalid),
		errors.Is(err, dashboard.ErrInvalidView),
		errors.Is(err, render.ErrInvalidEmbedURL):
		WriteError(w, http.StatusUnprocessableEntity, "validation_error", capitalizeFirst(err.Error()), nil)
	case errors.Is(err, service.ErrUsernameTaken),
		errors.Is(err, store.ErrConflict),
		errors.Is(err, pagefile.ErrDuplicate):
		WriteError(w, http.StatusConflict, "conflict", capitalizeFirst(err.Error()), nil)
	case errors.Is(err, dashboard.ErrSelfOperation):
		writeSelfConflict(w, capitalizeFirst(err.Error()))
	case errors.Is(err, dashboard.ErrNotLoaded):
		WriteError(w, http.StatusConflict, "not_loaded", "Dashboard is not loaded", nil)
	case errors.Is(err, dashboard.ErrTokenExpired):
		WriteError(w, http.StatusGone, "expired", "Confirmation expired", nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password", nil)
	case errors.Is(err, service.ErrInactiveAccount):
		WriteError(w, http.StatusForbidden, "inactive_account", "Account is inactive", nil)
	case errors.Is(err, context.DeadlineExceeded):
		WriteError(w, http.StatusServiceUnavailable, "timeout", "Timed out loading "+what, nil)
	default:
		slog.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"user_id", middleware.GetUserID(r),
		)
		WriteInternalError(w, "Failed to process "+what)
	}
}

func idParam(r *http.Request) string {
	return chi.URLParam(r, "id")
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
