// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for session authentication,
// role checks, login throttling and request hardening.
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/devdash/internal/model"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeyUser holds the authenticated model.User.
const ContextKeyUser ContextKey = "user"

// SessionKeyUserID is the session entry holding the signed-in user's id.
const SessionKeyUserID = "user_id"

// UserLoader fetches the account behind a session.
type UserLoader interface {
	GetUserByID(ctx context.Context, id string) (model.User, error)
}

// ActivityRecorder appends best-effort audit entries.
type ActivityRecorder interface {
	LogActivity(ctx context.Context, userID, action, details string)
}

// Auth rejects requests without a signed-in session.
func Auth(sm *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sm.GetString(r.Context(), SessionKeyUserID) == "" {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoadUser puts the session's user into the request context. Sessions
// whose user is gone or deactivated are destroyed.
func LoadUser(sm *scs.SessionManager, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := sm.GetString(r.Context(), SessionKeyUserID)
			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetUserByID(r.Context(), userID)
			if err != nil || !user.IsActive {
				if err != nil {
					slog.Debug("session user not loaded", "user_id", userID, "error", err)
				}
				_ = sm.Destroy(r.Context())
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Session is no longer valid", nil)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u model.User) context.Context {
	return context.WithValue(ctx, ContextKeyUser, u)
}

// GetUser returns the authenticated user, or nil.
func GetUser(r *http.Request) *model.User {
	user, ok := r.Context().Value(ContextKeyUser).(model.User)
	if !ok {
		return nil
	}
	return &user
}

// GetUserID returns the authenticated user's id, or "".
func GetUserID(r *http.Request) string {
	if user := GetUser(r); user != nil {
		return user.ID
	}
	return ""
}

// roleLevel ranks roles; unknown roles rank below user.
func roleLevel(role string) int {
	return model.RoleRank(role)
}

// RequireRole allows users whose role is at least minRole
// (user < admin < developer). Denials are answered with a JSON 403 and,
// when activity is non-nil, recorded as access_denied.
func RequireRole(minRole string, activity ActivityRecorder) func(http.Handler) http.Handler {
	minLevel := roleLevel(minRole)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r)
			if user == nil {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
				return
			}

			if roleLevel(user.Role) < minLevel {
				slog.Info("access denied",
					"user_id", user.ID,
					"role", user.Role,
					"required", minRole,
					"path", r.URL.Path,
				)
				if activity != nil {
					activity.LogActivity(r.Context(), user.ID, model.ActionAccessDenied,
						fmt.Sprintf("Denied %s %s (requires %s)", r.Method, r.URL.Path, minRole))
				}
				WriteAPIError(w, http.StatusForbidden, "forbidden", "Insufficient permissions", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
