// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"

	"github.com/olegiv/devdash/internal/service"
	"github.com/olegiv/devdash/internal/util"
)

// Origin records the caller's address in the request context so that
// activity entries written while serving it carry the real IP.
func Origin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := service.WithOrigin(r.Context(), util.ClientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
