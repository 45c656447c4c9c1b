// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strconv"

	"github.com/olegiv/devdash/internal/service"
)

// ListActivity returns the most recent activity entries, newest first.
// Without ?limit= the service default applies.
func (h *Handler) ListActivity(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > service.MaxActivityLimit {
			WriteBadRequest(w, "limit must be between 1 and "+strconv.Itoa(service.MaxActivityLimit))
			return
		}
		limit = n
	}

	logs, err := h.deps.Activity.GetActivityLogs(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, err, "activity")
		return
	}
	WriteSuccess(w, logs, &Meta{Total: len(logs), Limit: limit})
}

// Stats returns the dashboard counters.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.deps.Stats.GetDashboardStats(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "stats")
		return
	}
	WriteSuccess(w, stats, nil)
}
