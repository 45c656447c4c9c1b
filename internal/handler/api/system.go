// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/devdash/internal/scheduler"
)

const healthTimeout = 2 * time.Second

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit,omitempty"`
	BuildTime string `json:"buildTime,omitempty"`
	Uptime    string `json:"uptime"`
	Database  string `json:"database"`
}

// Status reports the build and uptime.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	v := h.deps.Version
	if v.Version == "" {
		v.Version = "dev"
	}
	WriteSuccess(w, StatusResponse{
		Status:    "ok",
		Version:   v.Version,
		GitCommit: v.GitCommit,
		BuildTime: v.BuildTime,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Database:  h.deps.Client.Driver(),
	}, nil)
}

// Health pings the store.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.deps.Client.Ping(ctx); err != nil {
		slog.Warn("health check failed", "error", err)
		WriteError(w, http.StatusServiceUnavailable, "unhealthy", "Database unreachable", nil)
		return
	}
	WriteSuccess(w, map[string]string{"status": "healthy"}, nil)
}

// ListJobs lists the scheduled jobs.
func (h *Handler) ListJobs(w http.ResponseWriter, _ *http.Request) {
	if h.deps.Scheduler == nil {
		WriteSuccess(w, []scheduler.JobInfo{}, &Meta{Total: 0})
		return
	}
	jobs := h.deps.Scheduler.List()
	WriteSuccess(w, jobs, &Meta{Total: len(jobs)})
}

// RunJob runs a scheduled job now and waits for it.
func (h *Handler) RunJob(w http.ResponseWriter, r *http.Request) {
	if h.deps.Scheduler == nil {
		WriteNotFound(w, "Job not found")
		return
	}
	name := chi.URLParam(r, "name")
	if err := h.deps.Scheduler.Trigger(r.Context(), name); err != nil {
		writeServiceError(w, r, err, "job")
		return
	}
	for _, j := range h.deps.Scheduler.List() {
		if j.Name == name {
			WriteSuccess(w, j, nil)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
