// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/devdash/internal/middleware"
	"github.com/olegiv/devdash/internal/model"
)

// Routes returns the /api/v1 router. Session loading (scs LoadAndSave)
// is expected to run before it.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	if h.deps.RateLimiter != nil {
		r.Use(h.deps.RateLimiter.Middleware)
	}
	r.Use(middleware.Origin)
	if h.deps.CSRF != nil {
		r.Use(h.deps.CSRF)
	}
	r.Use(middleware.LoadUser(h.deps.Sessions, h.deps.Users))

	// Public endpoints
	r.Get("/status", h.Status)
	r.Get("/health", h.Health)

	r.Route("/auth", func(r chi.Router) {
		r.With(h.deps.Login.Middleware).Post("/login", h.Login)
		r.Post("/register", h.Register)
		r.Post("/logout", h.Logout)
		r.With(middleware.Auth(h.deps.Sessions)).Get("/me", h.Me)
	})

	// Signed-in users
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(h.deps.Sessions))
		r.Get("/me/pages", h.MyPages)
		r.Get("/me/pages/{id}", h.MyPage)
	})

	// Admins and developers
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(h.deps.Sessions))
		r.Use(middleware.RequireRole(model.RoleAdmin, h.deps.Activity))

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.ListUsers)
			r.Post("/", h.CreateUser)
			r.Get("/{id}", h.GetUser)
			r.Put("/{id}", h.UpdateUser)
			r.Delete("/{id}", h.DeleteUser)
			r.Put("/{id}/password", h.UpdateUserPassword)
			r.Put("/{id}/status", h.UpdateUserStatus)
			r.Put("/{id}/pages", h.AssignUserPages)
		})

		r.Route("/pages", func(r chi.Router) {
			r.Get("/", h.ListPages)
			r.Post("/", h.CreatePage)
			r.Get("/subtypes", h.PageSubTypes)
			r.Get("/{id}", h.GetPage)
			r.Put("/{id}", h.UpdatePage)
			r.Delete("/{id}", h.DeletePage)
			r.Put("/{id}/content", h.UpdatePageContent)
			r.Get("/{id}/view", h.ViewPage)
		})

		r.Get("/activity", h.ListActivity)
		r.Get("/stats", h.Stats)

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/", h.ListCatalog)
			r.Post("/", h.CreateCatalogPage)
			r.Get("/{id}", h.GetCatalogPage)
			r.Put("/{id}", h.UpdateCatalogPage)
			r.Delete("/{id}", h.DeleteCatalogPage)
		})
	})

	// Developers
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(h.deps.Sessions))
		r.Use(middleware.RequireRole(model.RoleDeveloper, h.deps.Activity))

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/", h.Dashboard)
			r.Post("/reload", h.ReloadDashboard)
			r.Post("/view", h.NavigateDashboard)
			r.Post("/users/{id}/toggle-status", h.ToggleUserStatus)
			r.Post("/users/{id}/delete", h.RequestDeleteUser)
			r.Post("/pages/{id}/delete", h.RequestDeletePage)
			r.Post("/confirm/{token}", h.ConfirmDashboardAction)
			r.Delete("/confirm/{token}", h.CancelDashboardAction)
		})

		r.Get("/jobs", h.ListJobs)
		r.Post("/jobs/{name}/run", h.RunJob)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteNotFound(w, "Endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
	})

	return r
}
