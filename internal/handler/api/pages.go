// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/olegiv/devdash/internal/middleware"
	"github.com/olegiv/devdash/internal/service"
)

// PageContentRequest is the body of PUT /pages/{id}/content.
type PageContentRequest struct {
	Content     string `json:"content"`
	HTMLContent string `json:"htmlContent"`
}

// ListPages lists all pages.
func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	pages, err := h.deps.Pages.GetAllPages(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "pages")
		return
	}
	WriteSuccess(w, pages, &Meta{Total: len(pages)})
}

// GetPage returns one page.
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	page, err := h.deps.Pages.GetPageByID(r.Context(), idParam(r))
	if err != nil {
		writeServiceError(w, r, err, "page")
		return
	}
	WriteSuccess(w, page, nil)
}

// PageSubTypes lists the sub-types accepted by each page type.
func (h *Handler) PageSubTypes(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, h.deps.Pages.SubTypes(), nil)
}

// CreatePage creates a page.
func (h *Handler) CreatePage(w http.ResponseWriter, r *http.Request) {
	var in service.PageInput
	if !decodeJSON(w, r, &in) {
		return
	}
	page, err := h.deps.Pages.CreatePage(r.Context(), middleware.GetUserID(r), in)
	if err != nil {
		writeServiceError(w, r, err, "page")
		return
	}
	WriteCreated(w, page)
}

// UpdatePage applies a partial update to a page.
func (h *Handler) UpdatePage(w http.ResponseWriter, r *http.Request) {
	var upd service.PageUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}
	id := idParam(r)
	if err := h.deps.Pages.UpdatePage(r.Context(), middleware.GetUserID(r), id, upd); err != nil {
		writeServiceError(w, r, err, "page")
		return
	}
	h.writePage(w, r, id)
}

// UpdatePageContent replaces the description and HTML body of a page.
func (h *Handler) UpdatePageContent(w http.ResponseWriter, r *http.Request) {
	var req PageContentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := idParam(r)
	if err := h.deps.Pages.UpdatePageContent(r.Context(), middleware.GetUserID(r), id, req.Content, req.HTMLContent); err != nil {
		writeServiceError(w, r, err, "page")
		return
	}
	h.writePage(w, r, id)
}

// DeletePage removes a page.
func (h *Handler) DeletePage(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Pages.DeletePage(r.Context(), middleware.GetUserID(r), idParam(r)); err != nil {
		writeServiceError(w, r, err, "page")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ViewPage renders a page as its viewers would see it.
func (h *Handler) ViewPage(w http.ResponseWriter, r *http.Request) {
	page, err := h.deps.Pages.GetPageByID(r.Context(), idParam(r))
	if err != nil {
		writeServiceError(w, r, err, "page")
		return
	}
	writeRendered(w, r, page)
}

func (h *Handler) writePage(w http.ResponseWriter, r *http.Request, id string) {
	page, err := h.deps.Pages.GetPageByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "page")
		return
	}
	WriteSuccess(w, page, nil)
}
