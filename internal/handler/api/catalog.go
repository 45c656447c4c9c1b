// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/olegiv/devdash/internal/pagefile"
)

// ListCatalog returns every pages.json entry.
func (h *Handler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	pages, err := h.deps.Catalog.ReadPages()
	if err != nil {
		writeServiceError(w, r, err, "catalog")
		return
	}
	WriteSuccess(w, pages, &Meta{Total: len(pages)})
}

// GetCatalogPage returns one catalog entry.
func (h *Handler) GetCatalogPage(w http.ResponseWriter, r *http.Request) {
	page, err := h.deps.Catalog.GetPage(idParam(r))
	if err != nil {
		writeServiceError(w, r, err, "catalog page")
		return
	}
	WriteSuccess(w, page, nil)
}

// CreateCatalogPage appends a catalog entry, deriving its id from the
// name when none is given.
func (h *Handler) CreateCatalogPage(w http.ResponseWriter, r *http.Request) {
	var in pagefile.PageData
	if !decodeJSON(w, r, &in) {
		return
	}
	page, err := h.deps.Catalog.AddPage(in)
	if err != nil {
		writeServiceError(w, r, err, "catalog page")
		return
	}
	WriteCreated(w, page)
}

// UpdateCatalogPage replaces the catalog entry {id}.
func (h *Handler) UpdateCatalogPage(w http.ResponseWriter, r *http.Request) {
	var in pagefile.PageData
	if !decodeJSON(w, r, &in) {
		return
	}
	in.ID = idParam(r)
	if err := h.deps.Catalog.UpdatePage(in); err != nil {
		writeServiceError(w, r, err, "catalog page")
		return
	}
	WriteSuccess(w, in, nil)
}

// DeleteCatalogPage removes the catalog entry {id}.
func (h *Handler) DeleteCatalogPage(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Catalog.DeletePage(idParam(r)); err != nil {
		writeServiceError(w, r, err, "catalog page")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
