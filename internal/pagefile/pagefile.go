// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package pagefile keeps a flat page catalog in a single JSON document.
// Every mutation rewrites the whole file; concurrent writers are not
// coordinated and the last one wins.
package pagefile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/olegiv/devdash/internal/render"
	"github.com/olegiv/devdash/internal/util"
)

// Catalog errors.
var (
	ErrNotFound  = errors.New("catalog page not found")
	ErrDuplicate = errors.New("catalog page id already exists")
	ErrInvalid   = errors.New("invalid catalog page")
)

// PageData is a catalog entry.
type PageData struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	PowerBIURL     string `json:"powerBIUrl,omitempty"`
	SpreadsheetURL string `json:"spreadsheetUrl,omitempty"`
	Category       string `json:"category,omitempty"`
}

func (p PageData) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	for field, u := range map[string]string{"powerBIUrl": p.PowerBIURL, "spreadsheetUrl": p.SpreadsheetURL} {
		if u == "" {
			continue
		}
		if err := render.ValidateEmbedURL(u); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, field, err)
		}
	}
	return nil
}

// Store reads and writes the catalog file at a fixed path.
type Store struct {
	path string
}

// New returns a Store for the JSON document at path.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the catalog file path.
func (s *Store) Path() string {
	return s.path
}

// ReadPages returns every entry. A missing file reads as an empty catalog.
func (s *Store) ReadPages() ([]PageData, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []PageData{}, nil
	}
	if err != nil {
		slog.Error("failed to read page catalog", "path", s.path, "error", err)
		return []PageData{}, fmt.Errorf("reading catalog: %w", err)
	}

	var pages []PageData
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := json.Unmarshal(data, &pages); err != nil {
			slog.Error("failed to parse page catalog", "path", s.path, "error", err)
			return []PageData{}, fmt.Errorf("parsing catalog: %w", err)
		}
	}
	if pages == nil {
		pages = []PageData{}
	}
	return pages, nil
}

// SavePages replaces the catalog with pages. The document is written to a
// temp file and renamed into place.
func (s *Store) SavePages(pages []PageData) error {
	if pages == nil {
		pages = []PageData{}
	}
	data, err := json.MarshalIndent(pages, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}

	if err := s.writeFile(data); err != nil {
		slog.Error("failed to write page catalog", "path", s.path, "error", err)
		return err
	}
	return nil
}

func (s *Store) writeFile(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating catalog dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".pages-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("setting catalog permissions: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing catalog: %w", err)
	}
	return nil
}

// AddPage appends p and returns it with its final id. Without an id, one
// is derived from the name, falling back to a random uuid when the slug is
// empty or taken.
func (s *Store) AddPage(p PageData) (PageData, error) {
	if err := p.validate(); err != nil {
		return PageData{}, err
	}

	pages, err := s.ReadPages()
	if err != nil {
		return PageData{}, err
	}

	taken := func(id string) bool {
		return slices.ContainsFunc(pages, func(e PageData) bool { return e.ID == id })
	}

	if p.ID == "" {
		p.ID = util.Slugify(p.Name)
		if p.ID == "" || taken(p.ID) {
			p.ID = uuid.NewString()
		}
	} else if taken(p.ID) {
		return PageData{}, fmt.Errorf("%w: %s", ErrDuplicate, p.ID)
	}

	pages = append(pages, p)
	if err := s.SavePages(pages); err != nil {
		return PageData{}, err
	}
	return p, nil
}

// GetPage returns the entry with id.
func (s *Store) GetPage(id string) (PageData, error) {
	pages, err := s.ReadPages()
	if err != nil {
		return PageData{}, err
	}
	i := slices.IndexFunc(pages, func(p PageData) bool { return p.ID == id })
	if i < 0 {
		return PageData{}, ErrNotFound
	}
	return pages[i], nil
}

// UpdatePage replaces the entry whose id matches updated.ID.
func (s *Store) UpdatePage(updated PageData) error {
	if err := updated.validate(); err != nil {
		return err
	}

	pages, err := s.ReadPages()
	if err != nil {
		return err
	}
	found := false
	for i := range pages {
		if pages[i].ID == updated.ID {
			pages[i] = updated
			found = true
		}
	}
	if !found {
		return ErrNotFound
	}
	return s.SavePages(pages)
}

// DeletePage removes the entry with id.
func (s *Store) DeletePage(id string) error {
	pages, err := s.ReadPages()
	if err != nil {
		return err
	}
	n := len(pages)
	pages = slices.DeleteFunc(pages, func(p PageData) bool { return p.ID == id })
	if len(pages) == n {
		return ErrNotFound
	}
	return s.SavePages(pages)
}
