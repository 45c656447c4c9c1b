// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"context"
	"slices"
	"time"

	"github.com/uptrace/bun"
)

// Page types
const (
	PageTypePowerBI     = "powerbi"
	PageTypeSpreadsheet = "spreadsheet"
	PageTypeHTML        = "html"
)

// PageSubTypes lists the sub-types each page type accepts.
var PageSubTypes = map[string][]string{
	PageTypePowerBI:     {"dashboard", "report", "analytics"},
	PageTypeSpreadsheet: {"report", "analytics", "data-entry"},
	PageTypeHTML:        {"custom", "widget", "form", "landing"},
}

// Page represents an embeddable content record assignable to users.
type Page struct {
	bun.BaseModel `bun:"table:pages,alias:p"`

	ID           string     `bun:"id,pk" json:"id"`
	Title        string     `bun:"title,notnull" json:"title"`
	Type         string     `bun:"type,notnull" json:"type"`
	SubType      string     `bun:"sub_type,notnull" json:"subType,omitempty"`
	Content      string     `bun:"content,notnull" json:"content"`
	EmbedURL     string     `bun:"embed_url,notnull" json:"embedUrl,omitempty"`
	HTMLContent  string     `bun:"html_content,notnull" json:"htmlContent,omitempty"`
	CreatedBy    string     `bun:"created_by,notnull" json:"createdBy"`
	IsActive     bool       `bun:"is_active,notnull" json:"isActive"`
	AllowedRoles StringList `bun:"allowed_roles,notnull" json:"allowedRoles,omitempty"`
	CreatedAt    time.Time  `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt    time.Time  `bun:"updated_at,notnull" json:"updatedAt"`
}

var _ bun.BeforeAppendModelHook = (*Page)(nil)

// BeforeAppendModel assigns the identity and timestamps of new rows.
func (p *Page) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok {
		if p.ID == "" {
			p.ID = NewID()
		}
		now := time.Now().UTC()
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = p.CreatedAt
		}
		if p.AllowedRoles == nil {
			p.AllowedRoles = StringList{}
		}
	}
	return nil
}

// AllowsRole reports whether users with role may open the page.
// An empty allow-list admits every role.
func (p *Page) AllowsRole(role string) bool {
	if len(p.AllowedRoles) == 0 {
		return true
	}
	return slices.Contains(p.AllowedRoles, role)
}

// IsEmbed returns true for pages rendered from an external embed URL.
func (p *Page) IsEmbed() bool {
	return p.Type == PageTypePowerBI || p.Type == PageTypeSpreadsheet
}

// ValidPageType reports whether t is a known page type.
func ValidPageType(t string) bool {
	_, ok := PageSubTypes[t]
	return ok
}

// ValidSubType reports whether subType is allowed for pageType.
// An empty sub-type is always allowed.
func ValidSubType(pageType, subType string) bool {
	if subType == "" {
		return true
	}
	return slices.Contains(PageSubTypes[pageType], subType)
}
