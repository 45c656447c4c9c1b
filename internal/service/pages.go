// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/olegiv/devdash/internal/model"
	"github.com/olegiv/devdash/internal/render"
	"github.com/olegiv/devdash/internal/store"
)

// PageInput holds the fields of a new page. ID is optional; the store
// assigns one when it is empty.
type PageInput struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Type         string   `json:"type"`
	SubType      string   `json:"subType"`
	Content      string   `json:"content"`
	EmbedURL     string   `json:"embedUrl"`
	HTMLContent  string   `json:"htmlContent"`
	IsActive     *bool    `json:"isActive"`
	AllowedRoles []string `json:"allowedRoles"`
}

// PageUpdate is a partial page update. Nil fields are left unchanged.
type PageUpdate struct {
	Title        *string   `json:"title"`
	Type         *string   `json:"type"`
	SubType      *string   `json:"subType"`
	Content      *string   `json:"content"`
	EmbedURL     *string   `json:"embedUrl"`
	HTMLContent  *string   `json:"htmlContent"`
	IsActive     *bool     `json:"isActive"`
	AllowedRoles *[]string `json:"allowedRoles"`
}

// PageService manages content pages.
type PageService struct {
	client   *store.Client
	activity *ActivityService
	clock    Clock
}

// NewPageService creates a PageService.
func NewPageService(client *store.Client, activity *ActivityService) *PageService {
	return &PageService{client: client, activity: activity}
}

// SetClock replaces the time source.
func (s *PageService) SetClock(c Clock) {
	s.clock = c
}

// SubTypes returns the sub-types accepted for each page type.
func (s *PageService) SubTypes() map[string][]string {
	out := make(map[string][]string, len(model.PageSubTypes))
	for k, v := range model.PageSubTypes {
		out[k] = slices.Clone(v)
	}
	return out
}

func validatePage(fe fieldErrors, title, pageType, subType, embedURL string, roles []string) {
	switch {
	case strings.TrimSpace(title) == "":
		fe.add("title", "Title is required")
	case utf8.RuneCountInString(title) > MaxTitleLength:
		fe.add("title", "Title must be at most 200 characters")
	}

	if !model.ValidPageType(pageType) {
		fe.add("type", "Type must be one of powerbi, spreadsheet, html")
	} else if !model.ValidSubType(pageType, subType) {
		fe.add("subType", fmt.Sprintf("Sub-type %q is not allowed for %s pages", subType, pageType))
	}

	if pageType == model.PageTypePowerBI || pageType == model.PageTypeSpreadsheet {
		if err := render.ValidateEmbedURL(embedURL); err != nil {
			fe.add("embedUrl", "A valid http(s) embed URL is required")
		}
	}

	validateAllowedRoles(fe, roles)
}

// CreatePage validates and stores a new page. HTML bodies are sanitized
// before they are stored.
func (s *PageService) CreatePage(ctx context.Context, actorID string, in PageInput) (model.Page, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.EmbedURL = strings.TrimSpace(in.EmbedURL)

	fe := fieldErrors{}
	validateID(fe, "id", in.ID)
	validatePage(fe, in.Title, in.Type, in.SubType, in.EmbedURL, in.AllowedRoles)
	if err := fe.err(); err != nil {
		return model.Page{}, err
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	roles := model.StringList{}
	if in.AllowedRoles != nil {
		roles = in.AllowedRoles
	}
	if actorID == "" {
		actorID = model.SystemActor
	}

	now := s.clock.stamp()
	p := &model.Page{
		ID:           in.ID,
		Title:        in.Title,
		Type:         in.Type,
		SubType:      in.SubType,
		Content:      in.Content,
		EmbedURL:     in.EmbedURL,
		HTMLContent:  render.SanitizeHTML(in.HTMLContent),
		CreatedBy:    actorID,
		IsActive:     active,
		AllowedRoles: roles,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.client.Insert(ctx, p); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return model.Page{}, &ValidationError{Fields: map[string]string{"id": "Page id already exists"}}
		}
		return model.Page{}, fmt.Errorf("creating page: %w", err)
	}

	s.activity.LogActivity(ctx, actorID, model.ActionPageCreate, fmt.Sprintf("Created page: %s", p.Title))
	return *p, nil
}

// UpdatePage applies a partial update to page id and stamps a fresh
// updatedAt strictly later than the previous one.
func (s *PageService) UpdatePage(ctx context.Context, actorID, id string, upd PageUpdate) error {
	cur, err := s.GetPageByID(ctx, id)
	if err != nil {
		return err
	}

	merged := cur
	values := map[string]any{}
	if upd.Title != nil {
		merged.Title = strings.TrimSpace(*upd.Title)
		values["title"] = merged.Title
	}
	if upd.Type != nil {
		merged.Type = *upd.Type
		values["type"] = merged.Type
	}
	if upd.SubType != nil {
		merged.SubType = *upd.SubType
		values["sub_type"] = merged.SubType
	}
	if upd.Content != nil {
		values["content"] = *upd.Content
	}
	if upd.EmbedURL != nil {
		merged.EmbedURL = strings.TrimSpace(*upd.EmbedURL)
		values["embed_url"] = merged.EmbedURL
	}
	if upd.HTMLContent != nil {
		values["html_content"] = render.SanitizeHTML(*upd.HTMLContent)
	}
	if upd.IsActive != nil {
		values["is_active"] = *upd.IsActive
	}
	if upd.AllowedRoles != nil {
		merged.AllowedRoles = *upd.AllowedRoles
		values["allowed_roles"] = model.StringList(*upd.AllowedRoles)
	}

	fe := fieldErrors{}
	if len(values) == 0 {
		fe.add("update", "No fields to update")
	}
	validatePage(fe, merged.Title, merged.Type, merged.SubType, merged.EmbedURL, merged.AllowedRoles)
	if err := fe.err(); err != nil {
		return err
	}

	values["updated_at"] = s.clock.after(cur.UpdatedAt)
	if err := s.updateByID(ctx, id, values); err != nil {
		return err
	}

	s.activity.LogActivity(ctx, actorID, model.ActionPageUpdate, fmt.Sprintf("Updated page ID: %s", id))
	return nil
}

// UpdatePageContent saves the description and HTML body of page id from
// the content editor.
func (s *PageService) UpdatePageContent(ctx context.Context, actorID, id, content, htmlContent string) error {
	cur, err := s.GetPageByID(ctx, id)
	if err != nil {
		return err
	}

	values := map[string]any{
		"content":      content,
		"html_content": render.SanitizeHTML(htmlContent),
		"updated_at":   s.clock.after(cur.UpdatedAt),
	}
	if err := s.updateByID(ctx, id, values); err != nil {
		return err
	}

	s.activity.LogActivity(ctx, actorID, model.ActionPageEdit, fmt.Sprintf("Edited content of page: %s", cur.Title))
	return nil
}

// DeletePage removes page id. The activity entry names the page title, or
// the raw id when the title could not be read first.
func (s *PageService) DeletePage(ctx context.Context, actorID, id string) error {
	label := id
	if p, err := s.GetPageByID(ctx, id); err == nil {
		label = p.Title
	}

	n, err := s.client.Delete(ctx, (*model.Page)(nil), store.Eq("id", id))
	if err != nil {
		return fmt.Errorf("deleting page: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	s.activity.LogActivity(ctx, actorID, model.ActionPageDelete, fmt.Sprintf("Deleted page: %s", label))
	return nil
}

func (s *PageService) updateByID(ctx context.Context, id string, values map[string]any) error {
	n, err := s.client.Update(ctx, "pages", values, store.Eq("id", id))
	if err != nil {
		return fmt.Errorf("updating page: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetAllPages returns every page, oldest first.
func (s *PageService) GetAllPages(ctx context.Context) ([]model.Page, error) {
	var pages []model.Page
	if err := s.client.Select(ctx, &pages, store.Query{OrderBy: []string{"created_at", "id"}}); err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	if pages == nil {
		pages = []model.Page{}
	}
	return pages, nil
}

// GetPageByID returns page id or ErrNotFound.
func (s *PageService) GetPageByID(ctx context.Context, id string) (model.Page, error) {
	var p model.Page
	if err := s.client.SelectOne(ctx, &p, store.Query{Filters: []store.Filter{store.Eq("id", id)}}); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Page{}, ErrNotFound
		}
		return model.Page{}, fmt.Errorf("getting page: %w", err)
	}
	return p, nil
}

// canView reports whether u may open p. Admins and developers see every
// page; users see active pages assigned to them or whose allow-list names
// their role.
func canView(u model.User, p model.Page) bool {
	if u.CanManage() {
		return true
	}
	if !p.IsActive {
		return false
	}
	return u.HasPage(p.ID) || (len(p.AllowedRoles) > 0 && p.AllowsRole(u.Role))
}

// GetPagesForUser returns the pages u may open.
func (s *PageService) GetPagesForUser(ctx context.Context, u model.User) ([]model.Page, error) {
	all, err := s.GetAllPages(ctx)
	if err != nil {
		return nil, err
	}
	visible := make([]model.Page, 0, len(all))
	for _, p := range all {
		if canView(u, p) {
			visible = append(visible, p)
		}
	}
	return visible, nil
}

// GetPageForUser returns page id if u may open it, ErrNotFound otherwise.
func (s *PageService) GetPageForUser(ctx context.Context, u model.User, id string) (model.Page, error) {
	p, err := s.GetPageByID(ctx, id)
	if err != nil {
		return model.Page{}, err
	}
	if !canView(u, p) {
		return model.Page{}, ErrNotFound
	}
	return p, nil
}
