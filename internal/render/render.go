// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render turns stored pages into safe HTML fragments for the
// content viewer.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/olegiv/devdash/internal/model"
)

// ErrInvalidEmbedURL is returned when an embed page has no usable http(s) URL.
var ErrInvalidEmbedURL = errors.New("invalid embed URL")

// MaxEmbedURLLength is the maximum accepted length of an embed URL.
const MaxEmbedURLLength = 2048

// htmlSanitizer allows safe user-generated markup and strips scripts,
// event handlers and the like.
var htmlSanitizer = bluemonday.UGCPolicy()

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

var embedTemplate = template.Must(template.New("embed").Parse(
	`<iframe class="page-embed page-embed-{{.Type}}" title="{{.Title}}" src="{{.URL}}" ` +
		`width="100%" height="600" frameborder="0" allowfullscreen ` +
		`sandbox="allow-scripts allow-same-origin allow-popups allow-forms"></iframe>`))

// SanitizeHTML strips unsafe markup from an HTML body.
func SanitizeHTML(s string) string {
	return htmlSanitizer.Sanitize(s)
}

// ValidateEmbedURL checks that raw is an absolute http(s) URL.
func ValidateEmbedURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%w: empty", ErrInvalidEmbedURL)
	}
	if len(raw) > MaxEmbedURLLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidEmbedURL, MaxEmbedURLLength)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEmbedURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https", ErrInvalidEmbedURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidEmbedURL)
	}
	return nil
}

// Markdown renders a Markdown description into sanitized HTML.
func Markdown(src string) (template.HTML, error) {
	if strings.TrimSpace(src) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return template.HTML(htmlSanitizer.Sanitize(buf.String())), nil //nolint:gosec // sanitized above
}

// View is a page prepared for display.
type View struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Type        string        `json:"type"`
	SubType     string        `json:"subType,omitempty"`
	Description template.HTML `json:"description"`
	Body        template.HTML `json:"body"`
}

// RenderPage renders p's body and description. HTML pages render their
// sanitized body; powerbi and spreadsheet pages render an iframe for a
// validated embed URL.
func RenderPage(p model.Page) (View, error) {
	v := View{ID: p.ID, Title: p.Title, Type: p.Type, SubType: p.SubType}

	desc, err := Markdown(p.Content)
	if err != nil {
		return v, err
	}
	v.Description = desc

	switch p.Type {
	case model.PageTypeHTML:
		v.Body = template.HTML(htmlSanitizer.Sanitize(p.HTMLContent)) //nolint:gosec // sanitized
	case model.PageTypePowerBI, model.PageTypeSpreadsheet:
		if err := ValidateEmbedURL(p.EmbedURL); err != nil {
			return v, err
		}
		var buf bytes.Buffer
		err := embedTemplate.Execute(&buf, struct {
			Type, Title, URL string
		}{p.Type, p.Title, strings.TrimSpace(p.EmbedURL)})
		if err != nil {
			return v, fmt.Errorf("rendering embed: %w", err)
		}
		v.Body = template.HTML(buf.String()) //nolint:gosec // produced by html/template
	default:
		return v, fmt.Errorf("unknown page type %q", p.Type)
	}

	return v, nil
}
