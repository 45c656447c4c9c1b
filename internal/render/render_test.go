// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"errors"
	"strings"
	"testing"

	"github.com/olegiv/devdash/internal/model"
)

func TestSanitizeHTML(t *testing.T) {
	got := SanitizeHTML(`<p onclick="x()">Hi</p><script>alert(1)</script>`)
	if strings.Contains(got, "script") || strings.Contains(got, "onclick") {
		t.Errorf("SanitizeHTML kept unsafe markup: %q", got)
	}
	if !strings.Contains(got, "<p>Hi</p>") {
		t.Errorf("SanitizeHTML = %q, want paragraph kept", got)
	}
}

func TestValidateEmbedURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://app.powerbi.com/view?r=abc", false},
		{"http://docs.google.com/spreadsheets/d/1", false},
		{"  https://example.com/x  ", false},
		{"", true},
		{"javascript:alert(1)", true},
		{"ftp://example.com/file", true},
		{"/relative/path", true},
		{"https://" + strings.Repeat("a", MaxEmbedURLLength), true},
	}

	for _, tt := range tests {
		err := ValidateEmbedURL(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateEmbedURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidEmbedURL) {
			t.Errorf("ValidateEmbedURL(%q) error = %v, want ErrInvalidEmbedURL", tt.url, err)
		}
	}
}

func TestRenderPage_HTML(t *testing.T) {
	v, err := RenderPage(model.Page{
		ID:          "p1",
		Title:       "Widget",
		Type:        model.PageTypeHTML,
		Content:     "Quarterly **numbers**",
		HTMLContent: `<div>ok</div><img src=x onerror="steal()">`,
	})
	if err != nil {
		t.Fatalf("RenderPage: %v", err)
	}
	if strings.Contains(string(v.Body), "onerror") {
		t.Errorf("Body kept event handler: %q", v.Body)
	}
	if !strings.Contains(string(v.Body), "<div>ok</div>") {
		t.Errorf("Body = %q, want div kept", v.Body)
	}
	if !strings.Contains(string(v.Description), "<strong>numbers</strong>") {
		t.Errorf("Description = %q, want rendered markdown", v.Description)
	}
}

func TestRenderPage_Embed(t *testing.T) {
	v, err := RenderPage(model.Page{
		ID:       "p2",
		Title:    `Sales "Q1"`,
		Type:     model.PageTypePowerBI,
		EmbedURL: "https://app.powerbi.com/view?r=abc&x=1",
	})
	if err != nil {
		t.Fatalf("RenderPage: %v", err)
	}
	body := string(v.Body)
	if !strings.HasPrefix(body, "<iframe") {
		t.Errorf("Body = %q, want iframe", body)
	}
	if !strings.Contains(body, `src="https://app.powerbi.com/view?r=abc&amp;x=1"`) {
		t.Errorf("Body = %q, want escaped src", body)
	}
	if strings.Contains(body, `"Q1"`) {
		t.Errorf("Body = %q, want title escaped", body)
	}
}

func TestRenderPage_Errors(t *testing.T) {
	if _, err := RenderPage(model.Page{Type: model.PageTypeSpreadsheet, EmbedURL: "javascript:alert(1)"}); !errors.Is(err, ErrInvalidEmbedURL) {
		t.Errorf("error = %v, want ErrInvalidEmbedURL", err)
	}
	if _, err := RenderPage(model.Page{Type: "pdf"}); err == nil {
		t.Error("unknown type error = nil, want error")
	}
}

func TestMarkdown_Empty(t *testing.T) {
	got, err := Markdown("   ")
	if err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	if got != "" {
		t.Errorf("Markdown(blank) = %q, want empty", got)
	}
}
