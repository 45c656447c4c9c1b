// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package dashboard

// View names a dashboard screen.
type View string

// Dashboard views.
const (
	ViewDashboard    View = "dashboard"
	ViewUsers        View = "users"
	ViewPages        View = "pages"
	ViewUserPages    View = "user-pages"
	ViewEditor       View = "editor"
	ViewUserDetail   View = "user-detail"
	ViewPageDetail   View = "page-detail"
	ViewPageView     View = "page-view"
	ViewPageEdit     View = "page-edit"
	ViewUserPageView View = "user-page-view"
	ViewUserPageEdit View = "user-page-edit"
)

type viewNeeds struct {
	user bool
	page bool
}

var views = map[View]viewNeeds{
	ViewDashboard:    {},
	ViewUsers:        {},
	ViewPages:        {},
	ViewUserPages:    {},
	ViewEditor:       {},
	ViewUserDetail:   {user: true},
	ViewPageDetail:   {page: true},
	ViewPageView:     {page: true},
	ViewPageEdit:     {page: true},
	ViewUserPageView: {user: true, page: true},
	ViewUserPageEdit: {user: true, page: true},
}

// Valid reports whether v is a known view.
func (v View) Valid() bool {
	_, ok := views[v]
	return ok
}

// NeedsUser reports whether v shows a selected user.
func (v View) NeedsUser() bool {
	return views[v].user
}

// NeedsPage reports whether v shows a selected page.
func (v View) NeedsPage() bool {
	return views[v].page
}
