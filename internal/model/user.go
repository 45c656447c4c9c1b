// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the application
// including User, Page, ActivityLog and dashboard statistics.
package model

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User roles.
const (
	RoleUser      = "user"
	RoleAdmin     = "admin"
	RoleDeveloper = "developer"
)

// ValidRoles contains all valid user roles, lowest privilege first.
var ValidRoles = []string{RoleUser, RoleAdmin, RoleDeveloper}

// SystemActor is recorded as the actor of activities not caused by a user.
const SystemActor = "system"

// User represents a console account.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID            string     `bun:"id,pk" json:"id"`
	Username      string     `bun:"username,notnull" json:"username"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"` // Never expose in JSON
	Name          string     `bun:"name,notnull" json:"name"`
	Phone         string     `bun:"phone,notnull" json:"phone,omitempty"`
	Email         string     `bun:"email,notnull" json:"email,omitempty"`
	Role          string     `bun:"role,notnull" json:"role"`
	IsActive      bool       `bun:"is_active,notnull" json:"isActive"`
	AssignedPages StringList `bun:"assigned_pages,notnull" json:"assignedPages"`
	CreatedAt     time.Time  `bun:"created_at,notnull" json:"createdAt"`
	LastLogin     *time.Time `bun:"last_login" json:"lastLogin,omitempty"`
}

var _ bun.BeforeAppendModelHook = (*User)(nil)

// BeforeAppendModel assigns the identity and creation time of new rows.
func (u *User) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok {
		if u.ID == "" {
			u.ID = NewID()
		}
		if u.CreatedAt.IsZero() {
			u.CreatedAt = time.Now().UTC()
		}
		if u.AssignedPages == nil {
			u.AssignedPages = StringList{}
		}
	}
	return nil
}

// Sanitized returns a copy of the user without password material.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	if u.AssignedPages == nil {
		u.AssignedPages = StringList{}
	}
	return u
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsDeveloper returns true if the user has the developer role.
func (u *User) IsDeveloper() bool {
	return u.Role == RoleDeveloper
}

// CanManage reports whether the user may manage users and pages.
func (u *User) CanManage() bool {
	return u.IsAdmin() || u.IsDeveloper()
}

// HasPage reports whether pageID is in the user's assigned pages.
func (u *User) HasPage(pageID string) bool {
	return slices.Contains(u.AssignedPages, pageID)
}

// ValidRole reports whether role is a known role.
func ValidRole(role string) bool {
	return slices.Contains(ValidRoles, role)
}

// RoleRank orders roles by privilege starting at 1; unknown roles rank 0.
func RoleRank(role string) int {
	return slices.Index(ValidRoles, role) + 1
}

// NewID returns a new time-ordered identifier for a row.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
