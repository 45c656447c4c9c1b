// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Activity action tags
const (
	ActionLogin          = "login"
	ActionRegister       = "register"
	ActionUserCreate     = "user_create"
	ActionUserUpdate     = "user_update"
	ActionPasswordChange = "password_change"
	ActionStatusChange   = "status_change"
	ActionDelete         = "delete"
	ActionPageAssignment = "page_assignment"
	ActionPageCreate     = "page_create"
	ActionPageUpdate     = "page_update"
	ActionPageEdit       = "page_edit"
	ActionPageDelete     = "page_delete"
	ActionAccessDenied   = "access_denied"
	ActionSystemWarning  = "system_warning"
	ActionSystemError    = "system_error"
	ActionStatsDigest    = "stats_digest"
)

// ActivityLog is an append-only audit trail entry.
type ActivityLog struct {
	bun.BaseModel `bun:"table:activity_logs,alias:a"`

	ID        string    `bun:"id,pk" json:"id"`
	UserID    string    `bun:"user_id,notnull" json:"userId"`
	Action    string    `bun:"action,notnull" json:"action"`
	Details   string    `bun:"details,notnull" json:"details"`
	Timestamp time.Time `bun:"timestamp,notnull" json:"timestamp"`
	IPAddress string    `bun:"ip_address,notnull" json:"ipAddress,omitempty"`
}

var _ bun.BeforeAppendModelHook = (*ActivityLog)(nil)

// BeforeAppendModel assigns the identity and timestamp of new rows.
func (a *ActivityLog) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok {
		if a.ID == "" {
			a.ID = NewID()
		}
		if a.Timestamp.IsZero() {
			a.Timestamp = time.Now().UTC()
		}
	}
	return nil
}

// IsSystem returns true if the activity was not caused by a user.
func (a *ActivityLog) IsSystem() bool {
	return a.UserID == SystemActor
}
