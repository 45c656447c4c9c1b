// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service implements the console's data-access layer: accounts,
// pages, dashboard statistics and the append-only activity log.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/devdash/internal/model"
	"github.com/olegiv/devdash/internal/store"
)

// Activity log read limits.
const (
	DefaultActivityLimit = 50
	MaxActivityLimit     = 500
)

// ActivityService appends to and reads the activity log.
type ActivityService struct {
	client       *store.Client
	fallbackIP   string
	defaultLimit int
	clock        Clock
}

// NewActivityService creates an ActivityService. fallbackIP is recorded
// when the context carries no client address.
func NewActivityService(client *store.Client, fallbackIP string) *ActivityService {
	return &ActivityService{
		client:       client,
		fallbackIP:   fallbackIP,
		defaultLimit: DefaultActivityLimit,
	}
}

// SetDefaultLimit changes the number of entries returned for a zero limit.
func (s *ActivityService) SetDefaultLimit(n int) {
	if n > 0 {
		s.defaultLimit = min(n, MaxActivityLimit)
	}
}

// SetClock replaces the time source.
func (s *ActivityService) SetClock(c Clock) {
	s.clock = c
}

// Append inserts entry, filling in the actor, timestamp and origin when
// they are empty. Unlike LogActivity it reports failures to the caller
// and logs nothing.
func (s *ActivityService) Append(ctx context.Context, entry *model.ActivityLog) error {
	if entry.UserID == "" {
		entry.UserID = model.SystemActor
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.clock.stamp()
	}
	if entry.IPAddress == "" {
		entry.IPAddress = OriginFrom(ctx)
	}
	if entry.IPAddress == "" {
		entry.IPAddress = s.fallbackIP
	}
	return s.client.Insert(ctx, entry)
}

// LogActivity records an action taken by userID. An empty userID is
// recorded as the system actor. Failures are logged and never returned.
func (s *ActivityService) LogActivity(ctx context.Context, userID, action, details string) {
	entry := &model.ActivityLog{
		UserID:  userID,
		Action:  action,
		Details: details,
	}
	if err := s.Append(ctx, entry); err != nil {
		slog.Error("failed to log activity",
			"error", err,
			"user_id", entry.UserID,
			"action", action,
		)
	}
}

// GetActivityLogs returns the newest entries first. A limit <= 0 selects
// the default; limits above MaxActivityLimit are capped.
func (s *ActivityService) GetActivityLogs(ctx context.Context, limit int) ([]model.ActivityLog, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	limit = min(limit, MaxActivityLimit)

	logs := make([]model.ActivityLog, 0, limit)
	err := s.client.Select(ctx, &logs, store.Query{
		OrderBy: []string{"timestamp", "id"},
		Desc:    true,
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	return logs, nil
}

// CountActions counts entries tagged action at or after since.
// A zero since counts every entry.
func (s *ActivityService) CountActions(ctx context.Context, action string, since time.Time) (int, error) {
	n, err := s.client.Count(ctx, (*model.ActivityLog)(nil), store.Query{
		Filters:     []store.Filter{store.Eq("action", action)},
		SinceColumn: "timestamp",
		Since:       since,
	})
	if err != nil {
		return 0, fmt.Errorf("counting %s activity: %w", action, err)
	}
	return n, nil
}

// Latest returns the timestamp of the newest entry. ok is false when the
// log is empty.
func (s *ActivityService) Latest(ctx context.Context) (ts time.Time, ok bool, err error) {
	var entry model.ActivityLog
	err = s.client.SelectOne(ctx, &entry, store.Query{
		OrderBy: []string{"timestamp", "id"},
		Desc:    true,
		Columns: []string{"id", "timestamp"},
	})
	if errors.Is(err, store.ErrNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("reading latest activity: %w", err)
	}
	return entry.Timestamp, true, nil
}
