// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/olegiv/devdash/internal/model"
	"github.com/olegiv/devdash/internal/store"
)

// Traffic windows.
const (
	DailyWindow   = 24 * time.Hour
	MonthlyWindow = 30 * 24 * time.Hour
)

// StatsService computes dashboard statistics.
type StatsService struct {
	client   *store.Client
	activity *ActivityService
	clock    Clock
}

// NewStatsService creates a StatsService.
func NewStatsService(client *store.Client, activity *ActivityService) *StatsService {
	return &StatsService{client: client, activity: activity}
}

// SetClock replaces the time source.
func (s *StatsService) SetClock(c Clock) {
	s.clock = c
}

// GetDashboardStats counts users and pages and aggregates traffic from the
// activity log: logins in the last day and month, and registrations plus
// operator-created accounts in the last month.
func (s *StatsService) GetDashboardStats(ctx context.Context) (model.Stats, error) {
	var st model.Stats
	var err error

	active := store.Query{Filters: []store.Filter{store.Eq("is_active", true)}}

	if st.TotalUsers, err = s.client.Count(ctx, (*model.User)(nil), store.Query{}); err != nil {
		return model.Stats{}, fmt.Errorf("counting users: %w", err)
	}
	if st.ActiveUsers, err = s.client.Count(ctx, (*model.User)(nil), active); err != nil {
		return model.Stats{}, fmt.Errorf("counting active users: %w", err)
	}
	if st.TotalPages, err = s.client.Count(ctx, (*model.Page)(nil), store.Query{}); err != nil {
		return model.Stats{}, fmt.Errorf("counting pages: %w", err)
	}
	if st.ActivePages, err = s.client.Count(ctx, (*model.Page)(nil), active); err != nil {
		return model.Stats{}, fmt.Errorf("counting active pages: %w", err)
	}

	now := s.clock.stamp()
	if st.DailyTraffic, err = s.activity.CountActions(ctx, model.ActionLogin, now.Add(-DailyWindow)); err != nil {
		return model.Stats{}, err
	}
	if st.MonthlyTraffic, err = s.activity.CountActions(ctx, model.ActionLogin, now.Add(-MonthlyWindow)); err != nil {
		return model.Stats{}, err
	}
	for _, action := range []string{model.ActionRegister, model.ActionUserCreate} {
		n, err := s.activity.CountActions(ctx, action, now.Add(-MonthlyWindow))
		if err != nil {
			return model.Stats{}, err
		}
		st.RecentRegistrations += n
	}

	latest, ok, err := s.activity.Latest(ctx)
	if err != nil {
		return model.Stats{}, err
	}
	st.LastActivity = now
	if ok {
		st.LastActivity = latest
	}

	return st, nil
}
