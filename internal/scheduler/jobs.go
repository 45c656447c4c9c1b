// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/olegiv/devdash/internal/model"
)

// Built-in job names and schedules.
const (
	JobLoginCleanup = "login-cleanup"
	JobStatsDigest  = "stats-digest"

	LoginCleanupSchedule = "*/10 * * * *"
	StatsDigestSchedule  = "5 0 * * *"
)

// Pruner drops expired login-protection state.
type Pruner interface {
	CleanupStale() int
}

// StatsSource computes dashboard statistics.
type StatsSource interface {
	GetDashboardStats(ctx context.Context) (model.Stats, error)
}

// ActivityRecorder appends best-effort audit entries.
type ActivityRecorder interface {
	LogActivity(ctx context.Context, userID, action, details string)
}

// RegisterDefaults adds the login cleanup and daily digest jobs.
func (s *Scheduler) RegisterDefaults(login Pruner, stats StatsSource, activity ActivityRecorder) error {
	if err := s.Register(JobLoginCleanup, "Prune login rate limits and expired lockouts",
		LoginCleanupSchedule, LoginCleanupJob(login, s.logger)); err != nil {
		return err
	}
	return s.Register(JobStatsDigest, "Record a daily statistics digest in the activity log",
		StatsDigestSchedule, StatsDigestJob(stats, activity))
}

// LoginCleanupJob prunes stale login-protection entries.
func LoginCleanupJob(login Pruner, logger *slog.Logger) JobFunc {
	return func(context.Context) error {
		if n := login.CleanupStale(); n > 0 {
			logger.Info("pruned login attempts", "removed", n)
		}
		return nil
	}
}

// StatsDigestJob appends a stats_digest entry attributed to the system.
func StatsDigestJob(stats StatsSource, activity ActivityRecorder) JobFunc {
	return func(ctx context.Context) error {
		st, err := stats.GetDashboardStats(ctx)
		if err != nil {
			return fmt.Errorf("computing stats digest: %w", err)
		}
		activity.LogActivity(ctx, model.SystemActor, model.ActionStatsDigest, FormatDigest(st))
		return nil
	}
}

// FormatDigest renders stats as the digest details line.
func FormatDigest(st model.Stats) string {
	return fmt.Sprintf(
		"Users: %d (%d active), pages: %d (%d active), logins 24h: %d, logins 30d: %d, new accounts 30d: %d",
		st.TotalUsers, st.ActiveUsers, st.TotalPages, st.ActivePages,
		st.DailyTraffic, st.MonthlyTraffic, st.RecentRegistrations,
	)
}
