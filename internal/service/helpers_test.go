// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/olegiv/devdash/internal/model"
	"github.com/olegiv/devdash/internal/store"
	"github.com/olegiv/devdash/internal/testutil"
)

var testEpoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type testServices struct {
	client   *store.Client
	activity *ActivityService
	users    *UserService
	pages    *PageService
	stats    *StatsService
}

// newTestServices wires every service to a fresh database and a shared
// clock that advances one second per reading.
func newTestServices(t *testing.T) *testServices {
	t.Helper()

	client := testutil.TestClient(t)
	clock := Clock(testutil.StepClock(testEpoch, time.Second))

	activity := NewActivityService(client, "127.0.0.1")
	activity.SetClock(clock)
	users := NewUserService(client, activity)
	users.SetClock(clock)
	pages := NewPageService(client, activity)
	pages.SetClock(clock)
	stats := NewStatsService(client, activity)
	stats.SetClock(clock)

	return &testServices{client: client, activity: activity, users: users, pages: pages, stats: stats}
}

func (ts *testServices) register(t *testing.T, username string) model.User {
	t.Helper()
	u, err := ts.users.RegisterUser(context.Background(), RegisterInput{
		Username: username,
		Password: "secret-" + username,
		Name:     username,
		Phone:    "123",
	})
	require.NoError(t, err)
	return u
}

func (ts *testServices) latestActivity(t *testing.T) model.ActivityLog {
	t.Helper()
	logs, err := ts.activity.GetActivityLogs(context.Background(), 1)
	require.NoError(t, err)
	require.NotEmpty(t, logs, "activity log is empty")
	return logs[0]
}

func (ts *testServices) countActivity(t *testing.T, action string) int {
	t.Helper()
	n, err := ts.activity.CountActions(context.Background(), action, time.Time{})
	require.NoError(t, err)
	return n
}

func ptr[T any](v T) *T {
	return &v
}
