// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/devdash/internal/model"
)

func TestGetDashboardStats_Empty(t *testing.T) {
	ts := newTestServices(t)

	st, err := ts.stats.GetDashboardStats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, st.TotalUsers)
	assert.Zero(t, st.DailyTraffic)
	assert.False(t, st.LastActivity.IsZero(), "empty log reports now")
}

func TestGetDashboardStats(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	alice := ts.register(t, "alice")
	ts.register(t, "bobby")
	_, err := ts.users.CreateUser(ctx, "admin", CreateUserInput{Username: "carol", Password: "pw", Name: "Carol", Role: model.RoleAdmin})
	require.NoError(t, err)
	require.NoError(t, ts.users.UpdateUserStatus(ctx, "admin", alice.ID, false))

	_, err = ts.pages.CreatePage(ctx, "dev", salesPage())
	require.NoError(t, err)
	_, err = ts.pages.CreatePage(ctx, "dev", PageInput{Title: "Off", Type: model.PageTypeHTML, IsActive: ptr(false)})
	require.NoError(t, err)

	_, err = ts.users.Authenticate(ctx, "bobby", "secret-bobby")
	require.NoError(t, err)
	// A login older than a day counts toward monthly traffic only.
	require.NoError(t, ts.activity.Append(ctx, &model.ActivityLog{
		UserID: "u-old", Action: model.ActionLogin, Timestamp: testEpoch.Add(-3 * 24 * time.Hour),
	}))
	// Older than the monthly window.
	require.NoError(t, ts.activity.Append(ctx, &model.ActivityLog{
		UserID: "u-older", Action: model.ActionRegister, Timestamp: testEpoch.Add(-60 * 24 * time.Hour),
	}))

	st, err := ts.stats.GetDashboardStats(ctx)
	require.NoError(t, err)

	users, err := ts.users.GetAllUsers(ctx)
	require.NoError(t, err)

	assert.Equal(t, len(users), st.TotalUsers)
	assert.Equal(t, 3, st.TotalUsers)
	assert.Equal(t, 2, st.ActiveUsers)
	assert.Equal(t, 2, st.TotalPages)
	assert.Equal(t, 1, st.ActivePages)
	assert.Equal(t, 1, st.DailyTraffic)
	assert.Equal(t, 2, st.MonthlyTraffic)
	assert.Equal(t, 3, st.RecentRegistrations)

	latest := ts.latestActivity(t)
	assert.True(t, st.LastActivity.Equal(latest.Timestamp))
}
