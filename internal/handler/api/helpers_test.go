// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/devdash/internal/dashboard"
	"github.com/olegiv/devdash/internal/middleware"
	"github.com/olegiv/devdash/internal/model"
	"github.com/olegiv/devdash/internal/pagefile"
	"github.com/olegiv/devdash/internal/scheduler"
	"github.com/olegiv/devdash/internal/service"
	"github.com/olegiv/devdash/internal/session"
	"github.com/olegiv/devdash/internal/store"
	"github.com/olegiv/devdash/internal/testutil"
	"github.com/olegiv/devdash/internal/version"
)

const testPassword = "correct-horse"

type testEnv struct {
	t        *testing.T
	srv      *httptest.Server
	users    *service.UserService
	pages    *service.PageService
	activity *service.ActivityService
	catalog  *pagefile.Store
	boards   *dashboard.Registry

	developer model.User
	admin     model.User
	member    model.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	client := testutil.TestClient(t)
	activity := service.NewActivityService(client, "127.0.0.1")
	users := service.NewUserService(client, activity)
	pages := service.NewPageService(client, activity)
	stats := service.NewStatsService(client, activity)

	sm := session.New(nil, store.DriverSQLite, true)
	login := middleware.NewLoginProtection(middleware.LoginProtectionConfig{
		IPRateLimit: 1000,
		IPBurst:     1000,
	})
	sched := scheduler.New(testutil.TestLogger(), nil)
	require.NoError(t, sched.RegisterDefaults(login, stats, activity))

	boards := dashboard.NewRegistry(dashboard.Services{
		Users: users, Pages: pages, Activity: activity, Stats: stats,
	}, dashboard.Options{})
	catalog := pagefile.New(filepath.Join(t.TempDir(), "pages.json"))

	h := NewHandler(Deps{
		Client:     client,
		Sessions:   sm,
		Users:      users,
		Pages:      pages,
		Activity:   activity,
		Stats:      stats,
		Catalog:    catalog,
		Dashboards: boards,
		Login:      login,
		Scheduler:  sched,
		Version:    version.Info{Version: "v1.2.3", GitCommit: "abc1234"},
	})

	r := chi.NewRouter()
	r.Use(sm.LoadAndSave)
	r.Mount("/api/v1", h.Routes())
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	env := &testEnv{
		t: t, srv: srv,
		users: users, pages: pages, activity: activity,
		catalog: catalog, boards: boards,
	}
	env.developer = env.createUser(ctx, "dev", model.RoleDeveloper)
	env.admin = env.createUser(ctx, "admin", model.RoleAdmin)
	env.member = env.createUser(ctx, "member", model.RoleUser)
	return env
}

func (e *testEnv) createUser(ctx context.Context, username, role string) model.User {
	e.t.Helper()
	u, err := e.users.CreateUser(ctx, model.SystemActor, service.CreateUserInput{
		Username: username,
		Password: testPassword,
		Name:     username,
		Role:     role,
	})
	require.NoError(e.t, err)
	return u
}

// client returns an HTTP client with its own cookie jar.
func (e *testEnv) client() *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(e.t, err)
	return &http.Client{Jar: jar}
}

// loginAs returns a client signed in as username.
func (e *testEnv) loginAs(username string) *http.Client {
	e.t.Helper()
	c := e.client()
	res := e.do(c, http.MethodPost, "/auth/login", LoginRequest{Username: username, Password: testPassword})
	require.Equal(e.t, http.StatusOK, res.status, "login as %s: %s", username, res.body)
	return c
}

type result struct {
	status int
	header http.Header
	body   []byte
}

func (r result) data(t *testing.T, v any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(r.body, &env), "body: %s", r.body)
	require.NoError(t, json.Unmarshal(env.Data, v), "data: %s", env.Data)
}

func (r result) errorCode(t *testing.T) string {
	t.Helper()
	var apiErr middleware.APIError
	require.NoError(t, json.Unmarshal(r.body, &apiErr), "body: %s", r.body)
	return apiErr.Error.Code
}

func (e *testEnv) do(c *http.Client, method, path string, body any) result {
	e.t.Helper()

	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		buf, err := json.Marshal(b)
		require.NoError(e.t, err)
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, e.srv.URL+"/api/v1"+path, rd)
	require.NoError(e.t, err)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.Do(req)
	require.NoError(e.t, err)
	defer func() { _ = res.Body.Close() }()

	raw, err := io.ReadAll(res.Body)
	require.NoError(e.t, err)
	return result{status: res.StatusCode, header: res.Header, body: raw}
}
