// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/olegiv/devdash/internal/auth"
	"github.com/olegiv/devdash/internal/model"
	"github.com/olegiv/devdash/internal/store"
)

func TestRegisterUser(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	u, err := ts.users.RegisterUser(ctx, RegisterInput{
		Username: "alice",
		Password: "x",
		Name:     "Alice",
		Phone:    "123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Empty(t, u.PasswordHash)

	users, err := ts.users.GetAllUsers(ctx)
	require.NoError(t, err)

	var matches []model.User
	for _, got := range users {
		if got.Username == "alice" {
			matches = append(matches, got)
		}
	}
	require.Len(t, matches, 1)
	assert.Equal(t, model.RoleUser, matches[0].Role)
	assert.True(t, matches[0].IsActive)
	assert.Equal(t, model.StringList{}, matches[0].AssignedPages)

	last := ts.latestActivity(t)
	assert.Equal(t, model.ActionRegister, last.Action)
	assert.Equal(t, u.ID, last.UserID)
	assert.Contains(t, last.Details, "Alice")
}

func TestRegisterUser_DuplicateUsername(t *testing.T) {
	ts := newTestServices(t)
	ts.register(t, "alice")

	_, err := ts.users.RegisterUser(context.Background(), RegisterInput{Username: "alice", Password: "pw", Name: "Other"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
	assert.Equal(t, 1, ts.countActivity(t, model.ActionRegister))
}

func TestRegisterUser_Validation(t *testing.T) {
	ts := newTestServices(t)

	tests := []struct {
		name  string
		in    RegisterInput
		field string
	}{
		{"missing username", RegisterInput{Password: "pw", Name: "A"}, "username"},
		{"short username", RegisterInput{Username: "ab", Password: "pw", Name: "A"}, "username"},
		{"bad username chars", RegisterInput{Username: "a b c", Password: "pw", Name: "A"}, "username"},
		{"missing password", RegisterInput{Username: "alice", Name: "A"}, "password"},
		{"missing name", RegisterInput{Username: "alice", Password: "pw", Name: "  "}, "name"},
		{"bad email", RegisterInput{Username: "alice", Password: "pw", Name: "A", Email: "not-an-email"}, "email"},
		{"bad phone", RegisterInput{Username: "alice", Password: "pw", Name: "A", Phone: "call me"}, "phone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.users.RegisterUser(context.Background(), tt.in)
			require.ErrorIs(t, err, ErrValidation)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Contains(t, ve.Fields, tt.field)
		})
	}
}

func TestCreateUser(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	u, err := ts.users.CreateUser(ctx, "actor-1", CreateUserInput{
		Username:      "bob",
		Password:      "pw",
		Name:          "Bob",
		Role:          model.RoleAdmin,
		IsActive:      ptr(false),
		AssignedPages: []string{"p1"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, u.Role)
	assert.False(t, u.IsActive)
	assert.Equal(t, model.StringList{"p1"}, u.AssignedPages)

	last := ts.latestActivity(t)
	assert.Equal(t, model.ActionUserCreate, last.Action)
	assert.Equal(t, "actor-1", last.UserID)
	assert.Contains(t, last.Details, "role admin")

	_, err = ts.users.CreateUser(ctx, "actor-1", CreateUserInput{Username: "carol", Password: "pw", Name: "C", Role: "root"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateUser_SystemActor(t *testing.T) {
	ts := newTestServices(t)

	_, err := ts.users.CreateUser(context.Background(), "", CreateUserInput{
		Username: "bob", Password: "pw", Name: "Bob", Role: model.RoleUser,
	})
	require.NoError(t, err)
	assert.Equal(t, model.SystemActor, ts.latestActivity(t).UserID)
}

func TestAuthenticate(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	alice := ts.register(t, "alice")

	first, err := ts.users.Authenticate(ctx, "alice", "secret-alice")
	require.NoError(t, err)
	require.NotNil(t, first.LastLogin)
	assert.Equal(t, alice.ID, first.ID)
	assert.Empty(t, first.PasswordHash)

	last := ts.latestActivity(t)
	assert.Equal(t, model.ActionLogin, last.Action)
	assert.Equal(t, alice.ID, last.UserID)
	assert.Equal(t, 1, ts.countActivity(t, model.ActionLogin))

	second, err := ts.users.Authenticate(ctx, "alice", "secret-alice")
	require.NoError(t, err)
	require.NotNil(t, second.LastLogin)
	assert.True(t, second.LastLogin.After(*first.LastLogin), "lastLogin %v not after %v", second.LastLogin, first.LastLogin)
	assert.Equal(t, 2, ts.countActivity(t, model.ActionLogin))

	stored, err := ts.users.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLogin)
	assert.True(t, stored.LastLogin.Equal(*second.LastLogin))
}

func TestAuthenticate_Failures(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	alice := ts.register(t, "alice")

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "alice", "nope"},
		{"unknown user", "mallory", "secret-alice"},
		{"empty credentials", "", ""},
		{"username case differs", "Alice", "secret-alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.users.Authenticate(ctx, tt.username, tt.password)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
	assert.Zero(t, ts.countActivity(t, model.ActionLogin))

	require.NoError(t, ts.users.UpdateUserStatus(ctx, "admin", alice.ID, false))
	_, err := ts.users.Authenticate(ctx, "alice", "secret-alice")
	assert.ErrorIs(t, err, ErrInactiveAccount)
	assert.Zero(t, ts.countActivity(t, model.ActionLogin))
}

func TestAuthenticate_UpgradesLegacyHash(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	alice := ts.register(t, "alice")

	legacy, err := bcrypt.GenerateFromPassword([]byte("legacy-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	_, err = ts.client.Update(ctx, "users", map[string]any{"password_hash": string(legacy)}, store.Eq("id", alice.ID))
	require.NoError(t, err)

	_, err = ts.users.Authenticate(ctx, "alice", "legacy-pass")
	require.NoError(t, err)

	var raw model.User
	require.NoError(t, ts.client.SelectOne(ctx, &raw, store.Query{Filters: []store.Filter{store.Eq("id", alice.ID)}}))
	assert.True(t, strings.HasPrefix(raw.PasswordHash, "$argon2id$"), "hash = %q", raw.PasswordHash)
	assert.False(t, auth.NeedsRehash(raw.PasswordHash))

	_, err = ts.users.Authenticate(ctx, "alice", "legacy-pass")
	assert.NoError(t, err)
}

func TestGetAllUsers_NeverExposesPassword(t *testing.T) {
	ts := newTestServices(t)
	ts.register(t, "alice")
	ts.register(t, "bobby")

	users, err := ts.users.GetAllUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)

	for _, u := range users {
		assert.Empty(t, u.PasswordHash)
	}

	b, err := json.Marshal(users)
	require.NoError(t, err)
	assert.NotContains(t, strings.ToLower(string(b)), "password")
	assert.NotContains(t, string(b), "argon2id")
}

func TestUpdateUser(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	alice := ts.register(t, "alice")

	err := ts.users.UpdateUser(ctx, "admin-1", alice.ID, UserUpdate{
		Name:  ptr("Alice Cooper"),
		Email: ptr("alice@example.com"),
		Role:  ptr(model.RoleAdmin),
	})
	require.NoError(t, err)

	got, err := ts.users.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Cooper", got.Name)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Equal(t, model.RoleAdmin, got.Role)
	assert.Equal(t, "123", got.Phone)

	last := ts.latestActivity(t)
	assert.Equal(t, model.ActionUserUpdate, last.Action)
	assert.Equal(t, "admin-1", last.UserID)

	assert.ErrorIs(t, ts.users.UpdateUser(ctx, "admin-1", "missing", UserUpdate{Name: ptr("x")}), ErrNotFound)
	assert.ErrorIs(t, ts.users.UpdateUser(ctx, "admin-1", alice.ID, UserUpdate{}), ErrValidation)
	assert.ErrorIs(t, ts.users.UpdateUser(ctx, "admin-1", alice.ID, UserUpdate{Role: ptr("root")}), ErrValidation)
}

func TestUpdateUser_UsernameConflict(t *testing.T) {
	ts := newTestServices(t)
	alice := ts.register(t, "alice")
	ts.register(t, "bobby")

	err := ts.users.UpdateUser(context.Background(), "admin", alice.ID, UserUpdate{Username: ptr("bobby")})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestUpdateUserPassword(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	alice := ts.register(t, "alice")

	require.NoError(t, ts.users.UpdateUserPassword(ctx, alice.ID, alice.ID, "new-secret"))
	assert.Equal(t, model.ActionPasswordChange, ts.latestActivity(t).Action)

	_, err := ts.users.Authenticate(ctx, "alice", "secret-alice")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = ts.users.Authenticate(ctx, "alice", "new-secret")
	assert.NoError(t, err)

	assert.ErrorIs(t, ts.users.UpdateUserPassword(ctx, "admin", "missing", "pw"), ErrNotFound)
	assert.ErrorIs(t, ts.users.UpdateUserPassword(ctx, "admin", alice.ID, ""), ErrValidation)
}

func TestUpdateUserStatus(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	alice := ts.register(t, "alice")

	require.NoError(t, ts.users.UpdateUserStatus(ctx, "admin-1", alice.ID, false))

	got, err := ts.users.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	last := ts.latestActivity(t)
	assert.Equal(t, model.ActionStatusChange, last.Action)
	assert.Contains(t, last.Details, "inactive")

	assert.ErrorIs(t, ts.users.UpdateUserStatus(ctx, "admin-1", "missing", true), ErrNotFound)
}

func TestAssignPagesToUser(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	alice := ts.register(t, "alice")

	require.NoError(t, ts.users.AssignPagesToUser(ctx, "admin-1", alice.ID, []string{"p1", "p2"}))

	got, err := ts.users.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StringList{"p1", "p2"}, got.AssignedPages)

	last := ts.latestActivity(t)
	assert.Equal(t, model.ActionPageAssignment, last.Action)
	assert.Contains(t, last.Details, "p1, p2")

	require.NoError(t, ts.users.AssignPagesToUser(ctx, "admin-1", alice.ID, nil))
	got, err = ts.users.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StringList{}, got.AssignedPages)

	assert.ErrorIs(t, ts.users.AssignPagesToUser(ctx, "admin-1", "missing", []string{"p1"}), ErrNotFound)
}

func TestDeleteUser(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	alice := ts.register(t, "alice")
	bob := ts.register(t, "bobby")

	require.NoError(t, ts.users.DeleteUser(ctx, "admin-1", alice.ID))

	users, err := ts.users.GetAllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, bob.ID, users[0].ID)
	assert.Equal(t, model.ActionDelete, ts.latestActivity(t).Action)

	deletes := ts.countActivity(t, model.ActionDelete)
	assert.ErrorIs(t, ts.users.DeleteUser(ctx, "admin-1", alice.ID), ErrNotFound)
	assert.Equal(t, deletes, ts.countActivity(t, model.ActionDelete))
}

func TestGetUserByPhone(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	alice := ts.register(t, "alice")

	got, err := ts.users.GetUserByPhone(ctx, "123")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
	assert.Empty(t, got.PasswordHash)

	_, err = ts.users.GetUserByPhone(ctx, "999")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = ts.users.GetUserByPhone(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)
}
