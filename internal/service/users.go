// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/devdash/internal/auth"
	"github.com/olegiv/devdash/internal/model"
	"github.com/olegiv/devdash/internal/store"
)

// RegisterInput holds self-registration fields.
type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

// CreateUserInput holds the fields of an account created by an operator.
type CreateUserInput struct {
	Username      string   `json:"username"`
	Password      string   `json:"password"`
	Name          string   `json:"name"`
	Phone         string   `json:"phone"`
	Email         string   `json:"email"`
	Role          string   `json:"role"`
	IsActive      *bool    `json:"isActive"`
	AssignedPages []string `json:"assignedPages"`
}

// UserUpdate is a partial profile update. Nil fields are left unchanged.
type UserUpdate struct {
	Username      *string   `json:"username"`
	Name          *string   `json:"name"`
	Phone         *string   `json:"phone"`
	Email         *string   `json:"email"`
	Role          *string   `json:"role"`
	IsActive      *bool     `json:"isActive"`
	AssignedPages *[]string `json:"assignedPages"`
}

// UserService manages console accounts.
type UserService struct {
	client   *store.Client
	activity *ActivityService
	clock    Clock
}

// NewUserService creates a UserService.
func NewUserService(client *store.Client, activity *ActivityService) *UserService {
	return &UserService{client: client, activity: activity}
}

// SetClock replaces the time source.
func (s *UserService) SetClock(c Clock) {
	s.clock = c
}

// Authenticate verifies username and password. Unknown users and wrong
// passwords both yield ErrInvalidCredentials and record nothing. On success
// the last login time moves forward, outdated hashes are upgraded and a
// login activity is recorded for the user.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (model.User, error) {
	var u model.User
	err := s.client.SelectOne(ctx, &u, store.Query{Filters: []store.Filter{store.Eq("username", username)}})
	if errors.Is(err, store.ErrNotFound) {
		auth.BurnCycles(password)
		return model.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.User{}, fmt.Errorf("looking up user: %w", err)
	}

	ok, err := auth.CheckPassword(password, u.PasswordHash)
	if err != nil {
		slog.Warn("stored password hash cannot be verified", "user_id", u.ID, "error", err)
		return model.User{}, ErrInvalidCredentials
	}
	if !ok {
		return model.User{}, ErrInvalidCredentials
	}
	if !u.IsActive {
		return model.User{}, ErrInactiveAccount
	}

	var prev time.Time
	if u.LastLogin != nil {
		prev = *u.LastLogin
	}
	now := s.clock.after(prev)
	values := map[string]any{"last_login": now}

	if auth.NeedsRehash(u.PasswordHash) {
		if hash, err := auth.HashPassword(password); err == nil {
			values["password_hash"] = hash
		} else {
			slog.Warn("failed to upgrade password hash", "user_id", u.ID, "error", err)
		}
	}

	n, err := s.client.Update(ctx, "users", values, store.Eq("id", u.ID))
	if err != nil {
		return model.User{}, fmt.Errorf("recording login: %w", err)
	}
	if n == 0 {
		return model.User{}, ErrInvalidCredentials
	}
	u.LastLogin = &now

	s.activity.LogActivity(ctx, u.ID, model.ActionLogin, fmt.Sprintf("%s logged in", u.Name))

	return u.Sanitized(), nil
}

// RegisterUser creates an active account with the user role and no pages.
// The register activity is attributed to the new account.
func (s *UserService) RegisterUser(ctx context.Context, in RegisterInput) (model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Name = strings.TrimSpace(in.Name)

	fe := fieldErrors{}
	validateUsername(fe, in.Username)
	validatePassword(fe, in.Password)
	validateName(fe, in.Name)
	validatePhone(fe, in.Phone)
	validateEmail(fe, in.Email)
	if err := fe.err(); err != nil {
		return model.User{}, err
	}

	u, err := s.insert(ctx, &model.User{
		Username:      in.Username,
		Name:          in.Name,
		Phone:         in.Phone,
		Email:         in.Email,
		Role:          model.RoleUser,
		IsActive:      true,
		AssignedPages: model.StringList{},
	}, in.Password)
	if err != nil {
		return model.User{}, err
	}

	s.activity.LogActivity(ctx, u.ID, model.ActionRegister, fmt.Sprintf("New user %s registered", u.Name))
	return u, nil
}

// CreateUser creates an account with a caller-chosen role. Accounts are
// active unless IsActive is explicitly false.
func (s *UserService) CreateUser(ctx context.Context, actorID string, in CreateUserInput) (model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Name = strings.TrimSpace(in.Name)

	fe := fieldErrors{}
	validateUsername(fe, in.Username)
	validatePassword(fe, in.Password)
	validateName(fe, in.Name)
	validatePhone(fe, in.Phone)
	validateEmail(fe, in.Email)
	validateRole(fe, in.Role)
	validatePageIDs(fe, in.AssignedPages)
	if err := fe.err(); err != nil {
		return model.User{}, err
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	pages := model.StringList{}
	if in.AssignedPages != nil {
		pages = model.StringList(in.AssignedPages)
	}

	u, err := s.insert(ctx, &model.User{
		Username:      in.Username,
		Name:          in.Name,
		Phone:         in.Phone,
		Email:         in.Email,
		Role:          in.Role,
		IsActive:      active,
		AssignedPages: pages,
	}, in.Password)
	if err != nil {
		return model.User{}, err
	}

	s.activity.LogActivity(ctx, actorID, model.ActionUserCreate,
		fmt.Sprintf("New user %s created with role %s", u.Name, u.Role))
	return u, nil
}

func (s *UserService) insert(ctx context.Context, u *model.User, password string) (model.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return model.User{}, fmt.Errorf("hashing password: %w", err)
	}
	u.PasswordHash = hash
	u.CreatedAt = s.clock.stamp()

	if err := s.client.Insert(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return model.User{}, ErrUsernameTaken
		}
		return model.User{}, fmt.Errorf("creating user: %w", err)
	}
	return u.Sanitized(), nil
}

// UpdateUser applies a partial profile update to user id.
func (s *UserService) UpdateUser(ctx context.Context, actorID, id string, upd UserUpdate) error {
	fe := fieldErrors{}
	values := map[string]any{}

	if upd.Username != nil {
		username := strings.TrimSpace(*upd.Username)
		validateUsername(fe, username)
		values["username"] = username
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		validateName(fe, name)
		values["name"] = name
	}
	if upd.Phone != nil {
		validatePhone(fe, *upd.Phone)
		values["phone"] = *upd.Phone
	}
	if upd.Email != nil {
		validateEmail(fe, *upd.Email)
		values["email"] = *upd.Email
	}
	if upd.Role != nil {
		validateRole(fe, *upd.Role)
		values["role"] = *upd.Role
	}
	if upd.IsActive != nil {
		values["is_active"] = *upd.IsActive
	}
	if upd.AssignedPages != nil {
		validatePageIDs(fe, *upd.AssignedPages)
		values["assigned_pages"] = model.StringList(*upd.AssignedPages)
	}
	if len(values) == 0 {
		fe.add("update", "No fields to update")
	}
	if err := fe.err(); err != nil {
		return err
	}

	if err := s.updateByID(ctx, id, values); err != nil {
		return err
	}

	s.activity.LogActivity(ctx, actorID, model.ActionUserUpdate, fmt.Sprintf("User data updated for user ID %s", id))
	return nil
}

// UpdateUserPassword replaces the password of user id.
func (s *UserService) UpdateUserPassword(ctx context.Context, actorID, id, password string) error {
	fe := fieldErrors{}
	validatePassword(fe, password)
	if err := fe.err(); err != nil {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := s.updateByID(ctx, id, map[string]any{"password_hash": hash}); err != nil {
		return err
	}

	s.activity.LogActivity(ctx, actorID, model.ActionPasswordChange, fmt.Sprintf("Password changed for user ID %s", id))
	return nil
}

// UpdateUserStatus activates or deactivates user id.
func (s *UserService) UpdateUserStatus(ctx context.Context, actorID, id string, active bool) error {
	if err := s.updateByID(ctx, id, map[string]any{"is_active": active}); err != nil {
		return err
	}

	status := "inactive"
	if active {
		status = "active"
	}
	s.activity.LogActivity(ctx, actorID, model.ActionStatusChange,
		fmt.Sprintf("User %s status changed to %s", id, status))
	return nil
}

// AssignPagesToUser replaces the page assignments of user id.
func (s *UserService) AssignPagesToUser(ctx context.Context, actorID, id string, pageIDs []string) error {
	fe := fieldErrors{}
	validatePageIDs(fe, pageIDs)
	if err := fe.err(); err != nil {
		return err
	}
	if pageIDs == nil {
		pageIDs = []string{}
	}

	if err := s.updateByID(ctx, id, map[string]any{"assigned_pages": model.StringList(pageIDs)}); err != nil {
		return err
	}

	s.activity.LogActivity(ctx, actorID, model.ActionPageAssignment,
		fmt.Sprintf("Pages assigned to user ID %s: %s", id, strings.Join(pageIDs, ", ")))
	return nil
}

// DeleteUser removes user id. Deleting a missing user returns ErrNotFound.
func (s *UserService) DeleteUser(ctx context.Context, actorID, id string) error {
	n, err := s.client.Delete(ctx, (*model.User)(nil), store.Eq("id", id))
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	s.activity.LogActivity(ctx, actorID, model.ActionDelete, fmt.Sprintf("User %s deleted", id))
	return nil
}

func (s *UserService) updateByID(ctx context.Context, id string, values map[string]any) error {
	n, err := s.client.Update(ctx, "users", values, store.Eq("id", id))
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return ErrUsernameTaken
		}
		return fmt.Errorf("updating user: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetAllUsers returns every account, oldest first, without password material.
func (s *UserService) GetAllUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := s.client.Select(ctx, &users, store.Query{OrderBy: []string{"created_at", "id"}})
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	out := make([]model.User, len(users))
	for i, u := range users {
		out[i] = u.Sanitized()
	}
	return out, nil
}

// GetUserByID returns user id without password material.
func (s *UserService) GetUserByID(ctx context.Context, id string) (model.User, error) {
	return s.getOne(ctx, store.Eq("id", id))
}

// GetUserByPhone returns the first user with phone, without password material.
func (s *UserService) GetUserByPhone(ctx context.Context, phone string) (model.User, error) {
	if phone == "" {
		return model.User{}, ErrNotFound
	}
	return s.getOne(ctx, store.Eq("phone", phone))
}

func (s *UserService) getOne(ctx context.Context, filter store.Filter) (model.User, error) {
	var u model.User
	if err := s.client.SelectOne(ctx, &u, store.Query{Filters: []store.Filter{filter}}); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("getting user: %w", err)
	}
	return u.Sanitized(), nil
}
