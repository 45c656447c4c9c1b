// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package dashboard

import (
	"context"

	"github.com/olegiv/devdash/internal/model"
	"github.com/olegiv/devdash/internal/service"
)

// Backend is the slice of the data-access layer the controller uses.
type Backend interface {
	GetAllUsers(ctx context.Context) ([]model.User, error)
	GetAllPages(ctx context.Context) ([]model.Page, error)
	GetActivityLogs(ctx context.Context, limit int) ([]model.ActivityLog, error)
	GetDashboardStats(ctx context.Context) (model.Stats, error)
	UpdateUserStatus(ctx context.Context, actorID, id string, active bool) error
	DeleteUser(ctx context.Context, actorID, id string) error
	DeletePage(ctx context.Context, actorID, id string) error
}

// Services adapts the service layer to Backend.
type Services struct {
	Users    *service.UserService
	Pages    *service.PageService
	Activity *service.ActivityService
	Stats    *service.StatsService
}

var _ Backend = Services{}

func (s Services) GetAllUsers(ctx context.Context) ([]model.User, error) {
	return s.Users.GetAllUsers(ctx)
}

func (s Services) GetAllPages(ctx context.Context) ([]model.Page, error) {
	return s.Pages.GetAllPages(ctx)
}

func (s Services) GetActivityLogs(ctx context.Context, limit int) ([]model.ActivityLog, error) {
	return s.Activity.GetActivityLogs(ctx, limit)
}

func (s Services) GetDashboardStats(ctx context.Context) (model.Stats, error) {
	return s.Stats.GetDashboardStats(ctx)
}

func (s Services) UpdateUserStatus(ctx context.Context, actorID, id string, active bool) error {
	return s.Users.UpdateUserStatus(ctx, actorID, id, active)
}

func (s Services) DeleteUser(ctx context.Context, actorID, id string) error {
	return s.Users.DeleteUser(ctx, actorID, id)
}

func (s Services) DeletePage(ctx context.Context, actorID, id string) error {
	return s.Pages.DeletePage(ctx, actorID, id)
}
