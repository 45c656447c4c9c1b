// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/olegiv/devdash/internal/auth"
	"github.com/olegiv/devdash/internal/model"
)

// SeedOptions configures the initial developer account.
type SeedOptions struct {
	Username string
	Password string
	Name     string
}

// Seed creates the initial developer account when opts names one and the
// users table is empty. It reports whether an account was created.
func Seed(ctx context.Context, c *Client, opts SeedOptions) (bool, error) {
	if opts.Username == "" || opts.Password == "" {
		slog.Debug("no seed account configured, skipping seed")
		return false, nil
	}

	n, err := c.Count(ctx, (*model.User)(nil), Query{})
	if err != nil {
		return false, fmt.Errorf("counting users: %w", err)
	}
	if n > 0 {
		slog.Info("users already exist, skipping seed", "count", n)
		return false, nil
	}

	hash, err := auth.HashPassword(opts.Password)
	if err != nil {
		return false, fmt.Errorf("hashing password: %w", err)
	}

	name := opts.Name
	if name == "" {
		name = "Developer"
	}

	user := &model.User{
		Username:     opts.Username,
		PasswordHash: hash,
		Name:         name,
		Role:         model.RoleDeveloper,
		IsActive:     true,
	}
	if err := c.Insert(ctx, user); err != nil {
		return false, fmt.Errorf("creating developer account: %w", err)
	}

	slog.Info("created initial developer account", "id", user.ID, "username", user.Username)
	return true, nil
}
