// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/olegiv/devdash/internal/model"
)

// Input limits.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 50
	MaxPasswordLength = 128
	MaxNameLength     = 100
	MaxTitleLength    = 200
	MaxIDLength       = 64
)

var (
	usernameRegex = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
	phoneRegex    = regexp.MustCompile(`^\+?[0-9 ()-]{1,32}$`)
	idRegex       = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

func validateUsername(fe fieldErrors, username string) {
	switch n := utf8.RuneCountInString(username); {
	case n == 0:
		fe.add("username", "Username is required")
	case n < MinUsernameLength:
		fe.add("username", "Username must be at least 3 characters")
	case n > MaxUsernameLength:
		fe.add("username", "Username must be at most 50 characters")
	case !usernameRegex.MatchString(username):
		fe.add("username", "Username may contain letters, digits, dots, underscores and hyphens")
	}
}

func validatePassword(fe fieldErrors, password string) {
	switch {
	case password == "":
		fe.add("password", "Password is required")
	case len(password) > MaxPasswordLength:
		fe.add("password", "Password must be at most 128 bytes")
	}
}

func validateName(fe fieldErrors, name string) {
	switch {
	case strings.TrimSpace(name) == "":
		fe.add("name", "Name is required")
	case utf8.RuneCountInString(name) > MaxNameLength:
		fe.add("name", "Name must be at most 100 characters")
	}
}

func validatePhone(fe fieldErrors, phone string) {
	if phone != "" && !phoneRegex.MatchString(phone) {
		fe.add("phone", "Invalid phone number")
	}
}

func validateEmail(fe fieldErrors, email string) {
	if email == "" {
		return
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		fe.add("email", "Invalid email address")
	}
}

func validateRole(fe fieldErrors, role string) {
	if !model.ValidRole(role) {
		fe.add("role", "Role must be one of user, admin, developer")
	}
}

func validateID(fe fieldErrors, field, id string) {
	if id == "" {
		return
	}
	if len(id) > MaxIDLength || !idRegex.MatchString(id) {
		fe.add(field, "Invalid identifier")
	}
}

func validatePageIDs(fe fieldErrors, ids []string) {
	for _, id := range ids {
		if id == "" {
			fe.add("assignedPages", "Page ids must not be empty")
			return
		}
		validateID(fe, "assignedPages", id)
	}
}

func validateAllowedRoles(fe fieldErrors, roles []string) {
	for _, r := range roles {
		if !model.ValidRole(r) {
			fe.add("allowedRoles", "Unknown role "+r)
			return
		}
	}
}
