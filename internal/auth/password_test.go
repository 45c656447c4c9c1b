// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("changeme")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=19456,t=2,p=1$") {
		t.Errorf("HashPassword = %q, want argon2id with current parameters", hash)
	}

	other, err := HashPassword("changeme")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if hash == other {
		t.Error("two hashes of the same password are equal, want distinct salts")
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("changeme")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{"correct", "changeme", true},
		{"wrong", "wrongpassword", false},
		{"empty", "", false},
		{"case differs", "Changeme", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckPassword(tt.password, hash)
			if err != nil {
				t.Fatalf("CheckPassword error: %v", err)
			}
			if got != tt.want {
				t.Errorf("CheckPassword(%q) = %v, want %v", tt.password, got, tt.want)
			}
		})
	}
}

func TestCheckPassword_StaleParameters(t *testing.T) {
	// Hash of "changeme" produced with m=65536,t=1,p=4.
	stale := "$argon2id$v=19$m=65536,t=1,p=4$mucMvOaS6lZ2LWNS1OEFKw$UYEWv8cvCOO6l2zGeqv3JPVe1nyy0x9GXBfYEuDM544"

	if _, err := CheckPassword("changeme", stale); err != nil {
		t.Fatalf("CheckPassword error: %v", err)
	}
	if !NeedsRehash(stale) {
		t.Error("NeedsRehash(stale) = false, want true")
	}
}

func TestCheckPassword_Bcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("legacy-pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	ok, err := CheckPassword("legacy-pass", string(legacy))
	if err != nil {
		t.Fatalf("CheckPassword error: %v", err)
	}
	if !ok {
		t.Error("bcrypt password rejected")
	}

	ok, err = CheckPassword("nope", string(legacy))
	if err != nil {
		t.Fatalf("CheckPassword error: %v", err)
	}
	if ok {
		t.Error("wrong password accepted for bcrypt hash")
	}

	if !NeedsRehash(string(legacy)) {
		t.Error("NeedsRehash(bcrypt) = false, want true")
	}
}

func TestCheckPassword_Malformed(t *testing.T) {
	tests := []string{
		"",
		"plaintext",
		"$argon2id$v=19$garbage",
		"$argon2i$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
	}
	for _, hash := range tests {
		if ok, err := CheckPassword("x", hash); err == nil || ok {
			t.Errorf("CheckPassword(%q) = %v, %v; want false with error", hash, ok, err)
		}
	}

	if _, err := CheckPassword("x", "plaintext"); !errors.Is(err, ErrUnknownHash) {
		t.Errorf("error = %v, want ErrUnknownHash", err)
	}
}

func TestNeedsRehash_Current(t *testing.T) {
	hash, err := HashPassword("changeme")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if NeedsRehash(hash) {
		t.Error("NeedsRehash(current) = true, want false")
	}
}
