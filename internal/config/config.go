// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the console configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains example secrets that must never be used.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DatabaseURL   string `env:"DEVDASH_DATABASE_URL,required"`
	SessionSecret string `env:"DEVDASH_SESSION_SECRET,required"`
	ServerHost    string `env:"DEVDASH_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"DEVDASH_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"DEVDASH_ENV" envDefault:"development"`
	LogLevel      string `env:"DEVDASH_LOG_LEVEL" envDefault:"info"`

	// File-backed page catalog
	CatalogPath string `env:"DEVDASH_CATALOG_PATH" envDefault:"./data/pages.json"`

	// Activity and dashboard
	ActivityLimit   int           `env:"DEVDASH_ACTIVITY_LIMIT" envDefault:"50"`
	DashboardWindow int           `env:"DEVDASH_DASHBOARD_WINDOW" envDefault:"20"`
	ReloadTimeout   time.Duration `env:"DEVDASH_RELOAD_TIMEOUT" envDefault:"10s"`
	OriginFallback  string        `env:"DEVDASH_ORIGIN_FALLBACK" envDefault:"127.0.0.1"`

	// Initial developer account, created only on an empty users table
	SeedUsername string `env:"DEVDASH_SEED_USERNAME"`
	SeedPassword string `env:"DEVDASH_SEED_PASSWORD"`
	SeedName     string `env:"DEVDASH_SEED_NAME" envDefault:"Developer"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return net.JoinHostPort(c.ServerHost, fmt.Sprint(c.ServerPort))
}

// SeedEnabled returns true if an initial developer account is configured.
func (c Config) SeedEnabled() bool {
	return c.SeedUsername != "" && c.SeedPassword != ""
}

// Driver returns the database driver selected by DatabaseURL.
func (c Config) Driver() string {
	driver, _ := parseDatabaseURL(c.DatabaseURL)
	return driver
}

// DSN returns the driver-specific data source name from DatabaseURL.
func (c Config) DSN() string {
	_, dsn := parseDatabaseURL(c.DatabaseURL)
	return dsn
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// parseDatabaseURL splits a database URL into driver and DSN.
// postgres:// and postgresql:// select Postgres and are passed through;
// sqlite: and file: prefixes are stripped; anything else is a SQLite path.
func parseDatabaseURL(raw string) (driver, dsn string) {
	switch {
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return "postgres", raw
	case strings.HasPrefix(raw, "sqlite://"):
		return "sqlite", strings.TrimPrefix(raw, "sqlite://")
	case strings.HasPrefix(raw, "sqlite:"):
		return "sqlite", strings.TrimPrefix(raw, "sqlite:")
	case strings.HasPrefix(raw, "file:"):
		return "sqlite", strings.TrimPrefix(raw, "file:")
	default:
		return "sqlite", raw
	}
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.DSN() == "" {
		return nil, fmt.Errorf("DEVDASH_DATABASE_URL does not name a database")
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("DEVDASH_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("DEVDASH_SESSION_SECRET is a known example value and must not be used")
		}
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("DEVDASH_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	if cfg.ActivityLimit <= 0 {
		cfg.ActivityLimit = 50
	}
	if cfg.DashboardWindow <= 0 {
		cfg.DashboardWindow = 20
	}
	if cfg.ReloadTimeout <= 0 {
		cfg.ReloadTimeout = 10 * time.Second
	}
	if cfg.SeedPassword != "" && len(cfg.SeedPassword) < 8 {
		return nil, fmt.Errorf("DEVDASH_SEED_PASSWORD must be at least 8 characters")
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret mixes at least 3 character classes.
func hasMinimumEntropy(s string) bool {
	classes := 0
	for _, set := range []string{
		"abcdefghijklmnopqrstuvwxyz",
		"ABCDEFGHIJKLMNOPQRSTUVWXYZ",
		"0123456789",
		"!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\",
	} {
		if strings.ContainsAny(s, set) {
			classes++
		}
	}
	return classes >= 3
}
