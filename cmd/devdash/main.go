// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/devdash/internal/config"
	"github.com/olegiv/devdash/internal/dashboard"
	"github.com/olegiv/devdash/internal/handler/api"
	"github.com/olegiv/devdash/internal/logging"
	"github.com/olegiv/devdash/internal/middleware"
	"github.com/olegiv/devdash/internal/pagefile"
	"github.com/olegiv/devdash/internal/scheduler"
	"github.com/olegiv/devdash/internal/service"
	"github.com/olegiv/devdash/internal/session"
	"github.com/olegiv/devdash/internal/store"
	"github.com/olegiv/devdash/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   string
	appGitCommit string
	appBuildTime string
)

const (
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 30 * time.Second

	apiLimiterCleanup    = "api-limiter-cleanup"
	maxTrackedAPIClients = 10000
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "devdash - developer admin console\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  DEVDASH_DATABASE_URL     postgres:// URL or SQLite path (required)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  DEVDASH_SESSION_SECRET   Session and CSRF key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  DEVDASH_SERVER_PORT      Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  DEVDASH_ENV              development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  DEVDASH_CATALOG_PATH     pages.json catalog (default: ./data/pages.json)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  DEVDASH_SEED_USERNAME    Initial developer account on an empty database\n")
		_, _ = fmt.Fprintf(os.Stderr, "  DEVDASH_SEED_PASSWORD    Password of the initial developer account\n")
	}

	flag.Parse()

	info := version.Info{Version: appVersion, GitCommit: appGitCommit, BuildTime: appBuildTime}.Resolve()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if *showVersion {
		_, _ = fmt.Println(info.String())
		os.Exit(0)
	}

	if err := run(info); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(info version.Info) error {
	// Load .env if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := cfg.SlogLevel()
	slog.SetDefault(slog.New(logging.NewHandler(os.Stdout, level)))

	driver := cfg.Driver()
	if driver == store.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.DSN()), 0o755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	slog.Info("opening database", "driver", driver)
	db, err := store.OpenDB(driver, cfg.DSN())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}()

	slog.Info("running database migrations")
	if err := store.Migrate(db, driver); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	client := store.NewClient(db, driver)

	activity := service.NewActivityService(client, cfg.OriginFallback)
	activity.SetDefaultLimit(cfg.ActivityLimit)
	users := service.NewUserService(client, activity)
	pages := service.NewPageService(client, activity)
	stats := service.NewStatsService(client, activity)

	// Warnings and errors are also recorded in the activity log from here on
	logger := slog.New(logging.NewActivityLogHandler(logging.NewHandler(os.Stdout, level), activity))
	slog.SetDefault(logger)
	slog.Info("activity log integration enabled", "min_level", "warn")

	ctx := context.Background()
	if _, err := store.Seed(ctx, client, store.SeedOptions{
		Username: cfg.SeedUsername,
		Password: cfg.SeedPassword,
		Name:     cfg.SeedName,
	}); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}

	sessionManager := session.New(db, driver, cfg.IsDevelopment())
	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	apiLimiter := middleware.NewRateLimiter(100, 200)

	sched := scheduler.New(logger, time.UTC)
	if err := sched.RegisterDefaults(loginProtection, stats, activity); err != nil {
		return fmt.Errorf("registering jobs: %w", err)
	}
	if err := sched.Register(apiLimiterCleanup, "Reset API rate limiters when too many clients are tracked",
		"@hourly", func(context.Context) error {
			if apiLimiter.Prune(maxTrackedAPIClients) {
				logger.Info("api rate limiters reset", "max", maxTrackedAPIClients)
			}
			return nil
		}); err != nil {
		return fmt.Errorf("registering jobs: %w", err)
	}
	sched.Start()

	dashboards := dashboard.NewRegistry(dashboard.Services{
		Users:    users,
		Pages:    pages,
		Activity: activity,
		Stats:    stats,
	}, dashboard.Options{
		Window:        cfg.DashboardWindow,
		ReloadTimeout: cfg.ReloadTimeout,
	})

	apiHandler := api.NewHandler(api.Deps{
		Client:      client,
		Sessions:    sessionManager,
		Users:       users,
		Pages:       pages,
		Activity:    activity,
		Stats:       stats,
		Catalog:     pagefile.New(cfg.CatalogPath),
		Dashboards:  dashboards,
		Login:       loginProtection,
		Scheduler:   sched,
		CSRF:        middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment(), cfg.ServerAddr())),
		RateLimiter: apiLimiter,
		Version:     info,
	})

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(sessionManager.LoadAndSave)

	r.Mount("/api/v1", apiHandler.Routes())
	slog.Info("REST API v1 mounted at /api/v1")

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      requestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", srv.Addr, "env", cfg.Env, "version", info.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	sched.Stop(shutdownCtx)

	slog.Info("server stopped")
	return nil
}
