// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/olegiv/devdash/internal/util"
)

// maxLockout caps the exponential account lockout.
const maxLockout = 24 * time.Hour

// maxTrackedIPs bounds the per-IP limiter cache between cleanups.
const maxTrackedIPs = 10000

// LoginProtection combines per-IP rate limiting with per-account lockout.
type LoginProtection struct {
	ipLimiters *limiterCache[string]

	mu       sync.Mutex
	attempts map[string]*loginAttempt

	maxFailedAttempts int
	lockoutDuration   time.Duration
	attemptWindow     time.Duration
	now               func() time.Time
}

type loginAttempt struct {
	count       int
	firstFailed time.Time
	lockedUntil time.Time
	lockouts    int
}

// LoginProtectionConfig configures LoginProtection. Zero values take the
// defaults from DefaultLoginProtectionConfig.
type LoginProtectionConfig struct {
	IPRateLimit       float64       // requests per second per IP
	IPBurst           int           // burst per IP
	MaxFailedAttempts int           // failures before a lockout
	LockoutDuration   time.Duration // first lockout, doubled for each repeat
	AttemptWindow     time.Duration // window in which failures are counted
}

// DefaultLoginProtectionConfig returns the production settings.
func DefaultLoginProtectionConfig() LoginProtectionConfig {
	return LoginProtectionConfig{
		IPRateLimit:       0.5,
		IPBurst:           5,
		MaxFailedAttempts: 5,
		LockoutDuration:   15 * time.Minute,
		AttemptWindow:     15 * time.Minute,
	}
}

// NewLoginProtection creates a LoginProtection. Stale state is pruned by
// CleanupStale, which the scheduler runs periodically.
func NewLoginProtection(cfg LoginProtectionConfig) *LoginProtection {
	def := DefaultLoginProtectionConfig()
	if cfg.IPRateLimit <= 0 {
		cfg.IPRateLimit = def.IPRateLimit
	}
	if cfg.IPBurst <= 0 {
		cfg.IPBurst = def.IPBurst
	}
	if cfg.MaxFailedAttempts <= 0 {
		cfg.MaxFailedAttempts = def.MaxFailedAttempts
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = def.LockoutDuration
	}
	if cfg.AttemptWindow <= 0 {
		cfg.AttemptWindow = def.AttemptWindow
	}

	return &LoginProtection{
		ipLimiters:        newLimiterCache[string](cfg.IPRateLimit, cfg.IPBurst),
		attempts:          make(map[string]*loginAttempt),
		maxFailedAttempts: cfg.MaxFailedAttempts,
		lockoutDuration:   cfg.LockoutDuration,
		attemptWindow:     cfg.AttemptWindow,
		now:               time.Now,
	}
}

// AllowIP reports whether another login request from ip is allowed.
func (lp *LoginProtection) AllowIP(ip string) bool {
	return lp.ipLimiters.get(ip).Allow()
}

// IsLocked reports whether username is locked out and for how long.
func (lp *LoginProtection) IsLocked(username string) (bool, time.Duration) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	a, ok := lp.attempts[username]
	if !ok {
		return false, 0
	}
	if remaining := a.lockedUntil.Sub(lp.now()); remaining > 0 {
		return true, remaining
	}
	return false, 0
}

// RecordFailure counts a failed login for username. It returns true and
// the lockout length when this failure triggers a lockout.
func (lp *LoginProtection) RecordFailure(username string) (bool, time.Duration) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	now := lp.now()
	a, ok := lp.attempts[username]
	if !ok {
		a = &loginAttempt{}
		lp.attempts[username] = a
	}
	if a.count == 0 || now.Sub(a.firstFailed) > lp.attemptWindow {
		a.count = 0
		a.firstFailed = now
	}
	a.count++
	slog.Debug("failed login recorded", "username", username, "count", a.count)

	if a.count < lp.maxFailedAttempts {
		return false, 0
	}
	return true, lp.lock(username, a, now)
}

// lock starts a lockout for a; the caller holds lp.mu.
func (lp *LoginProtection) lock(username string, a *loginAttempt, now time.Time) time.Duration {
	d := time.Duration(float64(lp.lockoutDuration) * math.Pow(2, float64(a.lockouts)))
	if d > maxLockout || d <= 0 {
		d = maxLockout
	}
	a.lockedUntil = now.Add(d)
	a.lockouts++
	a.count = 0

	slog.Warn("account locked after failed logins",
		"username", username,
		"lockouts", a.lockouts,
		"duration", d,
	)
	return d
}

// RecordSuccess forgets the failure history of username.
func (lp *LoginProtection) RecordSuccess(username string) {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	delete(lp.attempts, username)
}

// RemainingAttempts returns how many failures username has left before
// the next lockout.
func (lp *LoginProtection) RemainingAttempts(username string) int {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	a, ok := lp.attempts[username]
	if !ok || lp.now().Sub(a.firstFailed) > lp.attemptWindow {
		return lp.maxFailedAttempts
	}
	return max(lp.maxFailedAttempts-a.count, 0)
}

// CleanupStale drops expired lockouts and old failure counts, and resets
// the IP limiters when too many addresses are tracked. It returns the
// number of account entries removed.
func (lp *LoginProtection) CleanupStale() int {
	if lp.ipLimiters.clearIfExceeds(maxTrackedIPs) {
		slog.Info("cleared login ip limiters", "max", maxTrackedIPs)
	}

	lp.mu.Lock()
	defer lp.mu.Unlock()

	now := lp.now()
	removed := 0
	for username, a := range lp.attempts {
		if now.After(a.lockedUntil) && now.Sub(a.firstFailed) > lp.attemptWindow {
			delete(lp.attempts, username)
			removed++
		}
	}
	return removed
}

// Middleware rate limits POST requests per client IP.
func (lp *LoginProtection) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}

		ip := util.ClientIP(r)
		if !lp.AllowIP(ip) {
			slog.Warn("login rate limit exceeded", "ip", ip)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(float64(lp.ipLimiters.rate))))
			WriteAPIError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many login attempts. Please wait and try again.", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func retryAfterSeconds(limit float64) int {
	if limit <= 0 {
		return 60
	}
	return max(int(math.Ceil(1/limit)), 1)
}
