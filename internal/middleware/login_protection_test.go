// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fakeNow returns a clock that tests can advance by hand.
func fakeNow(start time.Time) (func() time.Time, func(time.Duration)) {
	now := start
	return func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }
}

func testLoginProtection(maxAttempts int) (*LoginProtection, func(time.Duration)) {
	lp := NewLoginProtection(LoginProtectionConfig{
		IPRateLimit:       10,
		IPBurst:           100,
		MaxFailedAttempts: maxAttempts,
		LockoutDuration:   time.Minute,
		AttemptWindow:     10 * time.Minute,
	})
	now, advance := fakeNow(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	lp.now = now
	return lp, advance
}

func TestNewLoginProtectionDefaults(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{})
	def := DefaultLoginProtectionConfig()

	if lp.maxFailedAttempts != def.MaxFailedAttempts {
		t.Errorf("maxFailedAttempts = %d, want %d", lp.maxFailedAttempts, def.MaxFailedAttempts)
	}
	if lp.lockoutDuration != def.LockoutDuration {
		t.Errorf("lockoutDuration = %v, want %v", lp.lockoutDuration, def.LockoutDuration)
	}
	if lp.attemptWindow != def.AttemptWindow {
		t.Errorf("attemptWindow = %v, want %v", lp.attemptWindow, def.AttemptWindow)
	}
}

func TestRecordFailureLocksAccount(t *testing.T) {
	lp, _ := testLoginProtection(3)

	for i := 1; i < 3; i++ {
		if locked, _ := lp.RecordFailure("alice"); locked {
			t.Fatalf("locked after %d failures", i)
		}
	}
	if got := lp.RemainingAttempts("alice"); got != 1 {
		t.Errorf("RemainingAttempts = %d, want 1", got)
	}

	locked, d := lp.RecordFailure("alice")
	if !locked || d != time.Minute {
		t.Fatalf("RecordFailure = (%v, %v), want (true, 1m)", locked, d)
	}
	if locked, _ := lp.IsLocked("alice"); !locked {
		t.Error("alice should be locked")
	}
	if locked, _ := lp.IsLocked("bob"); locked {
		t.Error("bob should not be locked")
	}
}

func TestLockoutExpiresAndDoubles(t *testing.T) {
	lp, advance := testLoginProtection(2)

	lp.RecordFailure("alice")
	_, first := lp.RecordFailure("alice")

	advance(first + time.Second)
	if locked, _ := lp.IsLocked("alice"); locked {
		t.Fatal("lockout should have expired")
	}

	lp.RecordFailure("alice")
	_, second := lp.RecordFailure("alice")
	if second != 2*first {
		t.Errorf("second lockout = %v, want %v", second, 2*first)
	}
}

func TestLockoutCapped(t *testing.T) {
	lp, advance := testLoginProtection(1)
	lp.lockoutDuration = 16 * time.Hour

	_, d := lp.RecordFailure("alice")
	advance(d + time.Second)
	_, d = lp.RecordFailure("alice")
	if d != maxLockout {
		t.Errorf("lockout = %v, want %v", d, maxLockout)
	}
}

func TestFailureWindowResets(t *testing.T) {
	lp, advance := testLoginProtection(3)

	lp.RecordFailure("alice")
	lp.RecordFailure("alice")
	advance(11 * time.Minute)

	if locked, _ := lp.RecordFailure("alice"); locked {
		t.Error("failures outside the window should not count")
	}
	if got := lp.RemainingAttempts("alice"); got != 2 {
		t.Errorf("RemainingAttempts = %d, want 2", got)
	}
}

func TestRecordSuccessClears(t *testing.T) {
	lp, _ := testLoginProtection(3)

	lp.RecordFailure("alice")
	lp.RecordSuccess("alice")

	if got := lp.RemainingAttempts("alice"); got != 3 {
		t.Errorf("RemainingAttempts = %d, want 3", got)
	}
}

func TestCleanupStale(t *testing.T) {
	lp, advance := testLoginProtection(3)

	lp.RecordFailure("old")
	advance(11 * time.Minute)
	lp.RecordFailure("fresh")

	if removed := lp.CleanupStale(); removed != 1 {
		t.Errorf("CleanupStale removed %d, want 1", removed)
	}
	if got := lp.RemainingAttempts("fresh"); got != 2 {
		t.Errorf("fresh entry was dropped: RemainingAttempts = %d", got)
	}
}

func TestLoginMiddlewareRateLimitsPosts(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{IPRateLimit: 0.01, IPBurst: 2})
	h := lp.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "192.0.2.10:1234"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	for i := 0; i < 2; i++ {
		if code := post(); code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, code)
		}
	}
	if code := post(); code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/login", nil)
	req.RemoteAddr = "192.0.2.10:1234"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("GET status = %d, want 200", rr.Code)
	}
}
