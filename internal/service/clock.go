// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import "time"

// Clock returns the current time. Tests substitute a fixed or stepping clock.
type Clock func() time.Time

// stamp returns now in UTC truncated to the microsecond precision the
// store keeps, so values returned to callers equal the stored ones.
func (c Clock) stamp() time.Time {
	now := time.Now
	if c != nil {
		now = c
	}
	return now().UTC().Truncate(time.Microsecond)
}

// after returns a stamp strictly later than prev.
func (c Clock) after(prev time.Time) time.Time {
	t := c.stamp()
	if !prev.IsZero() && !t.After(prev) {
		t = prev.UTC().Truncate(time.Microsecond).Add(time.Microsecond)
	}
	return t
}
