// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Stats summarizes users, pages and traffic for the dashboard.
type Stats struct {
	TotalUsers          int       `json:"totalUsers"`
	ActiveUsers         int       `json:"activeUsers"`
	TotalPages          int       `json:"totalPages"`
	ActivePages         int       `json:"activePages"`
	DailyTraffic        int       `json:"dailyTraffic"`
	MonthlyTraffic      int       `json:"monthlyTraffic"`
	RecentRegistrations int       `json:"recentRegistrations"`
	LastActivity        time.Time `json:"lastActivity"`
}
