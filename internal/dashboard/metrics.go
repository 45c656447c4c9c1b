// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package dashboard

import (
	"strings"

	"github.com/olegiv/devdash/internal/model"
)

// Metrics are counted over the snapshot's activity window only, so they
// describe recent activity rather than lifetime totals.
type Metrics struct {
	CodeCommits int `json:"codeCommits"`
	LiveEdits   int `json:"liveEdits"`
	Window      int `json:"window"`
}

// ComputeMetrics counts create/edit actions and page_edit actions in logs.
func ComputeMetrics(logs []model.ActivityLog) Metrics {
	m := Metrics{Window: len(logs)}
	for _, l := range logs {
		if strings.Contains(l.Action, "edit") || strings.Contains(l.Action, "create") {
			m.CodeCommits++
		}
		if l.Action == model.ActionPageEdit {
			m.LiveEdits++
		}
	}
	return m
}
