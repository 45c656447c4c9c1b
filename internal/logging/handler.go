// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging builds the process logger and mirrors warnings and
// errors into the activity log.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/olegiv/devdash/internal/model"
)

// MaxDetailsLength caps the details stored for a mirrored log record.
const MaxDetailsLength = 1000

// NewHandler returns the base text handler writing to w at level.
func NewHandler(w io.Writer, level slog.Leveler) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
}

// Appender stores an activity entry and reports failure.
type Appender interface {
	Append(ctx context.Context, entry *model.ActivityLog) error
}

// ActivityLogHandler is a slog.Handler that passes every record to inner
// and also appends WARN and ERROR records to the activity log as
// system_warning / system_error entries attributed to the system actor.
//
// Append errors are dropped, never logged, so a failing store cannot
// feed back into this handler.
type ActivityLogHandler struct {
	inner  slog.Handler
	sink   Appender
	level  slog.Level
	attrs  []slog.Attr
	prefix string
}

// NewActivityLogHandler wraps inner, mirroring records at WARN and above.
func NewActivityLogHandler(inner slog.Handler, sink Appender) *ActivityLogHandler {
	return &ActivityLogHandler{inner: inner, sink: sink, level: slog.LevelWarn}
}

// Enabled implements slog.Handler.
func (h *ActivityLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *ActivityLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level < h.level || h.sink == nil {
		return nil
	}

	action := model.ActionSystemWarning
	if r.Level >= slog.LevelError {
		action = model.ActionSystemError
	}
	_ = h.sink.Append(context.WithoutCancel(ctx), &model.ActivityLog{
		UserID:  model.SystemActor,
		Action:  action,
		Details: h.details(r),
	})
	return nil
}

// WithAttrs implements slog.Handler.
func (h *ActivityLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.inner = h.inner.WithAttrs(attrs)
	c.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	c.attrs = append(c.attrs, h.attrs...)
	for _, a := range attrs {
		c.attrs = append(c.attrs, slog.Attr{Key: h.prefix + a.Key, Value: a.Value})
	}
	return &c
}

// WithGroup implements slog.Handler.
func (h *ActivityLogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.inner = h.inner.WithGroup(name)
	c.prefix = h.prefix + name + "."
	return &c
}

// details renders the message followed by key=value pairs.
func (h *ActivityLogHandler) details(r slog.Record) string {
	var sb strings.Builder
	sb.WriteString(r.Message)

	write := func(key string, v slog.Value) {
		sb.WriteByte(' ')
		sb.WriteString(key)
		sb.WriteByte('=')
		sb.WriteString(v.Resolve().String())
	}
	for _, a := range h.attrs {
		write(a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		write(h.prefix+a.Key, a.Value)
		return true
	})

	out := sb.String()
	if len(out) > MaxDetailsLength {
		out = strings.ToValidUTF8(out[:MaxDetailsLength], "")
	}
	return out
}
