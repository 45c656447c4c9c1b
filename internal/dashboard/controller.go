// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package dashboard holds the developer console's per-operator state: a
// cached snapshot of users, pages, recent activity and stats, the current
// view, and pending delete confirmations.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/olegiv/devdash/internal/model"
)

// Defaults for Options.
const (
	DefaultWindow         = 20
	DefaultReloadTimeout  = 10 * time.Second
	DefaultConfirmTimeout = 5 * time.Minute
)

// Errors returned by the controller.
var (
	ErrNotLoaded     = errors.New("dashboard not loaded")
	ErrInvalidView   = errors.New("invalid view")
	ErrUnknownUser   = errors.New("user not in dashboard")
	ErrUnknownPage   = errors.New("page not in dashboard")
	ErrUnknownToken  = errors.New("unknown confirmation token")
	ErrTokenExpired  = errors.New("confirmation expired")
	ErrSelfOperation = errors.New("operators cannot change their own account from the dashboard")
)

// Options tune a Controller. Zero values take the defaults.
type Options struct {
	Window         int
	ReloadTimeout  time.Duration
	ConfirmTimeout time.Duration
	Now            func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Window <= 0 {
		o.Window = DefaultWindow
	}
	if o.ReloadTimeout <= 0 {
		o.ReloadTimeout = DefaultReloadTimeout
	}
	if o.ConfirmTimeout <= 0 {
		o.ConfirmTimeout = DefaultConfirmTimeout
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Snapshot is an immutable copy of the data shown on the dashboard.
type Snapshot struct {
	Users    []model.User        `json:"users"`
	Pages    []model.Page        `json:"pages"`
	Activity []model.ActivityLog `json:"activity"`
	Stats    model.Stats         `json:"stats"`
	LoadedAt time.Time           `json:"loadedAt"`
}

func (s *Snapshot) user(id string) (model.User, bool) {
	i := slices.IndexFunc(s.Users, func(u model.User) bool { return u.ID == id })
	if i < 0 {
		return model.User{}, false
	}
	return s.Users[i], true
}

func (s *Snapshot) page(id string) (model.Page, bool) {
	i := slices.IndexFunc(s.Pages, func(p model.Page) bool { return p.ID == id })
	if i < 0 {
		return model.Page{}, false
	}
	return s.Pages[i], true
}

// PendingKind is the action awaiting confirmation.
type PendingKind string

// Pending action kinds.
const (
	PendingDeleteUser PendingKind = "delete_user"
	PendingDeletePage PendingKind = "delete_page"
)

// Confirmation is a destructive action waiting for Confirm or Cancel.
type Confirmation struct {
	Token     string      `json:"token"`
	Kind      PendingKind `json:"kind"`
	TargetID  string      `json:"targetId"`
	Label     string      `json:"label"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// State is what the dashboard renders.
type State struct {
	Loading      bool           `json:"loading"`
	View         View           `json:"view"`
	SelectedUser *model.User    `json:"selectedUser,omitempty"`
	SelectedPage *model.Page    `json:"selectedPage,omitempty"`
	Snapshot     *Snapshot      `json:"snapshot,omitempty"`
	Metrics      Metrics        `json:"metrics"`
	Pending      []Confirmation `json:"pending"`
}

// Controller is one operator's dashboard. It is safe for concurrent use.
type Controller struct {
	backend    Backend
	operatorID string
	opts       Options

	snap    atomic.Pointer[Snapshot]
	loading atomic.Int32
	reloads singleflight.Group

	// mutate serializes mutations so each one is followed by its own reload.
	mutate sync.Mutex

	mu      sync.Mutex
	view    View
	userID  string
	pageID  string
	pending map[string]Confirmation
}

// New creates a controller acting as operatorID. Nothing is loaded until
// the first Reload.
func New(backend Backend, operatorID string, opts Options) *Controller {
	return &Controller{
		backend:    backend,
		operatorID: operatorID,
		opts:       opts.withDefaults(),
		view:       ViewDashboard,
		pending:    make(map[string]Confirmation),
	}
}

// OperatorID returns the acting user's id.
func (c *Controller) OperatorID() string {
	return c.operatorID
}

// Snapshot returns the current snapshot, or nil before the first load.
func (c *Controller) Snapshot() *Snapshot {
	return c.snap.Load()
}

// Loading reports whether a reload is in flight.
func (c *Controller) Loading() bool {
	return c.loading.Load() > 0
}

// Reload fetches users, pages, recent activity and stats concurrently and
// swaps in a new snapshot only when all four succeed. Concurrent callers
// share one fetch; the fetch is bounded by the reload timeout and is not
// cancelled when a single caller goes away.
func (c *Controller) Reload(ctx context.Context) (*Snapshot, error) {
	ch := c.reloads.DoChan("reload", func() (any, error) {
		return c.load(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// reloadFresh starts a reload that does not join one begun before a
// mutation, so the result reflects the mutation.
func (c *Controller) reloadFresh(ctx context.Context) (*Snapshot, error) {
	c.reloads.Forget("reload")
	return c.Reload(ctx)
}

func (c *Controller) load(ctx context.Context) (*Snapshot, error) {
	c.loading.Add(1)
	defer c.loading.Add(-1)

	ctx, cancel := context.WithTimeout(ctx, c.opts.ReloadTimeout)
	defer cancel()

	next := &Snapshot{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		next.Users, err = c.backend.GetAllUsers(gctx)
		return err
	})
	g.Go(func() (err error) {
		next.Pages, err = c.backend.GetAllPages(gctx)
		return err
	})
	g.Go(func() (err error) {
		next.Activity, err = c.backend.GetActivityLogs(gctx, c.opts.Window)
		return err
	})
	g.Go(func() (err error) {
		next.Stats, err = c.backend.GetDashboardStats(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		slog.Warn("dashboard reload failed", "operator", c.operatorID, "error", err)
		return nil, fmt.Errorf("reloading dashboard: %w", err)
	}

	next.LoadedAt = c.opts.Now().UTC()
	c.snap.Store(next)
	c.dropStaleSelection(next)
	return next, nil
}

// dropStaleSelection falls back to a list view when the selected user or
// page disappeared in the new snapshot.
func (c *Controller) dropStaleSelection(s *Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, userOK := s.user(c.userID)
	_, pageOK := s.page(c.pageID)
	switch {
	case c.view.NeedsUser() && !userOK:
		c.view, c.userID, c.pageID = ViewUsers, "", ""
	case c.view.NeedsPage() && !pageOK:
		c.view, c.pageID = ViewPages, ""
	}
}

// Navigate switches to view, selecting userID and pageID where the view
// needs them. Selections must exist in the current snapshot.
func (c *Controller) Navigate(view View, userID, pageID string) error {
	if !view.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidView, view)
	}

	s := c.snap.Load()
	if (view.NeedsUser() || view.NeedsPage()) && s == nil {
		return ErrNotLoaded
	}
	if !view.NeedsUser() {
		userID = ""
	} else if _, ok := s.user(userID); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownUser, userID)
	}
	if !view.NeedsPage() {
		pageID = ""
	} else if _, ok := s.page(pageID); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPage, pageID)
	}

	c.mu.Lock()
	c.view, c.userID, c.pageID = view, userID, pageID
	c.mu.Unlock()
	return nil
}

// State returns the current view state.
func (c *Controller) State() State {
	s := c.snap.Load()

	c.mu.Lock()
	st := State{
		Loading: c.Loading(),
		View:    c.view,
		Pending: c.pendingLocked(),
	}
	userID, pageID := c.userID, c.pageID
	c.mu.Unlock()

	if s != nil {
		st.Snapshot = s
		st.Metrics = ComputeMetrics(s.Activity)
		if u, ok := s.user(userID); ok {
			st.SelectedUser = &u
		}
		if p, ok := s.page(pageID); ok {
			st.SelectedPage = &p
		}
	}
	return st
}

// ToggleUserStatus flips the active flag of a user in the snapshot, then
// reloads. Every mutation is followed by a full reload, even a failed one.
func (c *Controller) ToggleUserStatus(ctx context.Context, userID string) error {
	c.mutate.Lock()
	defer c.mutate.Unlock()

	s := c.snap.Load()
	if s == nil {
		return ErrNotLoaded
	}
	u, ok := s.user(userID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownUser, userID)
	}
	if u.ID == c.operatorID {
		return ErrSelfOperation
	}

	err := c.backend.UpdateUserStatus(ctx, c.operatorID, u.ID, !u.IsActive)
	return c.afterMutation(ctx, err)
}

// afterMutation reloads whether or not the mutation succeeded and
// reports the mutation error first.
func (c *Controller) afterMutation(ctx context.Context, mutErr error) error {
	_, err := c.reloadFresh(ctx)
	if mutErr != nil {
		return mutErr
	}
	return err
}

// RequestDeleteUser registers a pending user deletion.
func (c *Controller) RequestDeleteUser(userID string) (Confirmation, error) {
	s := c.snap.Load()
	if s == nil {
		return Confirmation{}, ErrNotLoaded
	}
	u, ok := s.user(userID)
	if !ok {
		return Confirmation{}, fmt.Errorf("%w: %q", ErrUnknownUser, userID)
	}
	if u.ID == c.operatorID {
		return Confirmation{}, ErrSelfOperation
	}
	return c.addPending(PendingDeleteUser, u.ID, u.Username), nil
}

// RequestDeletePage registers a pending page deletion.
func (c *Controller) RequestDeletePage(pageID string) (Confirmation, error) {
	s := c.snap.Load()
	if s == nil {
		return Confirmation{}, ErrNotLoaded
	}
	p, ok := s.page(pageID)
	if !ok {
		return Confirmation{}, fmt.Errorf("%w: %q", ErrUnknownPage, pageID)
	}
	return c.addPending(PendingDeletePage, p.ID, p.Title), nil
}

func (c *Controller) addPending(kind PendingKind, targetID, label string) Confirmation {
	conf := Confirmation{
		Token:     uuid.NewString(),
		Kind:      kind,
		TargetID:  targetID,
		Label:     label,
		ExpiresAt: c.opts.Now().Add(c.opts.ConfirmTimeout),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pruneExpiredLocked()
	c.pending[conf.Token] = conf
	return conf
}

// Confirm performs the pending action behind token, then reloads. A token
// can be used once.
func (c *Controller) Confirm(ctx context.Context, token string) error {
	conf, err := c.take(token)
	if err != nil {
		return err
	}

	c.mutate.Lock()
	defer c.mutate.Unlock()

	switch conf.Kind {
	case PendingDeleteUser:
		err = c.backend.DeleteUser(ctx, c.operatorID, conf.TargetID)
	case PendingDeletePage:
		err = c.backend.DeletePage(ctx, c.operatorID, conf.TargetID)
	default:
		err = fmt.Errorf("unsupported pending action %q", conf.Kind)
	}
	return c.afterMutation(ctx, err)
}

// Cancel discards the pending action behind token.
func (c *Controller) Cancel(token string) error {
	_, err := c.take(token)
	if errors.Is(err, ErrTokenExpired) {
		return nil
	}
	return err
}

func (c *Controller) take(token string) (Confirmation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conf, ok := c.pending[token]
	if !ok {
		return Confirmation{}, ErrUnknownToken
	}
	delete(c.pending, token)
	if !c.opts.Now().Before(conf.ExpiresAt) {
		return Confirmation{}, ErrTokenExpired
	}
	return conf, nil
}

func (c *Controller) pruneExpiredLocked() {
	now := c.opts.Now()
	for token, conf := range c.pending {
		if !now.Before(conf.ExpiresAt) {
			delete(c.pending, token)
		}
	}
}

// pendingLocked lists live confirmations, oldest first.
func (c *Controller) pendingLocked() []Confirmation {
	c.pruneExpiredLocked()
	out := make([]Confirmation, 0, len(c.pending))
	for _, conf := range c.pending {
		out = append(out, conf)
	}
	slices.SortFunc(out, func(a, b Confirmation) int { return a.ExpiresAt.Compare(b.ExpiresAt) })
	return out
}
