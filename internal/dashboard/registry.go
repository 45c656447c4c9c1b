// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package dashboard

import "sync"

// Registry keeps one Controller per operator.
type Registry struct {
	backend Backend
	opts    Options

	mu          sync.Mutex
	controllers map[string]*Controller
}

// NewRegistry creates a registry whose controllers share backend and opts.
func NewRegistry(backend Backend, opts Options) *Registry {
	return &Registry{
		backend:     backend,
		opts:        opts,
		controllers: make(map[string]*Controller),
	}
}

// For returns operatorID's controller, creating it on first use.
func (r *Registry) For(operatorID string) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.controllers[operatorID]
	if !ok {
		c = New(r.backend, operatorID, r.opts)
		r.controllers[operatorID] = c
	}
	return c
}

// Drop forgets operatorID's controller, for example on logout.
func (r *Registry) Drop(operatorID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.controllers, operatorID)
}

// Len returns the number of live controllers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.controllers)
}
