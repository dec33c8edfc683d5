// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// REGISTRY
// =============================================================================

// DefaultIdleTimeout is how long an untouched session stays live.
const DefaultIdleTimeout = 30 * time.Minute

// Registry tracks live sessions by ID and expires idle ones.
type Registry[T any] struct {
	mu      sync.Mutex
	entries map[string]*entry[T]
	timeout time.Duration

	// onExpire is called outside the lock for every swept session.
	onExpire func(id string, v T)
}

type entry[T any] struct {
	value        T
	lastActivity time.Time
}

// NewRegistry creates a registry. A timeout <= 0 uses DefaultIdleTimeout.
func NewRegistry[T any](timeout time.Duration) *Registry[T] {
	if timeout <= 0 {
		timeout = DefaultIdleTimeout
	}
	return &Registry[T]{
		entries: make(map[string]*entry[T]),
		timeout: timeout,
	}
}

// SetExpireCallback sets the function called when Sweep removes a session.
func (r *Registry[T]) SetExpireCallback(fn func(id string, v T)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onExpire = fn
}

// Create builds a session with a fresh ID and registers it.
func (r *Registry[T]) Create(build func(id string) T) (string, T) {
	id := uuid.NewString()
	v := build(id)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = &entry[T]{value: v, lastActivity: time.Now()}
	return id, v
}

// Get returns a live session and records activity on it.
func (r *Registry[T]) Get(id string) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		var zero T
		return zero, false
	}
	e.lastActivity = time.Now()
	return e.value, true
}

// Delete removes a session. It reports whether the session existed.
func (r *Registry[T]) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return false
	}
	delete(r.entries, id)
	return true
}

// Len returns the number of live sessions.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Timeout returns the idle timeout.
func (r *Registry[T]) Timeout() time.Duration {
	return r.timeout
}

// =============================================================================
// EXPIRY
// =============================================================================

// Sweep removes every session idle since before now minus the timeout and
// returns how many were removed.
func (r *Registry[T]) Sweep(now time.Time) int {
	r.mu.Lock()
	type expired struct {
		id    string
		value T
	}
	var gone []expired
	for id, e := range r.entries {
		if now.Sub(e.lastActivity) >= r.timeout {
			gone = append(gone, expired{id, e.value})
			delete(r.entries, id)
		}
	}
	onExpire := r.onExpire
	r.mu.Unlock()

	// Execute callbacks outside lock
	if onExpire != nil {
		for _, g := range gone {
			onExpire(g.id, g.value)
		}
	}
	return len(gone)
}

// Run sweeps every interval until stop is closed.
func (r *Registry[T]) Run(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			r.Sweep(now)
		}
	}
}
