// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package transient provides a handle to an object whose lifetime is
// controlled by someone else.
//
// A [Handle] is bound to an object which is only valid for a bounded scope
// (e.g. a single invocation of an HTTP handler). The owner of that scope
// calls [Handle.Invalidate] when the scope ends and, from then on, every
// access through the [Handle] becomes a no-op. Any number of goroutines
// may share the same [Handle]; the only way to touch the underlying object
// is [Handle.ExecuteIfValid], which holds the same lock [Handle.Invalidate]
// uses, so an access can never overlap with, or follow, invalidation.
package transient

import "sync"

// Handle is a mutex guarded, non-owning reference to a *T.
//
// A nil *Handle behaves exactly like an invalidated Handle.
type Handle[T any] struct {
	mu     sync.Mutex
	v      *T
	waiter *Waiter
}

// New returns a valid Handle bound to v. If v is nil, the returned
// Handle is already invalid.
func New[T any](v *T) *Handle[T] {
	return &Handle[T]{v: v}
}

// ExecuteIfValid calls f with the underlying object if the Handle is
// still valid. f runs synchronously while the Handle lock is held so
// f must not call back into the same Handle. The returned bool reports
// whether f was called.
func (h *Handle[T]) ExecuteIfValid(f func(*T)) bool {
	if h == nil {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.v == nil {
		return false
	}
	f(h.v)
	return true
}

// Invalidate drops the reference to the underlying object and wakes the
// attached Waiter, if any. The Waiter is signalled outside of the lock
// and at most once. Calling Invalidate more than once is harmless.
func (h *Handle[T]) Invalidate() {
	if h == nil {
		return
	}

	h.mu.Lock()
	h.v = nil
	w := h.waiter
	h.waiter = nil
	h.mu.Unlock()

	if w != nil {
		w.Signal()
	}
}

// AttachWaiter registers w to be signalled by Invalidate. At most one
// Waiter may be attached, so false is returned if one already is. If the
// Handle has already been invalidated, w is signalled immediately.
func (h *Handle[T]) AttachWaiter(w *Waiter) bool {
	if h == nil {
		w.Signal()
		return true
	}

	h.mu.Lock()
	if h.waiter != nil {
		h.mu.Unlock()
		return false
	}
	if h.v == nil {
		h.mu.Unlock()
		w.Signal()
		return true
	}
	h.waiter = w
	h.mu.Unlock()
	return true
}

// IsValid reports whether the Handle has not been invalidated yet.
//
// The result is only a snapshot and can be stale by the time it's
// inspected. Use it to decide whether waiting is still needed, never
// as a guard for accessing the underlying object.
func (h *Handle[T]) IsValid() bool {
	if h == nil {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.v != nil
}
