// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package transient

import (
	"context"
	"sync"
	"time"
)

// Waiter is a one-shot wake up primitive. Once signalled it stays signalled.
type Waiter struct {
	once sync.Once
	ch   chan struct{}
}

// NewWaiter returns an unsignalled Waiter.
func NewWaiter() *Waiter {
	return &Waiter{ch: make(chan struct{})}
}

// Signal wakes every goroutine blocked in Wait. Only the first call has an effect.
func (w *Waiter) Signal() {
	w.once.Do(func() {
		close(w.ch)
	})
}

// Done returns a channel which is closed once the Waiter is signalled.
func (w *Waiter) Done() <-chan struct{} {
	return w.ch
}

// Signalled reports whether Signal has been called.
func (w *Waiter) Signalled() bool {
	select {
	case <-w.ch:
		return true
	default:
		return false
	}
}

// Wait blocks until the Waiter is signalled, d elapses or ctx is done.
// It reports whether the Waiter was signalled.
func (w *Waiter) Wait(ctx context.Context, d time.Duration) bool {
	if w.Signalled() {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-w.ch:
		return true
	case <-timer.C:
	case <-ctx.Done():
	}

	// a signal racing with the timeout still counts as signalled
	return w.Signalled()
}
