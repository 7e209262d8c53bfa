// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package executor provides designated execution contexts which route
// callbacks can be handed off to.
//
// A designated execution context is a single logical queue, e.g. the main
// loop of an application. Tasks posted to it run one at a time, in the order
// they were posted, but concurrently with whoever posted them.
package executor

import (
	"context"
	"log/slog"
	"sync"

	"github.com/z5labs/handoff/internal/try"
	"github.com/z5labs/handoff/pkg/noop"
	"github.com/z5labs/handoff/pkg/otelslog"
	"github.com/z5labs/handoff/pkg/slogfield"
)

// Executor runs tasks in some execution context. Execute must never block
// waiting for the task to run.
type Executor interface {
	Execute(task func())
}

// Func is a func variant of the [Executor] interface.
type Func func(task func())

// Execute implements the [Executor] interface.
func (f Func) Execute(task func()) {
	f(task)
}

// Inline runs every task synchronously on the calling goroutine.
var Inline Executor = Func(func(task func()) {
	task()
})

// Option configures a [Loop].
type Option func(*Loop)

// LogHandler sets the slog.Handler used by the [Loop].
func LogHandler(h slog.Handler) Option {
	return func(l *Loop) {
		l.log = otelslog.New(h)
	}
}

// Loop is a serial task queue which is pumped by its owner, either
// continuously with [Loop.Run] or once per tick with [Loop.RunPending].
// Posting never blocks.
type Loop struct {
	log *slog.Logger

	// held while tasks are running so that at most one task runs at a time
	// even if Run and RunPending are called from different goroutines
	runMu sync.Mutex

	mu     sync.Mutex
	queue  []func()
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

// NewLoop returns an empty, open [Loop]. Nothing runs until the owner
// calls [Loop.Run] or [Loop.RunPending].
func NewLoop(opts ...Option) *Loop {
	l := &Loop{
		log:  slog.New(noop.LogHandler{}),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start returns a new [Loop] which is already being pumped by a
// background goroutine. The goroutine exits once the Loop is closed.
func Start(opts ...Option) *Loop {
	l := NewLoop(opts...)
	go l.Run(context.Background())
	return l
}

// Execute implements the [Executor] interface. Tasks posted after the
// Loop has been closed are dropped.
func (l *Loop) Execute(task func()) {
	if task == nil {
		return
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		l.log.Warn("dropping task posted to a closed executor loop")
		return
	}
	l.queue = append(l.queue, task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Len returns the number of tasks waiting to run.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// RunPending runs every queued task on the calling goroutine and returns
// how many ran. Concurrent calls take turns so tasks still run in the
// order they were posted. Tasks posted by those
// tasks are left for the next call.
func (l *Loop) RunPending() int {
	l.runMu.Lock()
	defer l.runMu.Unlock()

	l.mu.Lock()
	tasks := l.queue
	l.queue = nil
	l.mu.Unlock()

	for _, task := range tasks {
		l.run(task)
	}
	return len(tasks)
}

// Run pumps the Loop on the calling goroutine until ctx is done or the
// Loop is closed. Tasks still queued when the Loop is closed are run
// before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.RunPending()

		select {
		case <-ctx.Done():
			return nil
		case <-l.done:
			l.RunPending()
			return nil
		case <-l.wake:
		}
	}
}

// Close stops the Loop from accepting new tasks. It is safe to call more than once.
func (l *Loop) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	close(l.done)
	return nil
}

// Healthy reports whether the Loop still accepts tasks.
func (l *Loop) Healthy(ctx context.Context) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.closed
}

func (l *Loop) run(task func()) {
	err := try.Call(task)
	if err == nil {
		return
	}
	l.log.Error("executor task panicked", slogfield.Error(err))
}
