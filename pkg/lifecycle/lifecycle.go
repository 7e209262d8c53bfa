// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package lifecycle provides helpers for defining actions to execute
// relative to a command's execution.
package lifecycle

import (
	"context"
	"errors"
	"sync"

	"github.com/z5labs/handoff/pkg/otelconfig"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Hook represents functionality that needs to be performed
// at a specific "time" relative to the execution of a command.
type Hook interface {
	Run(context.Context) error
}

// HookFunc is a func variant of the [Hook] interface.
type HookFunc func(context.Context) error

// Run implements the [Hook] interface.
func (f HookFunc) Run(ctx context.Context) error {
	return f(ctx)
}

type multiHook []Hook

func (mh multiHook) Run(ctx context.Context) error {
	errs := make([]error, 0, len(mh))
	for _, h := range mh {
		err := h.Run(ctx)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MultiHook returns a [Hook] that's the logical concatenation
// of the provided [Hook]s. They're applied sequentially and every
// one runs even if a previous one failed.
func MultiHook(hooks ...Hook) Hook {
	return multiHook(hooks)
}

// Context collects the hooks to run once a command returns.
type Context struct {
	mu       sync.Mutex
	postRuns []Hook
}

// OnPostRun registers the given [Hook] to be executed after the command
// returns. Hooks run in reverse registration order, like deferred calls.
func (c *Context) OnPostRun(hook Hook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.postRuns = append(c.postRuns, hook)
}

// PostRun returns every registered post run [Hook] as a single [Hook].
func (c *Context) PostRun() Hook {
	c.mu.Lock()
	defer c.mu.Unlock()

	hooks := make(multiHook, len(c.postRuns))
	for i, h := range c.postRuns {
		hooks[len(c.postRuns)-1-i] = h
	}
	return hooks
}

type key struct{}

var contextKey = &key{}

// NewContext returns a new [context.Context] containing the lifecycle [Context].
func NewContext(parent context.Context, c *Context) context.Context {
	return context.WithValue(parent, contextKey, c)
}

// FromContext tries to extract a lifecycle [Context] from the given [context.Context].
func FromContext(ctx context.Context) (*Context, bool) {
	lc, ok := ctx.Value(contextKey).(*Context)
	return lc, ok
}

// ManageOTel initializes the global trace.TracerProvider and propagator
// and registers a post run [Hook] which shuts the provider down.
func ManageOTel(ctx context.Context, initer otelconfig.Initializer) error {
	tp, err := initer.Init(ctx)
	if err != nil {
		return err
	}
	if tp == otel.GetTracerProvider() {
		return nil
	}
	otel.SetTracerProvider(tp)
	// need to set this so traces can propagate
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	lc, ok := FromContext(ctx)
	if !ok {
		return nil
	}
	lc.OnPostRun(HookFunc(func(ctx context.Context) error {
		return otelconfig.Shutdown(ctx, tp)
	}))
	return nil
}
