// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package fixedpool runs a fixed set of cooperating tasks, e.g. a
// blocking serve loop alongside the goroutine which tells it to stop.
package fixedpool

import (
	"context"
	"errors"
	"sync"

	"github.com/z5labs/handoff/internal/try"
)

// Task is a unit of work run by [Wait].
type Task func(context.Context) error

// Wait runs every task on its own goroutine and blocks until all of them
// have returned. The context passed to the tasks is cancelled as soon as
// any task returns, with or without an error, so siblings can unwind.
// Panics are recovered and reported as [try.PanicError]s. All task errors
// are joined together.
func Wait(ctx context.Context, tasks ...Task) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var wg sync.WaitGroup
	errCh := make(chan error, len(tasks))

	for _, task := range tasks {
		wg.Add(1)
		go func(t Task) {
			defer wg.Done()

			err := run(ctx, t)
			if err != nil {
				errCh <- err
			}
			cancel(err)
		}(task)
	}

	wg.Wait()
	close(errCh)

	var jerr error
	for err := range errCh {
		jerr = errors.Join(jerr, err)
	}
	return jerr
}

func run(ctx context.Context, t Task) (err error) {
	defer try.Recover(&err)

	return t(ctx)
}
