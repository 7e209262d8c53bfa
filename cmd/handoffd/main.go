// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command handoffd serves configured routes with an embedded handoff server
// whose designated routes run on the process main loop.
package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/z5labs/handoff/pkg/lifecycle"
)

const postRunTimeout = 10 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	if err != nil {
		os.Exit(1)
	}
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	lc := &lifecycle.Context{}
	ctx = lifecycle.NewContext(ctx, lc)

	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.ExecuteContext(ctx)

	pctx, cancel := context.WithTimeout(context.Background(), postRunTimeout)
	defer cancel()
	return errors.Join(err, lc.PostRun().Run(pctx))
}
