// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/z5labs/handoff/pkg/httpclient"

	"github.com/spf13/cobra"
)

// UnexpectedStatusError is returned by probe when the response status
// doesn't match the expected one.
type UnexpectedStatusError struct {
	Expected int
	Actual   int
}

// Error implements the error interface.
func (e UnexpectedStatusError) Error() string {
	return fmt.Sprintf("expected status %d but got %d", e.Expected, e.Actual)
}

func newProbeCmd() *cobra.Command {
	var (
		verb    string
		timeout time.Duration
		retries int
		expect  int
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "probe URL",
		Short: "Send a request to a running server and print the response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lvl := slog.LevelWarn
			if verbose {
				lvl = slog.LevelDebug
			}
			h := newLogHandler(cmd.ErrOrStderr(), LogConfig{Level: lvl, Format: "text"})

			opts := []httpclient.Option{
				httpclient.Name("probe"),
				httpclient.LogHandler(h),
				httpclient.Timeout(timeout),
			}
			if retries > 0 {
				opts = append(opts, httpclient.Retry(retries, 100*time.Millisecond, 2*time.Second))
			}
			client := httpclient.New(opts...)

			req, err := http.NewRequestWithContext(cmd.Context(), verb, args[0], nil)
			if err != nil {
				return err
			}
			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, resp.Status)
			_, err = io.Copy(out, resp.Body)
			if err != nil {
				return err
			}
			if expect != 0 && resp.StatusCode != expect {
				return UnexpectedStatusError{Expected: expect, Actual: resp.StatusCode}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&verb, "verb", "X", http.MethodGet, "request method")
	flags.DurationVar(&timeout, "timeout", 5*time.Second, "overall request timeout")
	flags.IntVar(&retries, "retries", 0, "retries on connection errors and 5xx responses")
	flags.IntVar(&expect, "expect", http.StatusOK, "expected status code, 0 accepts any")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log every request")
	return cmd
}
