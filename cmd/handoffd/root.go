// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "handoffd",
		Short:        "Serve HTTP routes whose callbacks are handed off to a main loop",
		SilenceUsage: true,
	}

	cmd.AddCommand(
		newServeCmd(),
		newProbeCmd(),
	)
	return cmd
}
