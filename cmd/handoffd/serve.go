// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"log/slog"

	"github.com/z5labs/handoff/pkg/lifecycle"
	"github.com/z5labs/handoff/pkg/slogfield"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		envPrefix  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the configured routes and mounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(configPath, envPrefix)
			if err != nil {
				return err
			}

			h := newLogHandler(cmd.ErrOrStderr(), cfg.Log)
			log := slog.New(h)
			log.Debug(
				"loaded config",
				slogfield.String("host", cfg.Server.Host),
				slogfield.Int("port", cfg.Server.Port),
				slog.Group(
					"otel",
					slogfield.String("exporter", cfg.OTel.Exporter),
					slogfield.String("endpoint", cfg.OTel.OTLP.Endpoint),
					slogfield.Any("headers", cfg.OTel.OTLP.Headers),
				),
			)

			ctx := cmd.Context()
			err = lifecycle.ManageOTel(ctx, cfg.OTel.initializer(cmd.OutOrStdout()))
			if err != nil {
				log.Error("failed to initialize tracing", slogfield.Error(err))
				return err
			}

			d, err := newDaemon(cfg, h)
			if err != nil {
				log.Error("failed to configure handoff server", slogfield.Error(err))
				return err
			}
			return d.run(ctx)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "yaml or json config file, rendered as a text/template")
	flags.StringVar(&envPrefix, "env-prefix", "HANDOFF_", "prefix of environment variables overriding config, e.g. HANDOFF_SERVER__PORT")
	return cmd
}
