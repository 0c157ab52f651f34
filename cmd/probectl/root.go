/*
 * Copyright (c) 2019 OysterPack, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"github.com/oysterpack/probekit/pkg/config"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// cli holds the settings shared by all subcommands. It is populated by the root command's PersistentPreRunE.
type cli struct {
	logLevel string

	config config.Config
	logger *zerolog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	rootCmd := &cobra.Command{
		Use:   "probectl",
		Short: "Runs container health probes",
		Long: `probectl runs startup, liveness, and readiness probes against container endpoints.

Settings are loaded from PROBEKIT_ prefixed env vars, e.g., PROBEKIT_LOG_LEVEL.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init(cmd)
		},
	}
	rootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level (debug, info, warn, error) - overrides PROBEKIT_LOG_LEVEL")

	rootCmd.AddCommand(
		newProbeCmd(c),
		newWatchCmd(c),
		newVersionCmd(),
	)
	return rootCmd
}

func (c *cli) init(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	// the --log-level flag takes precedence over the env
	if cmd.Flags().Changed("log-level") {
		if err := cfg.LogLevel.Decode(c.logLevel); err != nil {
			return errors.Wrap(err, "invalid --log-level")
		}
	}
	c.config = cfg
	c.logger = cfg.NewLogger(cmd.ErrOrStderr())
	config.UseAsStandardLoggerOutput(c.logger)
	c.logger.Debug().Object("config", cfg).Msg("config loaded")
	return nil
}
