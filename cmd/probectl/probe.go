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
	"context"
	"fmt"
	"github.com/oysterpack/probekit/pkg/probe"
	"github.com/oysterpack/probekit/pkg/probe/executor"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"strings"
	"time"
)

// ErrUnhealthy is returned when the probe outcome is not a success
var ErrUnhealthy = errors.New("target is unhealthy")

func newProbeCmd(c *cli) *cobra.Command {
	var timeout time.Duration
	probeCmd := &cobra.Command{
		Use:   "probe",
		Short: "Runs a single probe",
		Long: `Runs a single probe against the target and prints the outcome.

The command exits with a non-zero status if the outcome is a failure or an error.`,
	}
	probeCmd.PersistentFlags().DurationVar(&timeout, "timeout", probe.DefaultTimeout, "probe timeout")

	var httpTarget probe.HTTPGetAction
	var headers []string
	httpCmd := &cobra.Command{
		Use:   "http",
		Short: "Sends an HTTP GET request - any status code in the range [200,400) is a success",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := httpTarget
			for _, header := range headers {
				name, value, ok := strings.Cut(header, ":")
				if !ok {
					return errors.Errorf("invalid header, expected NAME:VALUE : %q", header)
				}
				target.Headers = append(target.Headers, probe.HTTPHeader{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)})
			}
			return c.runProbe(cmd, target, timeout)
		},
	}
	httpCmd.Flags().StringVar(&httpTarget.Scheme, "scheme", "http", "HTTP or HTTPS")
	httpCmd.Flags().StringVar(&httpTarget.Host, "host", probe.DefaultHost, "target host")
	httpCmd.Flags().IntVar(&httpTarget.Port, "port", 0, "target port")
	httpCmd.Flags().StringVar(&httpTarget.Path, "path", "/", "request path")
	httpCmd.Flags().StringArrayVar(&headers, "header", nil, "custom request header NAME:VALUE - may be repeated")
	_ = httpCmd.MarkFlagRequired("port")

	var tcp probe.TCPSocketAction
	tcpCmd := &cobra.Command{
		Use:   "tcp",
		Short: "Opens a TCP connection - the probe succeeds if the connection is established",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runProbe(cmd, tcp, timeout)
		},
	}
	tcpCmd.Flags().StringVar(&tcp.Host, "host", probe.DefaultHost, "target host")
	tcpCmd.Flags().IntVar(&tcp.Port, "port", 0, "target port")
	_ = tcpCmd.MarkFlagRequired("port")

	execCmd := &cobra.Command{
		Use:   "exec -- COMMAND [ARG...]",
		Short: "Runs a command - the probe succeeds if the command exits with status 0",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runProbe(cmd, probe.ExecAction{Command: args}, timeout)
		},
	}

	probeCmd.AddCommand(httpCmd, tcpCmd, execCmd)
	return probeCmd
}

func (c *cli) runProbe(cmd *cobra.Command, target probe.Target, timeout time.Duration) error {
	if err := target.Validate(); err != nil {
		return err
	}
	if timeout <= 0 {
		return errors.Errorf("--timeout must be greater than 0: %s", timeout)
	}
	executors := executor.Defaults(c.config.HTTPGetOpts(c.logger))
	exec, ok := executors.For(target.Kind())
	if !ok {
		return errors.Wrap(probe.ErrUnsupportedTargetKind, target.Kind().String())
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	outcome := probe.Run(ctx, exec, target, timeout)
	c.logger.Debug().Object("target", target).Object("outcome", outcome).Msg("probe outcome")

	out := cmd.OutOrStdout()
	switch outcome.Result {
	case probe.Success:
		fmt.Fprintf(out, "%s: %s (%s)\n", target, outcome.Result, outcome.Duration)
		return nil
	default:
		fmt.Fprintf(out, "%s: %s (%s): %s\n", target, outcome.Result, outcome.Duration, outcome.Reason)
		return ErrUnhealthy
	}
}
