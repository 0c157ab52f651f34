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
	"github.com/oysterpack/probekit/pkg/eventlog"
	"github.com/oysterpack/probekit/pkg/kube"
	"github.com/oysterpack/probekit/pkg/metrics"
	"github.com/oysterpack/probekit/pkg/phase"
	"github.com/oysterpack/probekit/pkg/probe"
	"github.com/oysterpack/probekit/pkg/probe/executor"
	"github.com/oysterpack/probekit/pkg/scheduler"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"
)

type watchOpts struct {
	file       string
	containers []string
	duration   time.Duration
	noMetrics  bool
}

func newWatchCmd(c *cli) *cobra.Command {
	var opts watchOpts
	watchCmd := &cobra.Command{
		Use:   "watch -f MANIFEST",
		Short: "Schedules the probes declared by a Kubernetes Pod or container manifest",
		Long: `Schedules the startup, liveness, and readiness probes declared by a Kubernetes Pod or container manifest.

Lifecycle actions and probe transitions are written to stdout as JSON lines. The command runs until it is
interrupted, or until --duration elapses. Prometheus metrics and container statuses (/status) are exposed on
PROBEKIT_METRICS_ADDR unless --no-metrics is specified.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.watch(cmd, opts)
		},
	}
	watchCmd.Flags().StringVarP(&opts.file, "file", "f", "", "manifest file - use '-' to read from stdin")
	watchCmd.Flags().StringSliceVarP(&opts.containers, "container", "c", nil, "only watch the named containers")
	watchCmd.Flags().DurationVar(&opts.duration, "duration", 0, "stop watching after the duration - zero means run until interrupted")
	watchCmd.Flags().BoolVar(&opts.noMetrics, "no-metrics", false, "do not run the metrics HTTP server")
	_ = watchCmd.MarkFlagRequired("file")
	return watchCmd
}

type scheduledContainer struct {
	id   string
	spec probe.ContainerSpec
}

func (c *cli) watch(cmd *cobra.Command, opts watchOpts) error {
	containers, err := loadContainers(cmd.InOrStdin(), opts)
	if err != nil {
		return err
	}

	out := eventlog.NewZeroLogger(zerolog.SyncWriter(cmd.OutOrStdout()))
	lifecycleManager := phase.LifecycleManagerFunc(func(action phase.Action) {
		out.Log().Object("d", action).Msg("lifecycle action")
	})

	options := []fx.Option{
		fx.NopLogger,
		fx.Supply(c.logger),
		fx.Provide(
			func() probe.Executors { return executor.Defaults(c.config.HTTPGetOpts(c.logger)) },
			func() phase.LifecycleManager { return lifecycleManager },
		),
		scheduler.Module(scheduler.Opts{}),
		fx.Invoke(func(s *scheduler.Scheduler) error {
			subscription := s.Subscribe(nil)
			go func() {
				for {
					select {
					case <-s.Done():
						return
					case transition, ok := <-subscription.Chan():
						if !ok {
							return
						}
						out.Log().
							Str("probe", transition.Probe.String()).
							Str("transition", transition.Transition.String()).
							Object("d", transition.Status).
							Msg("probe transition")
					}
				}
			}()
			for _, container := range containers {
				if _, err := s.Schedule(container.id, container.spec); err != nil {
					return err
				}
			}
			return nil
		}),
	}
	if !opts.noMetrics {
		options = append(options,
			metrics.Module(metrics.ServerOpts{
				Addr:     c.config.MetricsAddr,
				Endpoint: c.config.MetricsEndpoint,
			}),
			fx.Provide(func(s *scheduler.Scheduler) metrics.HTTPHandler {
				return metrics.NewHTTPHandler(scheduler.StatusEndpoint, scheduler.StatusHandler(s))
			}),
		)
	}
	app := fx.New(options...)
	if err := app.Err(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}

	startCtx, cancelStart := context.WithTimeout(ctx, app.StartTimeout())
	defer cancelStart()
	if err := app.Start(startCtx); err != nil {
		return errors.Wrap(err, "failed to start")
	}
	c.logger.Info().Int("containers", len(containers)).Msg("watching containers")

	<-ctx.Done()

	stopCtx, cancelStop := context.WithTimeout(context.Background(), c.config.ShutdownTimeout)
	defer cancelStop()
	return app.Stop(stopCtx)
}

func loadContainers(stdin io.Reader, opts watchOpts) ([]scheduledContainer, error) {
	var data []byte
	var err error
	if opts.file == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(opts.file)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read manifest")
	}
	decoded, err := kube.DecodeContainers(data)
	if err != nil {
		return nil, err
	}

	selected := make(map[string]bool, len(opts.containers))
	for _, name := range opts.containers {
		selected[name] = true
	}
	var containers []scheduledContainer
	for i := range decoded {
		container := &decoded[i]
		if len(selected) > 0 && !selected[container.Name] {
			continue
		}
		spec, err := kube.ContainerSpec(container)
		if err != nil {
			return nil, errors.Wrapf(err, "container %q", container.Name)
		}
		containers = append(containers, scheduledContainer{id: container.Name, spec: spec})
	}
	if len(containers) == 0 {
		return nil, errors.Errorf("no containers matched: %v", opts.containers)
	}
	return containers, nil
}
