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

package scheduler

import (
	"context"
	"github.com/oysterpack/probekit/pkg/phase"
	"github.com/oysterpack/probekit/pkg/probe"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
)

// Module provides the fx Module for the scheduler.
//
// Dependencies that are provided by the fx app take precedence over the opts:
//  - probe.Executors
//  - phase.LifecycleManager
//  - *zerolog.Logger
//  - prometheus.Registerer
//  - trace.TracerProvider
//
// The scheduler is stopped when the fx app is stopped.
func Module(opts Opts) fx.Option {
	return fx.Options(
		fx.Provide(provideScheduler(opts)),
	)
}

type schedulerDeps struct {
	fx.In
	Lifecycle fx.Lifecycle

	Executors        probe.Executors        `optional:"true"`
	LifecycleManager phase.LifecycleManager `optional:"true"`
	Logger           *zerolog.Logger        `optional:"true"`
	Registerer       prometheus.Registerer  `optional:"true"`
	TracerProvider   trace.TracerProvider   `optional:"true"`
}

func provideScheduler(opts Opts) func(deps schedulerDeps) (*Scheduler, error) {
	return func(deps schedulerDeps) (*Scheduler, error) {
		if deps.Executors != nil {
			opts.Executors = deps.Executors
		}
		if deps.LifecycleManager != nil {
			opts.LifecycleManager = deps.LifecycleManager
		}
		if deps.Logger != nil {
			opts.Logger = deps.Logger
		}
		if deps.Registerer != nil {
			opts.Registerer = deps.Registerer
		}
		if deps.TracerProvider != nil {
			opts.TracerProvider = deps.TracerProvider
		}
		s, err := New(opts)
		if err != nil {
			return nil, err
		}
		deps.Lifecycle.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return s.Shutdown(ctx)
			},
		})
		return s, nil
	}
}
