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

package metrics

import (
	"context"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// Module provides the following:
//  - prometheus.Registerer and prometheus.Gatherer backed by a shared registry
//  - *Server, which is started and stopped with the fx app
//
// HTTPEndpoint(s) that are provided via HTTPHandler are served alongside the metrics endpoint.
func Module(opts ServerOpts) fx.Option {
	return fx.Options(
		fx.Provide(
			provideRegistry,
			provideServer(opts),
		),
		fx.Invoke(func(*Server) {}),
	)
}

func provideRegistry() (prometheus.Registerer, prometheus.Gatherer) {
	registry := NewRegistry()
	return registry, registry
}

type serverDeps struct {
	fx.In
	Lifecycle fx.Lifecycle

	Gatherer  prometheus.Gatherer
	Logger    *zerolog.Logger `optional:"true"`
	Endpoints []HTTPEndpoint  `group:"HTTPHandler"`
}

func provideServer(opts ServerOpts) func(deps serverDeps) (*Server, error) {
	return func(deps serverDeps) (*Server, error) {
		server, err := NewServer(opts, deps.Gatherer, deps.Logger, deps.Endpoints...)
		if err != nil {
			return nil, err
		}
		deps.Lifecycle.Append(fx.Hook{
			OnStart: func(context.Context) error {
				return server.Start()
			},
			OnStop: func(ctx context.Context) error {
				return server.Shutdown(ctx)
			},
		})
		return server, nil
	}
}
