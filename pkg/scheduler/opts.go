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
	"github.com/oysterpack/probekit/pkg/phase"
	"github.com/oysterpack/probekit/pkg/probe"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Opts are used to construct a new Scheduler
type Opts struct {
	// Executors maps each probe target kind to its executor
	Executors probe.Executors
	// LifecycleManager is required
	LifecycleManager phase.LifecycleManager

	// Logger is optional - default is a disabled logger
	Logger *zerolog.Logger
	// Registerer is optional - if nil, then metrics are collected but not registered
	Registerer prometheus.Registerer
	// TracerProvider is optional - default is the otel global TracerProvider
	TracerProvider trace.TracerProvider
}

// SetExecutors sets the probe executors
func (o Opts) SetExecutors(executors probe.Executors) Opts {
	o.Executors = executors
	return o
}

// SetLifecycleManager sets the lifecycle manager
func (o Opts) SetLifecycleManager(manager phase.LifecycleManager) Opts {
	o.LifecycleManager = manager
	return o
}

// SetLogger sets the logger
func (o Opts) SetLogger(logger *zerolog.Logger) Opts {
	o.Logger = logger
	return o
}

// SetRegisterer sets the prometheus registerer
func (o Opts) SetRegisterer(registerer prometheus.Registerer) Opts {
	o.Registerer = registerer
	return o
}

// SetTracerProvider sets the otel TracerProvider
func (o Opts) SetTracerProvider(provider trace.TracerProvider) Opts {
	o.TracerProvider = provider
	return o
}
