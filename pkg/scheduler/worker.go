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
	"github.com/oysterpack/probekit/pkg/probe"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"time"
)

// worker runs a single probe for a single container instance
type worker struct {
	container *container
	probe     probe.Type
	spec      *probe.Spec
	executor  probe.Executor
	instance  uint64

	ctx    context.Context
	cancel context.CancelFunc

	// inFlight holds a token while an invocation is in flight
	inFlight chan struct{}
}

func newWorker(c *container, t probe.Type) *worker {
	ctx, cancel := context.WithCancel(c.ctx)
	return &worker{
		container: c,
		probe:     t,
		spec:      c.spec.Get(t),
		executor:  c.executors[t],
		instance:  c.ctrl.Instance(),
		ctx:       ctx,
		cancel:    cancel,
		inFlight:  make(chan struct{}, 1),
	}
}

func (w *worker) event() probeEvent {
	return probeEvent{w.container.id, w.instance, w.probe, w.spec.Target.Kind()}
}

func (w *worker) run() {
	defer w.container.scheduler.wg.Done()

	if w.spec.InitialDelay > 0 {
		timer := time.NewTimer(w.spec.InitialDelay)
		select {
		case <-w.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}

	ticker := time.NewTicker(w.spec.Period)
	defer ticker.Stop()
	w.dispatch()
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.dispatch()
		}
	}
}

// dispatch starts a new invocation unless the previous invocation is still in flight
func (w *worker) dispatch() {
	s := w.container.scheduler
	select {
	case w.inFlight <- struct{}{}:
	default:
		s.metrics.tickSkipped(w.probe)
		s.events.probeTickSkipped(w.event(), "probe tick skipped: previous invocation is still in flight")
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		// the token is released after the outcome is delivered, which preserves the outcome order per probe
		defer func() { <-w.inFlight }()
		w.invoke()
	}()
}

func (w *worker) invoke() {
	s := w.container.scheduler
	kind := w.spec.Target.Kind()
	ctx, span := s.tracer.Start(w.ctx, "probe."+w.probe.String(),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("probe.container", w.container.id),
			attribute.Int64("probe.instance", int64(w.instance)),
			attribute.String("probe.type", w.probe.String()),
			attribute.String("probe.kind", kind.String()),
			attribute.String("probe.target", w.spec.Target.String()),
		),
	)
	outcome := probe.Run(ctx, w.executor, w.spec.Target, w.spec.Timeout)
	endSpan(span, outcome)

	if w.ctx.Err() != nil {
		// the probe was stopped while the invocation was in flight
		return
	}
	s.metrics.observeOutcome(w.probe, kind, outcome)
	if outcome.Result == probe.Error {
		s.events.probeExecutionError(w.event(), outcome.Err, "probe execution error")
	}

	select {
	case w.container.deliveries <- delivery{w.probe, w.instance, outcome}:
	case <-w.ctx.Done():
	}
}

func endSpan(span trace.Span, outcome probe.Outcome) {
	span.SetAttributes(attribute.String("probe.result", outcome.Result.String()))
	switch outcome.Result {
	case probe.Success:
		span.SetStatus(codes.Ok, "")
	case probe.Failure:
		span.SetStatus(codes.Error, outcome.Reason)
	default:
		if outcome.Err != nil {
			span.RecordError(outcome.Err)
		}
		if errors.Is(outcome.Err, probe.ErrTimeout) {
			span.SetAttributes(attribute.Bool("probe.timeout", true))
		}
		span.SetStatus(codes.Error, outcome.Reason)
	}
	span.End()
}
