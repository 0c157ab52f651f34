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
	"fmt"
	"github.com/oysterpack/probekit/pkg/phase"
	"github.com/oysterpack/probekit/pkg/probe"
	"github.com/pkg/errors"
	"github.com/rs/xid"
	"sync"
)

// delivery carries a probe outcome to the container's delivery loop
type delivery struct {
	probe    probe.Type
	instance uint64
	outcome  probe.Outcome
}

// container owns the probe state for a scheduled container.
//
// All fields except ctx, emitMu, cancelled, deliveries and statusRequests are only accessed by the delivery loop
// goroutine.
type container struct {
	id        string
	handle    Handle
	spec      probe.ContainerSpec
	scheduler *Scheduler
	ctrl      *phase.Controller
	executors map[probe.Type]probe.Executor
	workers   map[probe.Type]*worker

	ctx       context.Context
	cancelCtx context.CancelFunc

	// emitMu serializes cancellation with transition notifications and lifecycle actions
	emitMu    sync.Mutex
	cancelled bool

	deliveries     chan delivery
	statusRequests chan chan phase.Status
}

func newContainer(s *Scheduler, ctrl *phase.Controller, executors map[probe.Type]probe.Executor) *container {
	ctx, cancel := context.WithCancel(context.Background())
	return &container{
		id:        ctrl.ContainerID(),
		handle:    Handle{ContainerID: ctrl.ContainerID(), ID: xid.New()},
		spec:      ctrl.Spec(),
		scheduler: s,
		ctrl:      ctrl,
		executors: executors,
		workers:   make(map[probe.Type]*worker),

		ctx:       ctx,
		cancelCtx: cancel,

		deliveries:     make(chan delivery),
		statusRequests: make(chan chan phase.Status),
	}
}

// run is the container's delivery loop
func (c *container) run() {
	defer c.scheduler.wg.Done()
	defer c.stopWorkers()

	c.emit(c.ctrl.Begin())
	c.startWorkers(c.ctrl.Active())
	for {
		select {
		case <-c.ctx.Done():
			return
		case reply := <-c.statusRequests:
			reply <- c.ctrl.Status()
		case d := <-c.deliveries:
			c.deliver(d)
		}
	}
}

// cancel waits for an in progress transition notification or lifecycle action to complete. Once it returns, nothing
// further is emitted for the container.
func (c *container) cancel() {
	c.emitMu.Lock()
	c.cancelled = true
	c.emitMu.Unlock()
	c.cancelCtx()
}

// whileActive runs f unless the container has been cancelled
func (c *container) whileActive(f func()) bool {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	if c.cancelled {
		return false
	}
	f()
	return true
}

func (c *container) status() (phase.Status, bool) {
	reply := make(chan phase.Status, 1) // a chan buf size 1 decouples the producer from the consumer
	select {
	case <-c.ctx.Done():
		return phase.Status{}, false
	case c.statusRequests <- reply:
		return <-reply, true
	}
}

func (c *container) deliver(d delivery) {
	s := c.scheduler
	// the container may have been cancelled while the outcome was being delivered
	if c.ctx.Err() != nil {
		return
	}
	event := probeEvent{c.id, d.instance, d.probe, c.spec.Get(d.probe).Target.Kind()}
	if d.instance != c.ctrl.Instance() {
		s.metrics.outcomeDiscarded(d.probe)
		s.events.outcomeDiscarded(outcomeEvent{event, d.outcome}, "outcome discarded: container instance was restarted")
		return
	}
	s.events.probeOutcome(outcomeEvent{event, d.outcome}, "probe outcome")

	decision := c.ctrl.Observe(d.probe, d.outcome)
	if decision.Ignored {
		s.metrics.outcomeDiscarded(d.probe)
		s.events.outcomeDiscarded(outcomeEvent{event, d.outcome}, "outcome discarded: probe is not active")
		return
	}
	if decision.Transitioned {
		status := c.ctrl.Status()
		published := c.whileActive(func() {
			s.metrics.observeTransition(d.probe, decision.Transition)
			s.publish(Transition{
				ContainerID: c.id,
				Instance:    d.instance,
				Probe:       d.probe,
				Transition:  decision.Transition,
				Outcome:     d.outcome,
				Status:      status,
			})
		})
		if !published {
			return
		}
		s.events.probeTransition(transitionEvent{event, decision.Transition, status}, "probe transition")
	}

	if decision.Restart {
		c.stopWorkers()
	} else {
		for _, t := range decision.Stop {
			c.stopWorker(t)
		}
	}
	c.emit(decision.Actions)
	if decision.Restart && c.ctx.Err() == nil {
		s.events.instanceRestarted(restartEvent{c.id, c.ctrl.Instance(), decision.Start}, "container instance restarted")
	}
	c.startWorkers(decision.Start)
}

// emit sends the actions to the lifecycle manager. Actions are not emitted once the container is cancelled.
func (c *container) emit(actions []phase.Action) {
	s := c.scheduler
	for _, action := range actions {
		emitted := c.whileActive(func() {
			s.metrics.observeAction(action)
			c.handleAction(action)
		})
		if !emitted {
			return
		}
		s.events.lifecycleAction(action, "lifecycle action")
	}
}

// handleAction isolates the delivery loop from lifecycle manager panics
func (c *container) handleAction(action phase.Action) {
	defer func() {
		if p := recover(); p != nil {
			err := errors.Wrap(ErrLifecycleManagerPanic, fmt.Sprint(p))
			c.scheduler.events.lifecycleManagerError(action, err, "lifecycle manager panicked")
		}
	}()
	c.scheduler.manager.HandleAction(action)
}

func (c *container) startWorkers(types []probe.Type) {
	for _, t := range types {
		if c.ctx.Err() != nil {
			return
		}
		if _, running := c.workers[t]; running {
			continue
		}
		w := newWorker(c, t)
		c.workers[t] = w
		c.scheduler.wg.Add(1)
		go w.run()
	}
}

func (c *container) stopWorker(t probe.Type) {
	if w, ok := c.workers[t]; ok {
		w.cancel()
		delete(c.workers, t)
	}
}

func (c *container) stopWorkers() {
	for t := range c.workers {
		c.stopWorker(t)
	}
}
