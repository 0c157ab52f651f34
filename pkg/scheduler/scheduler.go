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
	"github.com/oysterpack/probekit/pkg/eventlog"
	"github.com/oysterpack/probekit/pkg/phase"
	"github.com/oysterpack/probekit/pkg/probe"
	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
	"sort"
	"sync"
)

// TracerName is the name of the otel tracer used to trace probe invocations
const TracerName = "github.com/oysterpack/probekit/pkg/scheduler"

// Handle identifies a scheduled container. It is returned by Schedule and used to Cancel the container.
type Handle struct {
	ContainerID string
	ID          xid.ID
}

func (h Handle) String() string {
	return h.ContainerID + "/" + h.ID.String()
}

// Transition is published to subscribers when a probe transitions
type Transition struct {
	ContainerID string
	Instance    uint64
	Probe       probe.Type
	Transition  probe.Transition
	Outcome     probe.Outcome
	// Status is the container status after the transition was applied
	Status phase.Status
}

// TransitionSubscription wraps the channel used to notify subscribers
type TransitionSubscription struct {
	*subscriber
}

// Chan returns the chan in read-only mode
func (s TransitionSubscription) Chan() <-chan Transition {
	return s.ch
}

// subscriber queues transitions in publication order. A single goroutine drains the queue into the subscriber chan,
// which means a slow subscriber never blocks the delivery loop or other subscribers.
type subscriber struct {
	ch     chan Transition
	filter func(Transition) bool

	mu    sync.Mutex
	queue []Transition

	signal      chan struct{}
	unsubscribe chan struct{}
	once        sync.Once
}

func newSubscriber(filter func(Transition) bool) *subscriber {
	return &subscriber{
		ch:          make(chan Transition),
		filter:      filter,
		signal:      make(chan struct{}, 1), // a chan buf size 1 coalesces signals while the queue is being drained
		unsubscribe: make(chan struct{}),
	}
}

func (s *subscriber) enqueue(transition Transition) {
	if s.filter != nil && !s.filter(transition) {
		return
	}
	s.mu.Lock()
	s.queue = append(s.queue, transition)
	s.mu.Unlock()
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *subscriber) dequeue() (Transition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return Transition{}, false
	}
	transition := s.queue[0]
	s.queue[0] = Transition{}
	s.queue = s.queue[1:]
	return transition, true
}

// run drains the queue until the subscriber is unsubscribed or the scheduler is stopped. The chan is closed on exit.
func (s *subscriber) run(stop <-chan struct{}) {
	defer close(s.ch)
	for {
		select {
		case <-s.signal:
		case <-s.unsubscribe:
			return
		case <-stop:
			return
		}
		for transition, ok := s.dequeue(); ok; transition, ok = s.dequeue() {
			select {
			case s.ch <- transition:
			case <-s.unsubscribe:
				return
			case <-stop:
				return
			}
		}
	}
}

// Scheduler runs container probes and emits lifecycle actions.
//
// The container registry is owned by the Scheduler instance, i.e., multiple schedulers are fully independent.
type Scheduler struct {
	executors probe.Executors
	manager   phase.LifecycleManager
	logger    *zerolog.Logger
	events    eventLoggers
	metrics   *metrics
	tracer    trace.Tracer

	mu         sync.RWMutex
	containers map[string]*container

	subscriptionsMu sync.RWMutex
	subscriptions   map[*subscriber]struct{}

	wg       sync.WaitGroup // tracks all scheduler goroutines
	stop     chan struct{}  // used to trigger the scheduler to shutdown
	done     chan struct{}  // used to signal when the scheduler shutdown is complete
	stopOnce sync.Once
}

// New constructs a new Scheduler
func New(opts Opts) (*Scheduler, error) {
	if opts.LifecycleManager == nil {
		return nil, ErrLifecycleManagerRequired
	}
	logger := opts.Logger
	if logger == nil {
		logger = eventlog.Nop()
	}
	logger = eventlog.ForComponent(logger, "scheduler")
	tracerProvider := opts.TracerProvider
	if tracerProvider == nil {
		tracerProvider = otel.GetTracerProvider()
	}

	s := &Scheduler{
		executors:     opts.Executors,
		manager:       opts.LifecycleManager,
		logger:        logger,
		events:        newEventLoggers(logger),
		metrics:       newMetrics(),
		tracer:        tracerProvider.Tracer(TracerName),
		containers:    make(map[string]*container),
		subscriptions: make(map[*subscriber]struct{}),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	if opts.Registerer != nil {
		if err := s.metrics.register(opts.Registerer, func() float64 {
			return float64(s.ContainerCount())
		}); err != nil {
			return nil, errors.Wrap(err, "failed to register scheduler metrics")
		}
	}
	return s, nil
}

// Schedule starts running the container probes.
//
// Errors:
//  - *probe.ConfigurationError if the spec is invalid - nothing is scheduled
//  - ErrNoExecutor if a probe target kind has no executor
//  - ErrAlreadyScheduled if the container is already scheduled
//  - ErrSchedulerStopped
func (s *Scheduler) Schedule(containerID string, spec probe.ContainerSpec) (Handle, error) {
	if s.Stopping() {
		return Handle{}, ErrSchedulerStopped
	}
	ctrl, err := phase.NewController(containerID, spec)
	if err != nil {
		return Handle{}, err
	}
	executors := make(map[probe.Type]probe.Executor)
	for _, t := range spec.Configured() {
		kind := spec.Get(t).Target.Kind()
		executor, ok := s.executors.For(kind)
		if !ok {
			err = multierr.Append(err, errors.Wrapf(ErrNoExecutor, "%s probe: %s", t, kind))
			continue
		}
		executors[t] = executor
	}
	if err != nil {
		return Handle{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// checked again while holding the lock to synchronize with StopAsync
	if s.Stopping() {
		return Handle{}, ErrSchedulerStopped
	}
	if _, exists := s.containers[containerID]; exists {
		return Handle{}, errors.Wrap(ErrAlreadyScheduled, containerID)
	}
	c := newContainer(s, ctrl, executors)
	s.containers[containerID] = c
	s.wg.Add(1)
	go c.run()

	s.events.containerScheduled(containerEvent{containerID, c.handle.ID, spec}, "container scheduled")
	return c.handle, nil
}

// Cancel stops probing the container.
//
// In flight probe invocations are cancelled on a best-effort basis and their outcomes are discarded. Once Cancel
// returns, no further transitions or lifecycle actions are emitted for the container: Cancel waits for a transition
// notification or lifecycle action that is in progress to complete, but it never waits on in flight probes.
// Cancel and StopAsync must not be called by the LifecycleManager while handling an action, i.e., synchronously.
// Cancelling a stale handle, i.e., a handle for a container that has since been cancelled and scheduled again, is a
// no-op.
func (s *Scheduler) Cancel(h Handle) {
	s.mu.Lock()
	c, ok := s.containers[h.ContainerID]
	if !ok || c.handle.ID != h.ID {
		s.mu.Unlock()
		return
	}
	delete(s.containers, h.ContainerID)
	s.mu.Unlock()

	c.cancel()
	s.events.containerCancelled(containerEvent{c.id, c.handle.ID, c.spec}, "container cancelled")
}

// Handle returns the handle for the scheduled container
func (s *Scheduler) Handle(containerID string) (Handle, bool) {
	c := s.container(containerID)
	if c == nil {
		return Handle{}, false
	}
	return c.handle, true
}

// Containers returns the IDs of the scheduled containers in sorted order
func (s *Scheduler) Containers() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.containers))
	for id := range s.containers {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// ContainerCount returns the number of scheduled containers
func (s *Scheduler) ContainerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.containers)
}

// Status returns the container's current probe status.
//
// It must not be called by the LifecycleManager while handling an action, i.e., synchronously.
func (s *Scheduler) Status(containerID string) (phase.Status, bool) {
	c := s.container(containerID)
	if c == nil {
		return phase.Status{}, false
	}
	return c.status()
}

func (s *Scheduler) container(containerID string) *container {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.containers[containerID]
}

// Subscribe is used to subscribe to probe transitions. If the filter is nil, then all transitions are published.
//
// Transitions are delivered to each subscriber in the order they were published. Transitions are queued until the
// subscriber receives them. The channel is closed when the subscription is unsubscribed or the scheduler is stopped.
// If the scheduler has been stopped, then a closed channel will be returned.
func (s *Scheduler) Subscribe(filter func(Transition) bool) TransitionSubscription {
	sub := newSubscriber(filter)
	s.subscriptionsMu.Lock()
	if !s.Stopping() {
		s.subscriptions[sub] = struct{}{}
	}
	s.subscriptionsMu.Unlock()
	go sub.run(s.stop)
	return TransitionSubscription{sub}
}

// Unsubscribe stops publishing transitions to the subscription and closes its channel. Transitions that have not
// been received are dropped.
func (s *Scheduler) Unsubscribe(subscription TransitionSubscription) {
	if subscription.subscriber == nil {
		return
	}
	s.subscriptionsMu.Lock()
	delete(s.subscriptions, subscription.subscriber)
	s.subscriptionsMu.Unlock()
	subscription.once.Do(func() {
		close(subscription.unsubscribe)
	})
}

func (s *Scheduler) publish(transition Transition) {
	s.subscriptionsMu.RLock()
	defer s.subscriptionsMu.RUnlock()
	for sub := range s.subscriptions {
		sub.enqueue(transition)
	}
}

// StopAsync triggers shutdown async. All containers are cancelled.
func (s *Scheduler) StopAsync() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		close(s.stop)
		containers := s.containers
		s.containers = make(map[string]*container)
		s.mu.Unlock()

		s.subscriptionsMu.Lock()
		s.subscriptions = make(map[*subscriber]struct{})
		s.subscriptionsMu.Unlock()

		for _, c := range containers {
			c.cancel()
		}
		s.events.schedulerStopped(schedulerEvent{len(containers)}, "scheduler stopping")

		go func() {
			s.wg.Wait()
			close(s.done)
		}()
	})
}

// Stopping returns true is StopAsync has previously been invoked
func (s *Scheduler) Stopping() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

// Done returns a channel that is used to signal that the scheduler shutdown has completed, i.e., all container and
// probe goroutines have exited.
//
// Executors that ignore context cancellation may outlive the scheduler until their invocation times out.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// Shutdown stops the scheduler and waits for the shutdown to complete
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.StopAsync()
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
