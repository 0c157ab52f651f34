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

package phase

import (
	"github.com/oysterpack/probekit/pkg/probe"
	"github.com/pkg/errors"
	"strings"
	"time"
)

// ErrContainerIDRequired is returned when the container ID is blank
var ErrContainerIDRequired = errors.New("container ID is required")

// Decision describes the effects of observing a probe outcome
type Decision struct {
	Probe probe.Type
	// Ignored is true if the probe was not active, i.e., the outcome was not recorded
	Ignored bool

	Transition   probe.Transition
	Transitioned bool

	// Actions are the lifecycle actions to emit, in order
	Actions []Action

	// Restart is true if the container instance was restarted. All probe state has been reset and the new instance
	// probes are listed in Start.
	Restart bool
	// Start lists the probes that became active
	Start []probe.Type
	// Stop lists the probes that are no longer active
	Stop []probe.Type
}

// Controller is the probe phase state machine for a single container.
//
// A Controller is not safe for concurrent use. The scheduler delivers all outcomes for a container on a single
// goroutine, which is the only goroutine that mutates the controller.
type Controller struct {
	containerID string
	spec        probe.ContainerSpec
	trackers    map[probe.Type]*probe.Tracker

	instance  uint64
	startup   StartupState
	readiness ReadinessState
	liveness  LivenessState
	begun     bool
}

// NewController constructs a new Controller for the container.
//
// If the spec is invalid, then the *probe.ConfigurationError(s) are returned.
func NewController(containerID string, spec probe.ContainerSpec) (*Controller, error) {
	if strings.TrimSpace(containerID) == "" {
		return nil, ErrContainerIDRequired
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	c := &Controller{
		containerID: containerID,
		spec:        spec,
		trackers:    make(map[probe.Type]*probe.Tracker),
		instance:    1,
	}
	for _, t := range spec.Configured() {
		c.trackers[t] = probe.NewTracker(spec.Get(t))
	}
	c.init()
	return c, nil
}

func (c *Controller) init() {
	c.startup = Started
	if c.spec.Startup != nil {
		c.startup = NotStarted
	}
	c.readiness = Unknown
	c.liveness = Alive
	c.begun = false
}

// ContainerID returns the container ID
func (c *Controller) ContainerID() string {
	return c.containerID
}

// Spec returns the container probe spec
func (c *Controller) Spec() probe.ContainerSpec {
	return c.spec
}

// Instance returns the current container instance number
func (c *Controller) Instance() uint64 {
	return c.instance
}

// Begin returns the actions for the start of the current container instance. Only the first call per instance returns
// actions.
//
// A container with neither a startup nor a readiness probe is ready as soon as it runs, i.e., AddToService is returned.
func (c *Controller) Begin() []Action {
	if c.begun {
		return nil
	}
	c.begun = true
	if c.startup == Started && c.spec.Readiness == nil {
		c.readiness = Ready
		return []Action{c.newAction(AddToService)}
	}
	return nil
}

// Active returns the probes that must be scheduled for the current state.
//
// If a startup probe is configured, then it is the only active probe until the container has started.
func (c *Controller) Active() []probe.Type {
	if c.liveness == Dead {
		return nil
	}
	if c.startup != Started {
		return []probe.Type{probe.Startup}
	}
	var types []probe.Type
	for _, t := range []probe.Type{probe.Liveness, probe.Readiness} {
		if c.spec.Get(t) != nil {
			types = append(types, t)
		}
	}
	return types
}

func (c *Controller) active(t probe.Type) bool {
	for _, activeType := range c.Active() {
		if activeType == t {
			return true
		}
	}
	return false
}

// Observe records the probe outcome and applies the resulting transition, if any.
//
// Outcomes for probes that are not active are ignored, e.g., a startup outcome that arrives after the container
// started.
func (c *Controller) Observe(t probe.Type, o probe.Outcome) Decision {
	d := Decision{Probe: t}
	if !c.active(t) {
		d.Ignored = true
		return d
	}
	if t == probe.Startup && c.startup == NotStarted {
		c.startup = Starting
	}

	transition, ok := c.trackers[t].Record(o)
	if !ok {
		return d
	}
	d.Transition, d.Transitioned = transition, true

	switch t {
	case probe.Startup:
		if transition == probe.BecameHealthy {
			c.startup = Started
			d.Stop = []probe.Type{probe.Startup}
			d.Start = c.Active()
			if c.spec.Readiness == nil {
				c.readiness = Ready
				d.Actions = append(d.Actions, c.newTriggeredAction(AddToService, t, o))
			}
			return d
		}
		c.restart(&d, o)
	case probe.Liveness:
		if transition == probe.BecameUnhealthy {
			c.restart(&d, o)
		}
	case probe.Readiness:
		if transition == probe.BecameHealthy {
			c.readiness = Ready
			d.Actions = append(d.Actions, c.newTriggeredAction(AddToService, t, o))
		} else {
			c.readiness = NotReady
			d.Actions = append(d.Actions, c.newTriggeredAction(RemoveFromService, t, o))
		}
	}
	return d
}

// restart marks the instance as dead, emits the Restart action, and starts a new instance
func (c *Controller) restart(d *Decision, o probe.Outcome) {
	d.Stop = c.Active()
	c.liveness = Dead
	if c.readiness == Ready {
		d.Actions = append(d.Actions, c.newTriggeredAction(RemoveFromService, d.Probe, o))
	}
	d.Actions = append(d.Actions, c.newTriggeredAction(Restart, d.Probe, o))
	d.Restart = true

	c.Reset()
	d.Actions = append(d.Actions, c.Begin()...)
	d.Start = c.Active()
}

// Reset resets all probe state and starts a new container instance
func (c *Controller) Reset() {
	for _, tracker := range c.trackers {
		tracker.Reset()
	}
	c.instance++
	c.init()
}

// Status returns the current status
func (c *Controller) Status() Status {
	status := Status{
		ContainerID: c.containerID,
		Instance:    c.instance,
		Startup:     c.startup,
		Readiness:   c.readiness,
		Liveness:    c.liveness,
		Probes:      make(map[probe.Type]probe.State, len(c.trackers)),
	}
	for t, tracker := range c.trackers {
		status.Probes[t] = tracker.State()
	}
	return status
}

func (c *Controller) newAction(actionType ActionType) Action {
	return Action{
		Type:        actionType,
		ContainerID: c.containerID,
		Instance:    c.instance,
		Time:        time.Now(),
	}
}

func (c *Controller) newTriggeredAction(actionType ActionType, t probe.Type, o probe.Outcome) Action {
	action := c.newAction(actionType)
	action.Triggered = true
	action.Probe = t
	action.Outcome = o
	return action
}
