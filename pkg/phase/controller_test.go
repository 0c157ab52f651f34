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

package phase_test

import (
	"github.com/oysterpack/probekit/pkg/phase"
	"github.com/oysterpack/probekit/pkg/probe"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

var (
	success = probe.Outcome{Result: probe.Success, Time: time.Now()}
	failure = probe.Outcome{Result: probe.Failure, Reason: "HTTP 500", Time: time.Now()}
)

func spec(successThreshold, failureThreshold int32) *probe.Spec {
	return &probe.Spec{
		Target:           probe.HTTPGetAction{Port: 8080, Path: "/healthz"},
		Period:           time.Second,
		Timeout:          time.Second,
		SuccessThreshold: successThreshold,
		FailureThreshold: failureThreshold,
	}
}

func actionTypes(actions []phase.Action) []phase.ActionType {
	var types []phase.ActionType
	for _, action := range actions {
		types = append(types, action.Type)
	}
	return types
}

func TestNewController_InvalidSpec(t *testing.T) {
	t.Parallel()

	_, err := phase.NewController("web-1", probe.ContainerSpec{Liveness: spec(2, 3)})
	var configErr *probe.ConfigurationError
	assert.True(t, errors.As(err, &configErr))

	_, err = phase.NewController(" ", probe.ContainerSpec{})
	assert.Equal(t, phase.ErrContainerIDRequired, err)
}

func TestController_StartupGating(t *testing.T) {
	t.Parallel()

	c, err := phase.NewController("web-1", probe.ContainerSpec{
		Startup:   spec(1, 3),
		Liveness:  spec(1, 3),
		Readiness: spec(1, 3),
	})
	require.NoError(t, err)
	assert.Empty(t, c.Begin())
	assert.Equal(t, []probe.Type{probe.Startup}, c.Active())
	status := c.Status()
	assert.Equal(t, phase.NotStarted, status.Startup)
	assert.Equal(t, phase.Unknown, status.Readiness)
	assert.Equal(t, phase.Alive, status.Liveness)
	assert.Equal(t, uint64(1), status.Instance)

	// liveness and readiness outcomes are ignored until the container has started
	d := c.Observe(probe.Liveness, failure)
	assert.True(t, d.Ignored)
	d = c.Observe(probe.Readiness, success)
	assert.True(t, d.Ignored)
	assert.Equal(t, probe.Pending, c.Status().Probes[probe.Liveness].Phase)

	d = c.Observe(probe.Startup, failure)
	assert.False(t, d.Transitioned)
	assert.Equal(t, phase.Starting, c.Status().Startup)

	d = c.Observe(probe.Startup, success)
	require.True(t, d.Transitioned)
	assert.Equal(t, probe.BecameHealthy, d.Transition)
	assert.Empty(t, d.Actions)
	assert.Equal(t, []probe.Type{probe.Startup}, d.Stop)
	assert.Equal(t, []probe.Type{probe.Liveness, probe.Readiness}, d.Start)
	assert.Equal(t, phase.Started, c.Status().Startup)
	assert.Equal(t, []probe.Type{probe.Liveness, probe.Readiness}, c.Active())

	// the startup probe is retired
	d = c.Observe(probe.Startup, failure)
	assert.True(t, d.Ignored)
	assert.Equal(t, phase.Started, c.Status().Startup)
}

func TestController_StartupFailure(t *testing.T) {
	t.Parallel()

	c, err := phase.NewController("web-1", probe.ContainerSpec{
		Startup:  spec(1, 2),
		Liveness: spec(1, 3),
	})
	require.NoError(t, err)
	c.Observe(probe.Startup, failure)
	d := c.Observe(probe.Startup, failure)
	require.True(t, d.Transitioned)
	assert.Equal(t, probe.BecameUnhealthy, d.Transition)
	assert.True(t, d.Restart)
	assert.Equal(t, []phase.ActionType{phase.Restart}, actionTypes(d.Actions))
	assert.Equal(t, uint64(1), d.Actions[0].Instance)
	assert.Equal(t, probe.Startup, d.Actions[0].Probe)

	status := c.Status()
	assert.Equal(t, uint64(2), status.Instance)
	assert.Equal(t, phase.NotStarted, status.Startup)
	assert.Equal(t, probe.State{}, status.Probes[probe.Startup])
	assert.Equal(t, []probe.Type{probe.Startup}, d.Start)
}

func TestController_LivenessFailure(t *testing.T) {
	t.Parallel()

	c, err := phase.NewController("web-1", probe.ContainerSpec{
		Liveness:  spec(1, 3),
		Readiness: spec(1, 1),
	})
	require.NoError(t, err)
	assert.Empty(t, c.Begin())
	assert.Equal(t, phase.Started, c.Status().Startup)

	d := c.Observe(probe.Readiness, success)
	assert.Equal(t, []phase.ActionType{phase.AddToService}, actionTypes(d.Actions))
	c.Observe(probe.Liveness, success)

	var restarts int
	for i := 0; i < 3; i++ {
		d = c.Observe(probe.Liveness, failure)
		for _, action := range d.Actions {
			if action.Type == phase.Restart {
				restarts++
			}
		}
	}
	assert.Equal(t, 1, restarts)
	assert.True(t, d.Restart)
	assert.Equal(t, []phase.ActionType{phase.RemoveFromService, phase.Restart}, actionTypes(d.Actions))
	for _, action := range d.Actions {
		assert.Equal(t, uint64(1), action.Instance)
		assert.True(t, action.Triggered)
		assert.Equal(t, probe.Liveness, action.Probe)
		assert.Equal(t, failure, action.Outcome)
	}

	// full reset
	status := c.Status()
	assert.Equal(t, uint64(2), status.Instance)
	assert.Equal(t, phase.Alive, status.Liveness)
	assert.Equal(t, phase.Unknown, status.Readiness)
	for _, probeType := range []probe.Type{probe.Liveness, probe.Readiness} {
		state := status.Probes[probeType]
		assert.Zero(t, state.ConsecutiveFailures)
		assert.Zero(t, state.ConsecutiveSuccesses)
		assert.Equal(t, probe.Pending, state.Phase)
	}
	assert.Equal(t, []probe.Type{probe.Liveness, probe.Readiness}, d.Stop)
	assert.Equal(t, []probe.Type{probe.Liveness, probe.Readiness}, d.Start)
}

func TestController_ReadinessToggles(t *testing.T) {
	t.Parallel()

	c, err := phase.NewController("web-1", probe.ContainerSpec{Readiness: spec(1, 1)})
	require.NoError(t, err)
	assert.Empty(t, c.Begin())

	expected := []struct {
		outcome   probe.Outcome
		action    phase.ActionType
		readiness phase.ReadinessState
	}{
		{success, phase.AddToService, phase.Ready},
		{failure, phase.RemoveFromService, phase.NotReady},
		{success, phase.AddToService, phase.Ready},
		{failure, phase.RemoveFromService, phase.NotReady},
	}
	for i, e := range expected {
		d := c.Observe(probe.Readiness, e.outcome)
		if len(d.Actions) != 1 || d.Actions[0].Type != e.action {
			t.Errorf("*** %d: expected %v, but was %v", i, e.action, actionTypes(d.Actions))
		}
		if c.Status().Readiness != e.readiness {
			t.Errorf("*** %d: expected %v, but was %v", i, e.readiness, c.Status().Readiness)
		}
	}

	// no action mid-streak
	d := c.Observe(probe.Readiness, failure)
	assert.Empty(t, d.Actions)
	assert.False(t, d.Transitioned)
}

func TestController_NoReadinessProbe(t *testing.T) {
	t.Parallel()

	t.Run("no probes", func(t *testing.T) {
		c, err := phase.NewController("web-1", probe.ContainerSpec{})
		require.NoError(t, err)
		actions := c.Begin()
		require.Len(t, actions, 1)
		assert.Equal(t, phase.AddToService, actions[0].Type)
		assert.False(t, actions[0].Triggered)
		assert.Equal(t, phase.Ready, c.Status().Readiness)
		assert.Empty(t, c.Begin(), "Begin should only return actions once per instance")
		assert.Empty(t, c.Active())
	})

	t.Run("startup probe", func(t *testing.T) {
		c, err := phase.NewController("web-1", probe.ContainerSpec{Startup: spec(1, 3), Liveness: spec(1, 1)})
		require.NoError(t, err)
		assert.Empty(t, c.Begin())
		d := c.Observe(probe.Startup, success)
		assert.Equal(t, []phase.ActionType{phase.AddToService}, actionTypes(d.Actions))
		assert.Equal(t, phase.Ready, c.Status().Readiness)

		// the new instance is added back to service once it has started
		d = c.Observe(probe.Liveness, failure)
		assert.Equal(t, []phase.ActionType{phase.RemoveFromService, phase.Restart}, actionTypes(d.Actions))
		d = c.Observe(probe.Startup, success)
		require.Len(t, d.Actions, 1)
		assert.Equal(t, phase.AddToService, d.Actions[0].Type)
		assert.Equal(t, uint64(2), d.Actions[0].Instance)
	})

	t.Run("liveness probe only", func(t *testing.T) {
		c, err := phase.NewController("web-1", probe.ContainerSpec{Liveness: spec(1, 1)})
		require.NoError(t, err)
		assert.Equal(t, []phase.ActionType{phase.AddToService}, actionTypes(c.Begin()))

		// the restarted instance is immediately ready
		d := c.Observe(probe.Liveness, failure)
		assert.Equal(t, []phase.ActionType{phase.RemoveFromService, phase.Restart, phase.AddToService}, actionTypes(d.Actions))
		assert.Equal(t, uint64(2), d.Actions[2].Instance)
	})
}

func TestController_SuccessThreshold1FlipsReadiness(t *testing.T) {
	t.Parallel()

	c, err := phase.NewController("web-1", probe.ContainerSpec{Readiness: spec(1, 2)})
	require.NoError(t, err)
	c.Observe(probe.Readiness, failure)
	c.Observe(probe.Readiness, failure)
	assert.Equal(t, phase.NotReady, c.Status().Readiness)
	c.Observe(probe.Readiness, success)
	assert.Equal(t, phase.Ready, c.Status().Readiness)
}
