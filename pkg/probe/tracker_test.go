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

package probe_test

import (
	"github.com/oysterpack/probekit/pkg/probe"
	"github.com/stretchr/testify/assert"
	"math/rand"
	"testing"
	"time"
)

func newTracker(successThreshold, failureThreshold int32) *probe.Tracker {
	return probe.NewTracker(&probe.Spec{
		Target:           probe.ExecAction{Command: []string{"true"}},
		Period:           time.Second,
		Timeout:          time.Second,
		SuccessThreshold: successThreshold,
		FailureThreshold: failureThreshold,
	})
}

var (
	success = probe.Outcome{Result: probe.Success}
	failure = probe.Outcome{Result: probe.Failure, Reason: "HTTP 503"}
	timeout = probe.Outcome{Result: probe.Error, Err: probe.ErrTimeout}
)

type step struct {
	outcome    probe.Outcome
	transition probe.Transition
	ok         bool
	phase      probe.Phase
}

func checkSteps(t *testing.T, tracker *probe.Tracker, steps []step) {
	t.Helper()
	for i, s := range steps {
		transition, ok := tracker.Record(s.outcome)
		if ok != s.ok || transition != s.transition {
			t.Errorf("*** step %d: expected (%v, %v), but was (%v, %v)", i, s.transition, s.ok, transition, ok)
		}
		if tracker.State().Phase != s.phase {
			t.Errorf("*** step %d: expected phase %v, but was %v", i, s.phase, tracker.State().Phase)
		}
	}
}

func TestTracker_FailureThreshold(t *testing.T) {
	t.Parallel()

	// exec probe: period 5s, timeout 1s, failureThreshold 3
	tracker := newTracker(1, 3)
	checkSteps(t, tracker, []step{
		{failure, 0, false, probe.InProgress},
		{failure, 0, false, probe.InProgress},
		{failure, probe.BecameUnhealthy, true, probe.Failed},
		{failure, 0, false, probe.Failed},
	})
	state := tracker.State()
	assert.Equal(t, int32(4), state.ConsecutiveFailures)
	assert.Zero(t, state.ConsecutiveSuccesses)
	assert.Equal(t, failure, state.LastOutcome)
}

func TestTracker_Threshold1(t *testing.T) {
	t.Parallel()

	tracker := newTracker(1, 1)
	checkSteps(t, tracker, []step{
		{success, probe.BecameHealthy, true, probe.Succeeded},
		{failure, probe.BecameUnhealthy, true, probe.Failed},
		{success, probe.BecameHealthy, true, probe.Succeeded},
		{success, 0, false, probe.Succeeded},
	})
}

func TestTracker_ErrorsCountAsFailures(t *testing.T) {
	t.Parallel()

	tracker := newTracker(1, 2)
	checkSteps(t, tracker, []step{
		{success, probe.BecameHealthy, true, probe.Succeeded},
		{timeout, 0, false, probe.Succeeded},
		{failure, probe.BecameUnhealthy, true, probe.Failed},
	})
	assert.Equal(t, probe.Failure, tracker.State().LastOutcome.Result)
	assert.Equal(t, int32(2), tracker.State().ConsecutiveFailures)
}

func TestTracker_SuccessThreshold(t *testing.T) {
	t.Parallel()

	tracker := newTracker(2, 3)
	checkSteps(t, tracker, []step{
		{success, 0, false, probe.InProgress},
		{failure, 0, false, probe.InProgress},
		{success, 0, false, probe.InProgress},
		{success, probe.BecameHealthy, true, probe.Succeeded},
		{success, 0, false, probe.Succeeded},
		// sub-threshold failure streak does not leave the Succeeded phase
		{failure, 0, false, probe.Succeeded},
		{success, 0, false, probe.Succeeded},
		{success, 0, false, probe.Succeeded},
		{failure, 0, false, probe.Succeeded},
		{failure, 0, false, probe.Succeeded},
		{failure, probe.BecameUnhealthy, true, probe.Failed},
		{success, 0, false, probe.Failed},
		{success, probe.BecameHealthy, true, probe.Succeeded},
	})
}

func TestTracker_Reset(t *testing.T) {
	t.Parallel()

	tracker := newTracker(1, 1)
	tracker.Record(failure)
	tracker.Reset()
	assert.Equal(t, probe.State{}, tracker.State())
	assert.Equal(t, probe.Pending, tracker.State().Phase)
	// the first outcome after a reset transitions
	transition, ok := tracker.Record(failure)
	assert.True(t, ok)
	assert.Equal(t, probe.BecameUnhealthy, transition)
}

// Randomized outcome sequences are checked against the tracker invariants:
//  - the consecutive counters are never both positive
//  - a transition is reported iff the phase changed to Succeeded or Failed
//  - transitions alternate, i.e., the same transition is never reported twice in a row
func TestTracker_RandomOutcomes(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(20191017))
	outcomes := []probe.Outcome{success, failure, timeout}
	for i := 0; i < 200; i++ {
		successThreshold := int32(rng.Intn(4) + 1)
		failureThreshold := int32(rng.Intn(4) + 1)
		tracker := newTracker(successThreshold, failureThreshold)

		var lastTransition probe.Transition
		for j := 0; j < 100; j++ {
			before := tracker.State().Phase
			outcome := outcomes[rng.Intn(len(outcomes))]
			transition, ok := tracker.Record(outcome)
			state := tracker.State()

			if state.ConsecutiveSuccesses > 0 && state.ConsecutiveFailures > 0 {
				t.Fatalf("*** counters are both positive: %#v", state)
			}
			phaseChanged := before != state.Phase && (state.Phase == probe.Succeeded || state.Phase == probe.Failed)
			if ok != phaseChanged {
				t.Fatalf("*** transition reported = %v, but phase changed %v -> %v", ok, before, state.Phase)
			}
			if !ok {
				continue
			}
			if transition == lastTransition {
				t.Fatalf("*** %v was reported twice in a row", transition)
			}
			lastTransition = transition
			switch transition {
			case probe.BecameHealthy:
				assert.True(t, state.ConsecutiveSuccesses >= successThreshold)
			case probe.BecameUnhealthy:
				assert.True(t, state.ConsecutiveFailures >= failureThreshold)
			}
		}
	}
}
