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

package probe

import (
	"github.com/rs/zerolog"
	"math"
)

// State is the probe state derived from the outcome history.
//
// Invariant: ConsecutiveSuccesses and ConsecutiveFailures are never both greater than zero.
type State struct {
	ConsecutiveSuccesses int32
	ConsecutiveFailures  int32
	Phase                Phase
	// LastOutcome is the zero value while the phase is Pending
	LastOutcome Outcome
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler interface
func (s State) MarshalZerologObject(e *zerolog.Event) {
	e.Str("phase", s.Phase.String()).
		Int32("successes", s.ConsecutiveSuccesses).
		Int32("failures", s.ConsecutiveFailures)
	if s.Phase != Pending {
		e.Object("last", s.LastOutcome)
	}
}

// Tracker applies the success and failure thresholds to the outcome stream of a single probe.
//
// A transition is reported only when a consecutive count reaches its threshold and the phase changes as a result, i.e.,
//  - BecameHealthy is reported when the success streak reaches SuccessThreshold and the phase was not Succeeded
//  - BecameUnhealthy is reported when the failure streak reaches FailureThreshold and the phase was not Failed
//
// Thus, a failure streak that ends before reaching FailureThreshold does not cause a healthy probe to report
// BecameHealthy again when it recovers.
//
// A Tracker is not safe for concurrent use. It is owned by the goroutine that delivers the probe outcomes.
type Tracker struct {
	successThreshold int32
	failureThreshold int32
	state            State
}

// NewTracker constructs a new Tracker using the spec thresholds
func NewTracker(spec *Spec) *Tracker {
	return &Tracker{
		successThreshold: spec.SuccessThreshold,
		failureThreshold: spec.FailureThreshold,
	}
}

// Record applies the outcome. Failure and Error outcomes are counted the same.
func (t *Tracker) Record(o Outcome) (Transition, bool) {
	t.state.LastOutcome = o
	if o.Healthy() {
		t.state.ConsecutiveFailures = 0
		t.state.ConsecutiveSuccesses = inc(t.state.ConsecutiveSuccesses)
		if t.state.ConsecutiveSuccesses >= t.successThreshold && t.state.Phase != Succeeded {
			t.state.Phase = Succeeded
			return BecameHealthy, true
		}
	} else {
		t.state.ConsecutiveSuccesses = 0
		t.state.ConsecutiveFailures = inc(t.state.ConsecutiveFailures)
		if t.state.ConsecutiveFailures >= t.failureThreshold && t.state.Phase != Failed {
			t.state.Phase = Failed
			return BecameUnhealthy, true
		}
	}
	if t.state.Phase == Pending {
		t.state.Phase = InProgress
	}
	return 0, false
}

// State returns the current state
func (t *Tracker) State() State {
	return t.state
}

// Reset clears the counters and returns the phase to Pending
func (t *Tracker) Reset() {
	t.state = State{}
}

func inc(n int32) int32 {
	if n == math.MaxInt32 {
		return n
	}
	return n + 1
}
