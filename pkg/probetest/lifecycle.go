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

package probetest

import (
	"github.com/oysterpack/probekit/pkg/phase"
	"sync"
	"time"
)

// LifecycleRecorder is a phase.LifecycleManager that records the actions it receives
type LifecycleRecorder struct {
	mu      sync.Mutex
	actions []phase.Action
	ch      chan phase.Action
}

// NewLifecycleRecorder constructs a new LifecycleRecorder
func NewLifecycleRecorder() *LifecycleRecorder {
	return &LifecycleRecorder{
		ch: make(chan phase.Action, 1024),
	}
}

// HandleAction records the action
func (r *LifecycleRecorder) HandleAction(action phase.Action) {
	r.mu.Lock()
	r.actions = append(r.actions, action)
	r.mu.Unlock()
	select {
	case r.ch <- action:
	default:
	}
}

// Actions returns the recorded actions in the order they were received
func (r *LifecycleRecorder) Actions() []phase.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	actions := make([]phase.Action, len(r.actions))
	copy(actions, r.actions)
	return actions
}

// Count returns the number of recorded actions of the specified type
func (r *LifecycleRecorder) Count(actionType phase.ActionType) int {
	count := 0
	for _, action := range r.Actions() {
		if action.Type == actionType {
			count++
		}
	}
	return count
}

// Next waits for the next action. It returns false if no action is received within the timeout.
func (r *LifecycleRecorder) Next(timeout time.Duration) (phase.Action, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case action := <-r.ch:
		return action, true
	case <-timer.C:
		return phase.Action{}, false
	}
}
