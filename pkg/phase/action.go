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
	"fmt"
	"github.com/oysterpack/probekit/pkg/probe"
	"github.com/rs/zerolog"
	"time"
)

// ActionType is used to define the lifecycle action type
type ActionType uint8

// ActionType enum
const (
	// Restart means the container instance must be restarted
	Restart ActionType = iota
	// AddToService means the container can receive traffic
	AddToService
	// RemoveFromService means the container must stop receiving traffic
	RemoveFromService
)

func (a ActionType) String() string {
	switch a {
	case Restart:
		return "Restart"
	case AddToService:
		return "AddToService"
	case RemoveFromService:
		return "RemoveFromService"
	default:
		return fmt.Sprintf("ActionType(%d)", a)
	}
}

// Action is a lifecycle action for the container lifecycle manager
type Action struct {
	Type        ActionType
	ContainerID string
	// Instance is the container instance the action applies to
	Instance uint64
	// Triggered is true if the action was triggered by a probe transition. It is false for the AddToService action
	// that is emitted when a container without a startup or readiness probe is scheduled.
	Triggered bool
	// Probe is the probe whose transition triggered the action
	Probe probe.Type
	// Outcome is the outcome that triggered the action
	Outcome probe.Outcome
	Time    time.Time
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler interface
func (a Action) MarshalZerologObject(e *zerolog.Event) {
	e.Str("action", a.Type.String()).
		Str("container", a.ContainerID).
		Uint64("instance", a.Instance)
	if a.Triggered {
		e.Str("probe", a.Probe.String()).Object("outcome", a.Outcome)
	}
}

// LifecycleManager receives lifecycle actions. It must not call back into the probe engine synchronously.
type LifecycleManager interface {
	HandleAction(action Action)
}

// LifecycleManagerFunc is a function adapter for LifecycleManager
type LifecycleManagerFunc func(action Action)

// HandleAction calls f
func (f LifecycleManagerFunc) HandleAction(action Action) {
	f(action)
}
