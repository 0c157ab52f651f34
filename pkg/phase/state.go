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
)

// StartupState is the startup axis state
type StartupState uint8

// StartupState enum
const (
	NotStarted StartupState = iota
	Starting
	Started
)

func (s StartupState) String() string {
	switch s {
	case NotStarted:
		return "NotStarted"
	case Starting:
		return "Starting"
	case Started:
		return "Started"
	default:
		return fmt.Sprintf("StartupState(%d)", s)
	}
}

// ReadinessState is the readiness axis state
type ReadinessState uint8

// ReadinessState enum
const (
	Unknown ReadinessState = iota
	Ready
	NotReady
)

func (s ReadinessState) String() string {
	switch s {
	case Unknown:
		return "Unknown"
	case Ready:
		return "Ready"
	case NotReady:
		return "NotReady"
	default:
		return fmt.Sprintf("ReadinessState(%d)", s)
	}
}

// LivenessState is the liveness axis state
type LivenessState uint8

// LivenessState enum
const (
	Alive LivenessState = iota
	Dead
)

func (s LivenessState) String() string {
	switch s {
	case Alive:
		return "Alive"
	case Dead:
		return "Dead"
	default:
		return fmt.Sprintf("LivenessState(%d)", s)
	}
}

// Status is a point in time view of the container probe phases
type Status struct {
	ContainerID string
	// Instance is incremented each time the container is restarted. The first instance is 1.
	Instance  uint64
	Startup   StartupState
	Readiness ReadinessState
	Liveness  LivenessState
	// Probes contains the state for each configured probe
	Probes map[probe.Type]probe.State
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler interface
func (s Status) MarshalZerologObject(e *zerolog.Event) {
	e.Str("container", s.ContainerID).
		Uint64("instance", s.Instance).
		Str("startup", s.Startup.String()).
		Str("readiness", s.Readiness.String()).
		Str("liveness", s.Liveness.String())
	for _, t := range probe.Types {
		if state, ok := s.Probes[t]; ok {
			e.Object(t.String(), state)
		}
	}
}
