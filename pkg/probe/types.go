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
	"fmt"
	"strings"
)

// Type is used to define the probe type
type Type uint8

// Type enum
const (
	// Startup probes gate liveness and readiness probes until the container has started
	Startup Type = iota
	// Liveness probes are used to decide when the container must be restarted
	Liveness
	// Readiness probes are used to decide when the container can serve traffic
	Readiness
)

// Types lists the probe types in evaluation order
var Types = []Type{Startup, Liveness, Readiness}

func (t Type) String() string {
	switch t {
	case Startup:
		return "startup"
	case Liveness:
		return "liveness"
	case Readiness:
		return "readiness"
	default:
		return fmt.Sprintf("Type(%d)", t)
	}
}

// ParseType parses the probe type name. Parsing is case insensitive.
func ParseType(s string) (Type, error) {
	for _, t := range Types {
		if strings.EqualFold(strings.TrimSpace(s), t.String()) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("invalid probe type: %q", s)
}

// Kind is used to define the target kind, i.e., the probe mechanism
type Kind uint8

// Kind enum
const (
	HTTPGet Kind = iota
	TCPSocket
	Exec
)

func (k Kind) String() string {
	switch k {
	case HTTPGet:
		return "http-get"
	case TCPSocket:
		return "tcp-socket"
	case Exec:
		return "exec"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Result is used to classify a probe outcome
type Result uint8

// Result enum
const (
	// Success means the target is healthy
	Success Result = iota
	// Failure means the target responded but is not healthy, e.g., HTTP 500
	Failure
	// Error means the probe could not be executed, e.g., the invocation timed out
	Error
)

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("Result(%d)", r)
	}
}

// Phase is the probe health phase derived from the outcome history
type Phase uint8

// Phase enum
const (
	// Pending means no outcome has been recorded
	Pending Phase = iota
	// InProgress means outcomes have been recorded, but no threshold has been reached yet
	InProgress
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Pending:
		return "Pending"
	case InProgress:
		return "InProgress"
	case Succeeded:
		return "Succeeded"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("Phase(%d)", p)
	}
}

// Transition is emitted by a Tracker when the probe phase changes
type Transition uint8

// Transition enum
const (
	BecameHealthy Transition = iota + 1
	BecameUnhealthy
)

func (t Transition) String() string {
	switch t {
	case BecameHealthy:
		return "BecameHealthy"
	case BecameUnhealthy:
		return "BecameUnhealthy"
	default:
		return fmt.Sprintf("Transition(%d)", t)
	}
}
