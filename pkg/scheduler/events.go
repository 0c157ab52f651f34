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
	"github.com/oysterpack/probekit/pkg/eventlog"
	"github.com/oysterpack/probekit/pkg/phase"
	"github.com/oysterpack/probekit/pkg/probe"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
)

// scheduler log events
const (
	ContainerScheduled    eventlog.Event = "01HCEHA2G0M9S346Q3D25VT4F5"
	ContainerCancelled    eventlog.Event = "01HCEHAA7FV37E3S3E28JT97KB"
	ProbeOutcome          eventlog.Event = "01HCEHAHYY6CQ643DZVMXXQKFB"
	ProbeTransition       eventlog.Event = "01HCEHASPDF5KZNWJ47TAN9ZT2"
	LifecycleAction       eventlog.Event = "01HCEHB1DW4MNPZX45HY43KWJR"
	ProbeTickSkipped      eventlog.Event = "01HCEHB95BP1XPA7Z3DJ8FSSZ5"
	InstanceRestarted     eventlog.Event = "01HCEHBGWTAWSH8VHTPRE95B9E"
	OutcomeDiscarded      eventlog.Event = "01HCEHBRM9E0ZBGJ09TQM83XSS"
	SchedulerStopped      eventlog.Event = "01HCEHC0BRSS6YS3C4DWA7N360"
	ProbeExecutionError   eventlog.Event = "01HCEHC83796Q14DR9GPQY77ZX"
	LifecycleManagerError eventlog.Event = "01HCEHCFTPYYK596NGYA1DQ91K"
)

type eventLoggers struct {
	containerScheduled eventlog.Logger
	containerCancelled eventlog.Logger
	probeOutcome       eventlog.Logger
	probeTransition    eventlog.Logger
	lifecycleAction    eventlog.Logger
	probeTickSkipped   eventlog.Logger
	instanceRestarted  eventlog.Logger
	outcomeDiscarded   eventlog.Logger
	schedulerStopped   eventlog.Logger

	probeExecutionError   eventlog.ErrorLogger
	lifecycleManagerError eventlog.ErrorLogger
}

func newEventLoggers(logger *zerolog.Logger) eventLoggers {
	return eventLoggers{
		containerScheduled: ContainerScheduled.NewLogger(logger, zerolog.InfoLevel),
		containerCancelled: ContainerCancelled.NewLogger(logger, zerolog.InfoLevel),
		probeOutcome:       ProbeOutcome.NewLogger(logger, zerolog.DebugLevel),
		probeTransition:    ProbeTransition.NewLogger(logger, zerolog.InfoLevel),
		lifecycleAction:    LifecycleAction.NewLogger(logger, zerolog.InfoLevel),
		probeTickSkipped:   ProbeTickSkipped.NewLogger(logger, zerolog.WarnLevel),
		instanceRestarted:  InstanceRestarted.NewLogger(logger, zerolog.InfoLevel),
		outcomeDiscarded:   OutcomeDiscarded.NewLogger(logger, zerolog.DebugLevel),
		schedulerStopped:   SchedulerStopped.NewLogger(logger, zerolog.InfoLevel),

		probeExecutionError:   ProbeExecutionError.NewErrorLogger(logger),
		lifecycleManagerError: LifecycleManagerError.NewErrorLogger(logger),
	}
}

type containerEvent struct {
	id     string
	handle xid.ID
	spec   probe.ContainerSpec
}

func (e containerEvent) MarshalZerologObject(event *zerolog.Event) {
	event.Str("container", e.id).
		Str("handle", e.handle.String()).
		Object("probes", e.spec)
}

type probeEvent struct {
	container string
	instance  uint64
	probe     probe.Type
	kind      probe.Kind
}

func (e probeEvent) MarshalZerologObject(event *zerolog.Event) {
	event.Str("container", e.container).
		Uint64("instance", e.instance).
		Str("probe", e.probe.String()).
		Str("kind", e.kind.String())
}

type outcomeEvent struct {
	probeEvent
	outcome probe.Outcome
}

func (e outcomeEvent) MarshalZerologObject(event *zerolog.Event) {
	e.probeEvent.MarshalZerologObject(event)
	event.Object("outcome", e.outcome)
}

type transitionEvent struct {
	probeEvent
	transition probe.Transition
	status     phase.Status
}

func (e transitionEvent) MarshalZerologObject(event *zerolog.Event) {
	e.probeEvent.MarshalZerologObject(event)
	event.Str("transition", e.transition.String()).
		Object("status", e.status)
}

type restartEvent struct {
	container string
	instance  uint64
	active    []probe.Type
}

func (e restartEvent) MarshalZerologObject(event *zerolog.Event) {
	probes := make([]string, len(e.active))
	for i, t := range e.active {
		probes[i] = t.String()
	}
	event.Str("container", e.container).
		Uint64("instance", e.instance).
		Strs("probes", probes)
}

type schedulerEvent struct {
	containers int
}

func (e schedulerEvent) MarshalZerologObject(event *zerolog.Event) {
	event.Int("containers", e.containers)
}
