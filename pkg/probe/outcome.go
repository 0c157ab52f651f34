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
	"time"
)

// Outcome is the raw result of a single probe invocation
type Outcome struct {
	Result Result
	// Reason describes why the probe failed
	Reason string
	// Err is set when Result is Error
	Err error

	// Time is when the probe invocation started
	Time time.Time
	// Duration is how long the probe invocation ran
	Duration time.Duration
}

// Healthy returns true if the outcome is a success
func (o Outcome) Healthy() bool {
	return o.Result == Success
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler interface
func (o Outcome) MarshalZerologObject(e *zerolog.Event) {
	e.Str("result", o.Result.String())
	if o.Reason != "" {
		e.Str("reason", o.Reason)
	}
	if o.Err != nil {
		e.Err(o.Err)
	}
	e.Dur("duration", o.Duration)
}

// OutcomeBuilder is used to construct outcomes. The builder marks the start of the probe invocation.
type OutcomeBuilder struct {
	start time.Time
}

// NewOutcomeBuilder starts timing a probe invocation
func NewOutcomeBuilder() OutcomeBuilder {
	return OutcomeBuilder{start: time.Now()}
}

// Success returns a Success outcome
func (b OutcomeBuilder) Success() Outcome {
	return b.build(Outcome{Result: Success})
}

// Failure returns a Failure outcome
func (b OutcomeBuilder) Failure(reason string) Outcome {
	return b.build(Outcome{Result: Failure, Reason: reason})
}

// Error returns an Error outcome
func (b OutcomeBuilder) Error(err error) Outcome {
	o := Outcome{Result: Error, Err: err}
	if err != nil {
		o.Reason = err.Error()
	}
	return b.build(o)
}

func (b OutcomeBuilder) build(o Outcome) Outcome {
	o.Time = b.start
	o.Duration = time.Since(b.start)
	return o
}
