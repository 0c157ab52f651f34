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
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"
	"log"
	"time"
)

// Spec is an immutable probe specification
type Spec struct {
	Target Target

	// InitialDelay is how long to wait before the first invocation
	InitialDelay time.Duration
	// Period is the interval between invocations
	Period time.Duration
	// Timeout bounds each invocation
	Timeout time.Duration

	// SuccessThreshold is the number of consecutive successes required to become healthy
	SuccessThreshold int32
	// FailureThreshold is the number of consecutive failures (or errors) required to become unhealthy
	FailureThreshold int32
}

// Validate returns a *ConfigurationError if the spec is not valid for the specified probe type
func (s *Spec) Validate(t Type) error {
	var err error
	if s.Target == nil {
		err = ErrTargetRequired
	} else {
		err = s.Target.Validate()
	}
	if s.InitialDelay < 0 {
		err = multierr.Append(err, errors.Wrap(ErrNegativeDuration, "initial delay"))
	}
	if s.Period <= 0 {
		err = multierr.Append(err, errors.Wrap(ErrNonPositiveDuration, "period"))
	}
	if s.Timeout <= 0 {
		err = multierr.Append(err, errors.Wrap(ErrNonPositiveDuration, "timeout"))
	}
	if s.SuccessThreshold < 1 {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidThreshold, "success threshold: %d", s.SuccessThreshold))
	} else if s.SuccessThreshold != 1 && t != Readiness {
		err = multierr.Append(err, errors.Wrapf(ErrSuccessThresholdNot1, "%d", s.SuccessThreshold))
	}
	if s.FailureThreshold < 1 {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidThreshold, "failure threshold: %d", s.FailureThreshold))
	}
	if err != nil {
		return &ConfigurationError{Probe: t, Err: err}
	}
	return nil
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler interface
func (s *Spec) MarshalZerologObject(e *zerolog.Event) {
	if s.Target != nil {
		e.Object("target", s.Target)
	}
	e.Dur("delay", s.InitialDelay).
		Dur("period", s.Period).
		Dur("timeout", s.Timeout).
		Int32("success_threshold", s.SuccessThreshold).
		Int32("failure_threshold", s.FailureThreshold)
}

// probe spec default values
const (
	DefaultPeriod           = 10 * time.Second
	DefaultTimeout          = time.Second
	DefaultSuccessThreshold = 1
	DefaultFailureThreshold = 3
)

// SpecOpts is used to load a probe Spec. Durations are specified in seconds.
//
// Zero values are replaced with defaults:
//  - PeriodSeconds = 10
//  - TimeoutSeconds = 1
//  - SuccessThreshold = 1
//  - FailureThreshold = 3
//
// Negative values are rejected.
type SpecOpts struct {
	Target              Target
	InitialDelaySeconds int32
	PeriodSeconds       int32
	TimeoutSeconds      int32
	SuccessThreshold    int32
	FailureThreshold    int32
}

// New constructs a new validated Spec for the specified probe type.
// If the opts are invalid, then a *ConfigurationError is returned.
func (opts SpecOpts) New(t Type) (*Spec, error) {
	if err := opts.validate(); err != nil {
		return nil, &ConfigurationError{Probe: t, Err: err}
	}
	opts = opts.normalize()
	spec := &Spec{
		Target:           opts.Target,
		InitialDelay:     seconds(opts.InitialDelaySeconds),
		Period:           seconds(opts.PeriodSeconds),
		Timeout:          seconds(opts.TimeoutSeconds),
		SuccessThreshold: opts.SuccessThreshold,
		FailureThreshold: opts.FailureThreshold,
	}
	if err := spec.Validate(t); err != nil {
		return nil, err
	}
	return spec, nil
}

// MustNew constructs a new Spec and panics if the opts are invalid
func (opts SpecOpts) MustNew(t Type) *Spec {
	spec, err := opts.New(t)
	if err != nil {
		log.Panic(err)
	}
	return spec
}

func (opts SpecOpts) normalize() SpecOpts {
	if opts.PeriodSeconds == 0 {
		opts.PeriodSeconds = int32(DefaultPeriod / time.Second)
	}
	if opts.TimeoutSeconds == 0 {
		opts.TimeoutSeconds = int32(DefaultTimeout / time.Second)
	}
	if opts.SuccessThreshold == 0 {
		opts.SuccessThreshold = DefaultSuccessThreshold
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = DefaultFailureThreshold
	}
	return opts
}

func (opts SpecOpts) validate() error {
	var err error
	if opts.InitialDelaySeconds < 0 {
		err = errors.Wrapf(ErrNegativeDuration, "initial delay seconds: %d", opts.InitialDelaySeconds)
	}
	if opts.PeriodSeconds < 0 {
		err = multierr.Append(err, errors.Wrapf(ErrNegativeDuration, "period seconds: %d", opts.PeriodSeconds))
	}
	if opts.TimeoutSeconds < 0 {
		err = multierr.Append(err, errors.Wrapf(ErrNegativeDuration, "timeout seconds: %d", opts.TimeoutSeconds))
	}
	if opts.SuccessThreshold < 0 {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidThreshold, "success threshold: %d", opts.SuccessThreshold))
	}
	if opts.FailureThreshold < 0 {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidThreshold, "failure threshold: %d", opts.FailureThreshold))
	}
	return err
}

func seconds(n int32) time.Duration {
	return time.Duration(n) * time.Second
}

// ContainerSpec groups the probes configured for a container. A nil spec means the probe is not configured.
type ContainerSpec struct {
	Startup   *Spec
	Liveness  *Spec
	Readiness *Spec
}

// Get returns the spec for the probe type, or nil if the probe is not configured
func (c ContainerSpec) Get(t Type) *Spec {
	switch t {
	case Startup:
		return c.Startup
	case Liveness:
		return c.Liveness
	case Readiness:
		return c.Readiness
	default:
		return nil
	}
}

// Configured returns the configured probe types
func (c ContainerSpec) Configured() []Type {
	var types []Type
	for _, t := range Types {
		if c.Get(t) != nil {
			types = append(types, t)
		}
	}
	return types
}

// Validate validates each configured probe spec. Each invalid probe contributes a *ConfigurationError.
func (c ContainerSpec) Validate() error {
	var err error
	for _, t := range c.Configured() {
		err = multierr.Append(err, c.Get(t).Validate(t))
	}
	return err
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler interface
func (c ContainerSpec) MarshalZerologObject(e *zerolog.Event) {
	for _, t := range c.Configured() {
		e.Object(t.String(), c.Get(t))
	}
}
