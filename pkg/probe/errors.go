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
	"github.com/pkg/errors"
)

// ConfigurationError indicates a probe spec is invalid. It is returned when the spec is loaded, i.e., before any probe
// state is created. Err may combine multiple field errors - use multierr.Errors() to extract them.
type ConfigurationError struct {
	Probe Type
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s probe: %v", e.Probe, e.Err)
}

// Unwrap returns the underlying field error(s)
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Cause implements the github.com/pkg/errors causer interface
func (e *ConfigurationError) Cause() error {
	return e.Err
}

// configuration errors
var (
	ErrTargetRequired        = errors.New("target is required")
	ErrInvalidPort           = errors.New("port must be in the range [1,65535]")
	ErrInvalidThreshold      = errors.New("threshold must be >= 1")
	ErrSuccessThresholdNot1  = errors.New("success threshold must be 1 for liveness and startup probes")
	ErrNegativeDuration      = errors.New("duration must not be negative")
	ErrNonPositiveDuration   = errors.New("duration must be greater than 0")
	ErrUnsupportedTargetKind = errors.New("target kind is not supported")
)

// probe execution errors
var (
	// ErrTimeout indicates the probe invocation did not complete within the probe timeout
	ErrTimeout = errors.New("probe timed out")
	// ErrExecutorPanic indicates the probe executor panicked
	ErrExecutorPanic = errors.New("probe executor panicked")
)
