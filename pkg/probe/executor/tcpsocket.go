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

package executor

import (
	"context"
	"github.com/oysterpack/probekit/pkg/probe"
	"github.com/pkg/errors"
	"net"
	"time"
)

// TCPSocket executes TCPSocketAction probes
type TCPSocket struct{}

// NewTCPSocket constructs a new TCPSocket executor
func NewTCPSocket() *TCPSocket {
	return &TCPSocket{}
}

// Execute opens and immediately closes a TCP connection. Failing to connect is a probe Failure.
func (e *TCPSocket) Execute(ctx context.Context, target probe.Target, timeout time.Duration) probe.Outcome {
	outcome := probe.NewOutcomeBuilder()
	action, ok := target.(probe.TCPSocketAction)
	if !ok {
		return outcome.Error(errors.Wrapf(probe.ErrUnsupportedTargetKind, "TCPSocket executor: %s", target.Kind()))
	}

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", action.Address())
	if err != nil {
		if ctx.Err() != nil {
			return outcome.Error(errors.Wrap(err, "dial cancelled"))
		}
		return outcome.Failure(err.Error())
	}
	_ = conn.Close()
	return outcome.Success()
}
