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
	"context"
	"github.com/pkg/errors"
	"time"
)

// Executor performs a single probe invocation.
//
// Executors should honor context cancellation. The timeout is provided for executors that need to configure an
// underlying client, but callers are not required to trust the executor with enforcing it - see Run.
type Executor interface {
	Execute(ctx context.Context, target Target, timeout time.Duration) Outcome
}

// ExecutorFunc is a function adapter for Executor
type ExecutorFunc func(ctx context.Context, target Target, timeout time.Duration) Outcome

// Execute calls f
func (f ExecutorFunc) Execute(ctx context.Context, target Target, timeout time.Duration) Outcome {
	return f(ctx, target, timeout)
}

// Executors maps target kinds to executors
type Executors map[Kind]Executor

// For returns the executor for the target kind
func (e Executors) For(kind Kind) (Executor, bool) {
	executor, ok := e[kind]
	return executor, ok && executor != nil
}

// Run invokes the executor on behalf of a probe and guarantees the outcome is produced within the timeout.
//  - if the executor does not return within the timeout, then an Error outcome wrapping ErrTimeout is returned
//  - if the executor panics, then an Error outcome wrapping ErrExecutorPanic is returned
//  - if ctx is cancelled first, then an Error outcome wrapping the context error is returned
//
// The executor goroutine is not forcibly stopped when the timeout expires, i.e., cancellation is best-effort.
func Run(ctx context.Context, executor Executor, target Target, timeout time.Duration) Outcome {
	outcome := NewOutcomeBuilder()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ch := make(chan Outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				ch <- outcome.Error(errors.Wrapf(ErrExecutorPanic, "%v", p))
			}
		}()
		ch <- executor.Execute(ctx, target, timeout)
	}()

	select {
	case o := <-ch:
		if o.Time.IsZero() {
			o.Time = outcome.start
			o.Duration = time.Since(outcome.start)
		}
		return o
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return outcome.Error(errors.Wrapf(ErrTimeout, "timeout: %s", timeout))
		}
		return outcome.Error(errors.Wrap(ctx.Err(), "probe cancelled"))
	}
}
