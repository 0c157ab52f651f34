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
	"context"
	"github.com/oysterpack/probekit/pkg/probe"
	"github.com/pkg/errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrScripted is the error used for scripted Error outcomes
var ErrScripted = errors.New("scripted probe error")

func outcome(result probe.Result) probe.Outcome {
	b := probe.NewOutcomeBuilder()
	switch result {
	case probe.Success:
		return b.Success()
	case probe.Failure:
		return b.Failure("scripted probe failure")
	default:
		return b.Error(ErrScripted)
	}
}

// ScriptedExecutor returns the scripted results in order. Once the script is exhausted, the last result is repeated.
// An empty script always succeeds.
type ScriptedExecutor struct {
	// Delay is applied to each invocation
	Delay time.Duration

	mu     sync.Mutex
	script []probe.Result
	calls  int
}

// NewScriptedExecutor constructs a new ScriptedExecutor
func NewScriptedExecutor(script ...probe.Result) *ScriptedExecutor {
	return &ScriptedExecutor{script: script}
}

// Execute returns the next scripted result
func (e *ScriptedExecutor) Execute(ctx context.Context, target probe.Target, timeout time.Duration) probe.Outcome {
	e.mu.Lock()
	result := probe.Success
	switch {
	case e.calls < len(e.script):
		result = e.script[e.calls]
	case len(e.script) > 0:
		result = e.script[len(e.script)-1]
	}
	e.calls++
	e.mu.Unlock()

	if e.Delay > 0 {
		timer := time.NewTimer(e.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return probe.NewOutcomeBuilder().Error(ctx.Err())
		}
	}
	return outcome(result)
}

// Calls returns the number of invocations
func (e *ScriptedExecutor) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// BlockingExecutor blocks each invocation until a result is released.
type BlockingExecutor struct {
	// IgnoreContext means the executor keeps blocking after the context is done
	IgnoreContext bool

	started chan struct{}
	release chan probe.Result
	calls   int32
}

// NewBlockingExecutor constructs a new BlockingExecutor
func NewBlockingExecutor() *BlockingExecutor {
	return &BlockingExecutor{
		started: make(chan struct{}, 1024),
		release: make(chan probe.Result),
	}
}

// Execute blocks until Release is called or the context is done
func (e *BlockingExecutor) Execute(ctx context.Context, target probe.Target, timeout time.Duration) probe.Outcome {
	atomic.AddInt32(&e.calls, 1)
	select {
	case e.started <- struct{}{}:
	default:
	}
	if e.IgnoreContext {
		return outcome(<-e.release)
	}
	select {
	case result := <-e.release:
		return outcome(result)
	case <-ctx.Done():
		return probe.NewOutcomeBuilder().Error(ctx.Err())
	}
}

// Started receives a signal each time an invocation starts
func (e *BlockingExecutor) Started() <-chan struct{} {
	return e.started
}

// Release unblocks one in flight invocation with the result. It blocks until an invocation receives it or the timeout
// expires, and returns false on timeout.
func (e *BlockingExecutor) Release(result probe.Result, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case e.release <- result:
		return true
	case <-timer.C:
		return false
	}
}

// Calls returns the number of invocations
func (e *BlockingExecutor) Calls() int {
	return int(atomic.LoadInt32(&e.calls))
}
