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
	"bytes"
	"context"
	"fmt"
	"github.com/oysterpack/probekit/pkg/probe"
	"github.com/pkg/errors"
	"os/exec"
	"strings"
	"time"
)

// Exec executes ExecAction probes. The command is run directly, i.e., not via a shell.
type Exec struct {
	// Dir is the working directory - defaults to the current process working directory
	Dir string
	// Env is appended to the current process environment
	Env []string
}

// NewExec constructs a new Exec executor
func NewExec() *Exec {
	return &Exec{}
}

// Execute runs the command. A non-zero exit status is a probe Failure. If the command cannot be started, then the
// outcome is an Error.
func (e *Exec) Execute(ctx context.Context, target probe.Target, timeout time.Duration) probe.Outcome {
	outcome := probe.NewOutcomeBuilder()
	action, ok := target.(probe.ExecAction)
	if !ok {
		return outcome.Error(errors.Wrapf(probe.ErrUnsupportedTargetKind, "Exec executor: %s", target.Kind()))
	}
	if err := action.Validate(); err != nil {
		return outcome.Error(err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, action.Command[0], action.Command[1:]...)
	cmd.Dir = e.Dir
	if len(e.Env) > 0 {
		cmd.Env = append(cmd.Environ(), e.Env...)
	}
	// child processes may keep the output pipe open after the command is killed
	cmd.WaitDelay = 100 * time.Millisecond
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	err := cmd.Run()
	switch {
	case err == nil:
		return outcome.Success()
	case ctx.Err() != nil:
		return outcome.Error(errors.Wrap(ctx.Err(), "command did not complete"))
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return outcome.Failure(commandFailureReason(exitErr, output.String()))
	}
	return outcome.Error(errors.Wrap(err, "failed to run command"))
}

func commandFailureReason(err *exec.ExitError, output string) string {
	output = strings.TrimSpace(output)
	if len(output) > maxReasonBodyBytes {
		output = output[:maxReasonBodyBytes]
	}
	if output == "" {
		return fmt.Sprintf("command failed: %v", err)
	}
	return fmt.Sprintf("command failed: %v: %s", err, output)
}
