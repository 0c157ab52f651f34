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

// Package probe defines container health probes and how their raw outcomes are evaluated.
//
// A probe is described by an immutable Spec: what to probe (the Target), how often to probe it, how long each
// invocation may take, and how many consecutive outcomes are required before the probe is considered healthy or
// unhealthy. Three probe types are supported per container: startup, liveness and readiness.
//
// Probe invocations are delegated to an Executor. Run enforces the executor contract on behalf of every executor:
//  - an invocation that does not complete within the probe timeout produces an Error outcome wrapping ErrTimeout
//  - an executor panic is recovered and produces an Error outcome wrapping ErrExecutorPanic
//
// A Tracker converts the stream of outcomes for a single probe into health transitions. Error and Failure outcomes are
// counted the same way. They only differ in diagnostics.
package probe
