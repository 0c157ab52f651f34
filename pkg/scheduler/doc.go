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

// Package scheduler runs container probes on their configured schedule and feeds the outcomes into the container's
// phase controller.
//
// Design
//  - Each scheduled container is owned by a single goroutine, i.e., the container's delivery loop. It is the only
//    goroutine that mutates the container's probe state. No locks are needed to guard probe state.
//  - Each active probe runs on its own timer goroutine. The first invocation is dispatched after the probe's initial
//    delay. From that point on, the probe is invoked every period.
//  - Each invocation runs on its own goroutine and is bounded by the probe timeout.
//  - At most 1 invocation per probe is in flight. If the previous invocation is still running when the timer fires,
//    then the tick is skipped.
//  - An invocation hands its outcome to the delivery loop before the next invocation for the same probe can be
//    dispatched. Thus, outcomes for a probe are applied in the order their invocations were dispatched.
//  - When a container instance is restarted, all of its probes are stopped and the new instance probes are started.
//    Outcomes for the previous instance are discarded.
//  - Cancelling a container never waits on in flight invocations. They are cancelled on a best-effort basis and their
//    outcomes are discarded. No transition or lifecycle action is emitted for the container once Cancel returns.
//  - Once the scheduler is stopped, it cannot be restarted.
package scheduler
