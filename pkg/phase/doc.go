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

// Package phase sequences the probe phases of a container and decides which lifecycle actions to take.
//
// A container has three orthogonal health axes:
//  - startup: NotStarted -> Starting -> Started. Started is terminal for the container instance.
//  - readiness: Unknown -> Ready | NotReady. Readiness toggles for the life of the container instance.
//  - liveness: Alive -> Dead. Dead is terminal for the container instance and triggers a restart.
//
// While a configured startup probe has not succeeded, the liveness and readiness probes are not active, i.e., they
// are not scheduled and their outcomes are ignored. Once the startup probe succeeds, it is retired.
//
// Restarts reset the entire probe state of the container. The new container instance starts over from the initial
// state.
package phase
