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

// Package kube loads probe specs from Kubernetes container definitions.
//
// Kubernetes manifests are decoded using "sigs.k8s.io/yaml", i.e., YAML is converted to JSON and then decoded into the
// "k8s.io/api/core/v1" types. Only HTTP GET, TCP socket, and exec probe handlers are supported.
package kube
