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

// probectl runs container health probes from the command line.
//
// Commands
//  - probe http|tcp|exec runs a single probe and exits non-zero if the target is unhealthy
//  - watch schedules the probes declared by a Kubernetes Pod or container manifest and reports lifecycle actions
//  - version prints the build version
//
// Settings are loaded from PROBEKIT_ prefixed env vars.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
