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

package scheduler

import (
	"encoding/json"
	"github.com/oysterpack/probekit/pkg/phase"
	"github.com/oysterpack/probekit/pkg/probe"
	"net/http"
)

// StatusEndpoint is the default HTTP path for StatusHandler
const StatusEndpoint = "/status"

// StatusHandler returns an HTTP handler that renders container statuses as JSON.
//
// All containers are returned, unless a container is specified via the "container" query param. If the specified
// container is not scheduled, then 404 is returned.
func StatusHandler(s *Scheduler) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet && req.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var body interface{}
		if containerID := req.URL.Query().Get("container"); containerID != "" {
			status, ok := s.Status(containerID)
			if !ok {
				http.Error(w, "container is not scheduled: "+containerID, http.StatusNotFound)
				return
			}
			body = newStatusView(status)
		} else {
			views := make([]statusView, 0, s.ContainerCount())
			for _, id := range s.Containers() {
				// the container may have been cancelled after it was listed
				if status, ok := s.Status(id); ok {
					views = append(views, newStatusView(status))
				}
			}
			body = views
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(body)
	}
}

type statusView struct {
	ContainerID string                    `json:"container"`
	Instance    uint64                    `json:"instance"`
	Startup     string                    `json:"startup"`
	Readiness   string                    `json:"readiness"`
	Liveness    string                    `json:"liveness"`
	Probes      map[string]probeStateView `json:"probes,omitempty"`
}

type probeStateView struct {
	Phase                string `json:"phase"`
	ConsecutiveSuccesses int32  `json:"consecutive_successes"`
	ConsecutiveFailures  int32  `json:"consecutive_failures"`
	LastResult           string `json:"last_result,omitempty"`
	LastReason           string `json:"last_reason,omitempty"`
}

func newStatusView(status phase.Status) statusView {
	view := statusView{
		ContainerID: status.ContainerID,
		Instance:    status.Instance,
		Startup:     status.Startup.String(),
		Readiness:   status.Readiness.String(),
		Liveness:    status.Liveness.String(),
	}
	if len(status.Probes) > 0 {
		view.Probes = make(map[string]probeStateView, len(status.Probes))
	}
	for t, state := range status.Probes {
		probeView := probeStateView{
			Phase:                state.Phase.String(),
			ConsecutiveSuccesses: state.ConsecutiveSuccesses,
			ConsecutiveFailures:  state.ConsecutiveFailures,
		}
		if state.Phase != probe.Pending {
			probeView.LastResult = state.LastOutcome.Result.String()
			probeView.LastReason = state.LastOutcome.Reason
		}
		view.Probes[t.String()] = probeView
	}
	return view
}
