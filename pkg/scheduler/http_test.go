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

package scheduler_test

import (
	"encoding/json"
	"github.com/oysterpack/probekit/pkg/probe"
	"github.com/oysterpack/probekit/pkg/probetest"
	"github.com/oysterpack/probekit/pkg/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type statusJSON struct {
	ContainerID string `json:"container"`
	Instance    uint64 `json:"instance"`
	Startup     string `json:"startup"`
	Readiness   string `json:"readiness"`
	Liveness    string `json:"liveness"`
	Probes      map[string]struct {
		Phase                string `json:"phase"`
		ConsecutiveSuccesses int32  `json:"consecutive_successes"`
		LastResult           string `json:"last_result"`
	} `json:"probes"`
}

func get(t *testing.T, handler http.HandlerFunc, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	resp := httptest.NewRecorder()
	handler(resp, req)
	return resp
}

func TestStatusHandler(t *testing.T) {
	t.Parallel()

	s := newScheduler(t, probe.Executors{probe.HTTPGet: probetest.NewScriptedExecutor()})
	handler := http.HandlerFunc(scheduler.StatusHandler(s.Scheduler))

	resp := get(t, handler, scheduler.StatusEndpoint)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, "[]", resp.Body.String())

	_, err := s.Schedule("web-1", probe.ContainerSpec{Readiness: spec(httpTarget, 10*time.Millisecond, 1, 3)})
	require.NoError(t, err)
	_, err = s.Schedule("web-2", probe.ContainerSpec{})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		status, ok := s.Status("web-1")
		return ok && status.Readiness.String() == "Ready"
	}, waitFor, tick)

	resp = get(t, handler, scheduler.StatusEndpoint)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "application/json", resp.Header().Get("Content-Type"))
	var statuses []statusJSON
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &statuses))
	require.Len(t, statuses, 2)
	assert.Equal(t, "web-1", statuses[0].ContainerID)
	assert.Equal(t, "web-2", statuses[1].ContainerID)
	assert.Empty(t, statuses[1].Probes)

	resp = get(t, handler, scheduler.StatusEndpoint+"?container=web-1")
	require.Equal(t, http.StatusOK, resp.Code)
	var status statusJSON
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &status))
	assert.Equal(t, uint64(1), status.Instance)
	assert.Equal(t, "Ready", status.Readiness)
	assert.Equal(t, "Alive", status.Liveness)
	readiness, ok := status.Probes["readiness"]
	require.True(t, ok)
	assert.Equal(t, "Succeeded", readiness.Phase)
	assert.Equal(t, "success", readiness.LastResult)
	assert.True(t, readiness.ConsecutiveSuccesses >= 1)
}

func TestStatusHandler_NotFound(t *testing.T) {
	t.Parallel()

	s := newScheduler(t, nil)
	resp := get(t, scheduler.StatusHandler(s.Scheduler), scheduler.StatusEndpoint+"?container=web-1")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestStatusHandler_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	s := newScheduler(t, nil)
	req := httptest.NewRequest(http.MethodPost, scheduler.StatusEndpoint, nil)
	resp := httptest.NewRecorder()
	scheduler.StatusHandler(s.Scheduler)(resp, req)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.Code)
}
