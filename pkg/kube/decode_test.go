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

package kube_test

import (
	"github.com/oysterpack/probekit/pkg/kube"
	"github.com/oysterpack/probekit/pkg/probe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

const podManifest = `
apiVersion: v1
kind: Pod
metadata:
  name: web
spec:
  containers:
  - name: web
    image: nginx:1.25
    ports:
    - name: http
      containerPort: 80
    readinessProbe:
      httpGet:
        path: /
        port: http
      periodSeconds: 5
  - name: cache
    image: redis:7
    livenessProbe:
      tcpSocket:
        port: 6379
`

const containerManifest = `
name: worker
image: busybox
livenessProbe:
  exec:
    command: ["cat", "/tmp/healthy"]
  initialDelaySeconds: 5
`

func TestDecodeContainers_Pod(t *testing.T) {
	t.Parallel()

	containers, err := kube.DecodeContainers([]byte(podManifest))
	require.NoError(t, err)
	require.Len(t, containers, 2)
	assert.Equal(t, "web", containers[0].Name)
	assert.Equal(t, "cache", containers[1].Name)

	spec, err := kube.ContainerSpec(&containers[0])
	require.NoError(t, err)
	require.NotNil(t, spec.Readiness)
	assert.Equal(t, "http://localhost:80/", spec.Readiness.Target.(probe.HTTPGetAction).URL())
}

func TestDecodeContainers_Container(t *testing.T) {
	t.Parallel()

	containers, err := kube.DecodeContainers([]byte(containerManifest))
	require.NoError(t, err)
	require.Len(t, containers, 1)
	assert.Equal(t, "worker", containers[0].Name)
	require.NotNil(t, containers[0].LivenessProbe)
	assert.Equal(t, []string{"cat", "/tmp/healthy"}, containers[0].LivenessProbe.Exec.Command)
}

func TestDecodeContainers_Invalid(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"unknown field":    "name: web\nhealthCheck: {}\n",
		"unsupported kind": "apiVersion: apps/v1\nkind: Deployment\n",
		"no containers":    "apiVersion: v1\nkind: Pod\nspec: {}\n",
		"not yaml":         "[unclosed",
	}
	for name, manifest := range tests {
		manifest := manifest
		t.Run(name, func(t *testing.T) {
			_, err := kube.DecodeContainers([]byte(manifest))
			assert.Error(t, err)
		})
	}
}
