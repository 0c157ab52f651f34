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
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"testing"
	"time"
)

var ports = []corev1.ContainerPort{
	{Name: "http", ContainerPort: 8080},
	{Name: "admin", ContainerPort: 9090},
}

func TestTarget_HTTPGet(t *testing.T) {
	t.Parallel()

	target, err := kube.Target(corev1.ProbeHandler{
		HTTPGet: &corev1.HTTPGetAction{
			Path:        "/healthz",
			Port:        intstr.FromString("http"),
			Scheme:      corev1.URISchemeHTTPS,
			HTTPHeaders: []corev1.HTTPHeader{{Name: "X-Probe", Value: "readiness"}},
		},
	}, ports)
	require.NoError(t, err)
	action, ok := target.(probe.HTTPGetAction)
	require.True(t, ok)
	assert.Equal(t, 8080, action.Port)
	assert.Equal(t, "https://localhost:8080/healthz", action.URL())
	assert.Equal(t, []probe.HTTPHeader{{Name: "X-Probe", Value: "readiness"}}, action.Headers)
}

func TestTarget_TCPSocket(t *testing.T) {
	t.Parallel()

	target, err := kube.Target(corev1.ProbeHandler{
		TCPSocket: &corev1.TCPSocketAction{Port: intstr.FromInt(6379), Host: "10.0.0.7"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, probe.TCPSocketAction{Host: "10.0.0.7", Port: 6379}, target)
}

func TestTarget_Exec(t *testing.T) {
	t.Parallel()

	target, err := kube.Target(corev1.ProbeHandler{
		Exec: &corev1.ExecAction{Command: []string{"cat", "/tmp/healthy"}},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, probe.ExecAction{Command: []string{"cat", "/tmp/healthy"}}, target)
}

func TestTarget_NumericPortString(t *testing.T) {
	t.Parallel()

	target, err := kube.Target(corev1.ProbeHandler{
		TCPSocket: &corev1.TCPSocketAction{Port: intstr.FromString("5432")},
	}, ports)
	require.NoError(t, err)
	assert.Equal(t, 5432, target.(probe.TCPSocketAction).Port)
}

func TestTarget_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler corev1.ProbeHandler
		err     error
	}{
		{"no handler", corev1.ProbeHandler{}, kube.ErrHandlerRequired},
		{
			"multiple handlers",
			corev1.ProbeHandler{
				Exec:      &corev1.ExecAction{Command: []string{"true"}},
				TCPSocket: &corev1.TCPSocketAction{Port: intstr.FromInt(80)},
			},
			kube.ErrMultipleHandlers,
		},
		{
			"unknown named port",
			corev1.ProbeHandler{HTTPGet: &corev1.HTTPGetAction{Port: intstr.FromString("metrics")}},
			kube.ErrNamedPortNotFound,
		},
		{
			"grpc",
			corev1.ProbeHandler{GRPC: &corev1.GRPCAction{Port: 50051}},
			probe.ErrUnsupportedTargetKind,
		},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			_, err := kube.Target(test.handler, ports)
			if !errors.Is(err, test.err) {
				t.Errorf("*** expected %v but got: %v", test.err, err)
			}
		})
	}
}

func TestContainerSpec(t *testing.T) {
	t.Parallel()

	container := &corev1.Container{
		Name:  "web",
		Ports: ports,
		StartupProbe: &corev1.Probe{
			ProbeHandler:     corev1.ProbeHandler{HTTPGet: &corev1.HTTPGetAction{Path: "/started", Port: intstr.FromString("http")}},
			PeriodSeconds:    2,
			FailureThreshold: 30,
		},
		LivenessProbe: &corev1.Probe{
			ProbeHandler:        corev1.ProbeHandler{TCPSocket: &corev1.TCPSocketAction{Port: intstr.FromString("admin")}},
			InitialDelaySeconds: 5,
		},
		ReadinessProbe: &corev1.Probe{
			ProbeHandler:     corev1.ProbeHandler{Exec: &corev1.ExecAction{Command: []string{"true"}}},
			TimeoutSeconds:   3,
			SuccessThreshold: 2,
		},
	}

	spec, err := kube.ContainerSpec(container)
	require.NoError(t, err)
	assert.Equal(t, []probe.Type{probe.Startup, probe.Liveness, probe.Readiness}, spec.Configured())

	assert.Equal(t, 2*time.Second, spec.Startup.Period)
	assert.Equal(t, int32(30), spec.Startup.FailureThreshold)

	assert.Equal(t, 5*time.Second, spec.Liveness.InitialDelay)
	assert.Equal(t, probe.DefaultPeriod, spec.Liveness.Period)
	assert.Equal(t, probe.TCPSocketAction{Port: 9090}, spec.Liveness.Target)

	assert.Equal(t, 3*time.Second, spec.Readiness.Timeout)
	assert.Equal(t, int32(2), spec.Readiness.SuccessThreshold)
	assert.Equal(t, int32(probe.DefaultFailureThreshold), spec.Readiness.FailureThreshold)
}

func TestContainerSpec_NoProbes(t *testing.T) {
	t.Parallel()

	spec, err := kube.ContainerSpec(&corev1.Container{Name: "sidecar"})
	require.NoError(t, err)
	assert.Empty(t, spec.Configured())
}

func TestContainerSpec_NameRequired(t *testing.T) {
	t.Parallel()

	_, err := kube.ContainerSpec(&corev1.Container{})
	assert.Equal(t, kube.ErrContainerNameRequired, err)
}

func TestContainerSpec_Invalid(t *testing.T) {
	t.Parallel()

	container := &corev1.Container{
		Name: "web",
		LivenessProbe: &corev1.Probe{
			ProbeHandler: corev1.ProbeHandler{GRPC: &corev1.GRPCAction{Port: 50051}},
		},
		ReadinessProbe: &corev1.Probe{
			ProbeHandler:  corev1.ProbeHandler{TCPSocket: &corev1.TCPSocketAction{Port: intstr.FromInt(80)}},
			PeriodSeconds: -1,
		},
		StartupProbe: &corev1.Probe{
			ProbeHandler:     corev1.ProbeHandler{TCPSocket: &corev1.TCPSocketAction{Port: intstr.FromInt(80)}},
			SuccessThreshold: 3,
		},
	}

	_, err := kube.ContainerSpec(container)
	require.Error(t, err)
	errs := multierr.Errors(err)
	require.Len(t, errs, 3)
	probeTypes := make(map[probe.Type]bool)
	for _, e := range errs {
		var configErr *probe.ConfigurationError
		require.True(t, errors.As(e, &configErr), "expected *probe.ConfigurationError: %v", e)
		probeTypes[configErr.Probe] = true
	}
	assert.Len(t, probeTypes, 3)
	assert.True(t, errors.Is(err, probe.ErrUnsupportedTargetKind))
	assert.True(t, errors.Is(err, probe.ErrSuccessThresholdNot1))
}
