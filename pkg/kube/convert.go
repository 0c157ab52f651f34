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

package kube

import (
	"github.com/oysterpack/probekit/pkg/probe"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"strconv"
)

// conversion errors
var (
	ErrNamedPortNotFound     = errors.New("named port is not declared by the container")
	ErrHandlerRequired       = errors.New("probe handler is required")
	ErrMultipleHandlers      = errors.New("only one probe handler may be specified")
	ErrContainerNameRequired = errors.New("container name is required")
)

// ContainerSpec converts the container's probes into a validated probe.ContainerSpec.
//
// Each probe that fails to convert contributes a *probe.ConfigurationError to the returned error.
func ContainerSpec(container *corev1.Container) (probe.ContainerSpec, error) {
	var spec probe.ContainerSpec
	if container.Name == "" {
		return spec, ErrContainerNameRequired
	}
	probes := map[probe.Type]*corev1.Probe{
		probe.Startup:   container.StartupProbe,
		probe.Liveness:  container.LivenessProbe,
		probe.Readiness: container.ReadinessProbe,
	}
	var err error
	for _, t := range probe.Types {
		p := probes[t]
		if p == nil {
			continue
		}
		opts, e := SpecOpts(t, p, container.Ports)
		if e != nil {
			err = multierr.Append(err, e)
			continue
		}
		s, e := opts.New(t)
		if e != nil {
			err = multierr.Append(err, e)
			continue
		}
		switch t {
		case probe.Startup:
			spec.Startup = s
		case probe.Liveness:
			spec.Liveness = s
		case probe.Readiness:
			spec.Readiness = s
		}
	}
	if err != nil {
		return probe.ContainerSpec{}, err
	}
	return spec, nil
}

// SpecOpts converts a Kubernetes probe into probe.SpecOpts. Named ports are resolved against the container ports.
//
// A blank host defaults to probe.DefaultHost rather than the pod IP.
func SpecOpts(t probe.Type, p *corev1.Probe, ports []corev1.ContainerPort) (probe.SpecOpts, error) {
	target, err := Target(p.ProbeHandler, ports)
	if err != nil {
		return probe.SpecOpts{}, &probe.ConfigurationError{Probe: t, Err: err}
	}
	return probe.SpecOpts{
		Target:              target,
		InitialDelaySeconds: p.InitialDelaySeconds,
		PeriodSeconds:       p.PeriodSeconds,
		TimeoutSeconds:      p.TimeoutSeconds,
		SuccessThreshold:    p.SuccessThreshold,
		FailureThreshold:    p.FailureThreshold,
	}, nil
}

// Target converts the probe handler into a probe.Target.
// gRPC handlers are rejected with probe.ErrUnsupportedTargetKind.
func Target(handler corev1.ProbeHandler, ports []corev1.ContainerPort) (probe.Target, error) {
	count := 0
	for _, set := range []bool{handler.HTTPGet != nil, handler.TCPSocket != nil, handler.Exec != nil, handler.GRPC != nil} {
		if set {
			count++
		}
	}
	switch {
	case count == 0:
		return nil, ErrHandlerRequired
	case count > 1:
		return nil, ErrMultipleHandlers
	}

	switch {
	case handler.HTTPGet != nil:
		action := handler.HTTPGet
		port, err := resolvePort(action.Port, ports)
		if err != nil {
			return nil, err
		}
		target := probe.HTTPGetAction{
			Scheme: string(action.Scheme),
			Host:   action.Host,
			Port:   port,
			Path:   action.Path,
		}
		for _, header := range action.HTTPHeaders {
			target.Headers = append(target.Headers, probe.HTTPHeader{Name: header.Name, Value: header.Value})
		}
		return target, nil
	case handler.TCPSocket != nil:
		port, err := resolvePort(handler.TCPSocket.Port, ports)
		if err != nil {
			return nil, err
		}
		return probe.TCPSocketAction{Host: handler.TCPSocket.Host, Port: port}, nil
	case handler.Exec != nil:
		return probe.ExecAction{Command: append([]string(nil), handler.Exec.Command...)}, nil
	default:
		return nil, errors.Wrap(probe.ErrUnsupportedTargetKind, "grpc")
	}
}

// resolvePort resolves named ports using the container port declarations.
// A string that is not a declared port name is parsed as a port number.
func resolvePort(port intstr.IntOrString, ports []corev1.ContainerPort) (int, error) {
	if port.Type == intstr.Int {
		return port.IntValue(), nil
	}
	name := port.StrVal
	for _, p := range ports {
		if p.Name == name {
			return int(p.ContainerPort), nil
		}
	}
	if n, err := strconv.Atoi(name); err == nil {
		return n, nil
	}
	return 0, errors.Wrapf(ErrNamedPortNotFound, "%q", name)
}
