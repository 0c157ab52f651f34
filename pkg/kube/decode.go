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
	"github.com/pkg/errors"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"
)

// ErrNoContainers is returned when a manifest does not define any containers
var ErrNoContainers = errors.New("manifest does not define any containers")

// DecodeContainers decodes containers from a YAML or JSON manifest.
//
// The manifest is either a Pod, in which case its containers are returned, or a single container definition.
// Unknown fields are rejected.
func DecodeContainers(data []byte) ([]corev1.Container, error) {
	var typeMeta metav1.TypeMeta
	if err := yaml.Unmarshal(data, &typeMeta); err != nil {
		return nil, errors.Wrap(err, "failed to decode manifest")
	}

	var containers []corev1.Container
	switch typeMeta.Kind {
	case "Pod":
		var pod corev1.Pod
		if err := yaml.UnmarshalStrict(data, &pod); err != nil {
			return nil, errors.Wrap(err, "failed to decode pod")
		}
		containers = pod.Spec.Containers
	case "":
		var container corev1.Container
		if err := yaml.UnmarshalStrict(data, &container); err != nil {
			return nil, errors.Wrap(err, "failed to decode container")
		}
		containers = []corev1.Container{container}
	default:
		return nil, errors.Errorf("unsupported manifest kind: %s", typeMeta.Kind)
	}
	if len(containers) == 0 {
		return nil, ErrNoContainers
	}
	return containers, nil
}
