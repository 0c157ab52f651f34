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

package probetest

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// FindMetricFamily returns the first metric family that matches the filter
func FindMetricFamily(mfs []*dto.MetricFamily, accept func(mf *dto.MetricFamily) bool) *dto.MetricFamily {
	for _, mf := range mfs {
		if accept(mf) {
			return mf
		}
	}
	return nil
}

// MetricValue gathers the metrics and returns the sum of the counter, gauge or histogram sample count values of the
// named metric whose labels match. Labels that are not specified match any value.
func MetricValue(gatherer prometheus.Gatherer, name string, labels map[string]string) (float64, error) {
	mfs, err := gatherer.Gather()
	if err != nil {
		return 0, err
	}
	mf := FindMetricFamily(mfs, func(mf *dto.MetricFamily) bool {
		return mf.GetName() == name
	})
	if mf == nil {
		return 0, nil
	}

	var total float64
	for _, m := range mf.Metric {
		if !matchLabels(m, labels) {
			continue
		}
		switch mf.GetType() {
		case dto.MetricType_COUNTER:
			total += m.GetCounter().GetValue()
		case dto.MetricType_GAUGE:
			total += m.GetGauge().GetValue()
		case dto.MetricType_HISTOGRAM:
			total += float64(m.GetHistogram().GetSampleCount())
		}
	}
	return total, nil
}

func matchLabels(m *dto.Metric, labels map[string]string) bool {
	matched := 0
	for _, pair := range m.Label {
		if value, ok := labels[pair.GetName()]; ok {
			if value != pair.GetValue() {
				return false
			}
			matched++
		}
	}
	return matched == len(labels)
}
