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
	"github.com/oysterpack/probekit/pkg/phase"
	"github.com/oysterpack/probekit/pkg/probe"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
)

// metric names
const (
	metricsNamespace = "probekit"

	OutcomesMetric          = "probekit_probe_outcomes_total"
	DurationMetric          = "probekit_probe_duration_seconds"
	TransitionsMetric       = "probekit_probe_transitions_total"
	ActionsMetric           = "probekit_lifecycle_actions_total"
	TicksSkippedMetric      = "probekit_probe_ticks_skipped_total"
	OutcomesDiscardedMetric = "probekit_probe_outcomes_discarded_total"
	ContainersMetric        = "probekit_containers"
)

type metrics struct {
	outcomes    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	transitions *prometheus.CounterVec
	actions     *prometheus.CounterVec
	skipped     *prometheus.CounterVec
	discarded   *prometheus.CounterVec
}

func newMetrics() *metrics {
	return &metrics{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "probe",
			Name:      "outcomes_total",
			Help:      "Probe invocation outcomes",
		}, []string{"probe", "kind", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "probe",
			Name:      "duration_seconds",
			Help:      "Probe invocation duration",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"probe", "kind"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "probe",
			Name:      "transitions_total",
			Help:      "Probe health transitions",
		}, []string{"probe", "transition"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "lifecycle",
			Name:      "actions_total",
			Help:      "Lifecycle actions sent to the lifecycle manager",
		}, []string{"action"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "probe",
			Name:      "ticks_skipped_total",
			Help:      "Probe ticks skipped because the previous invocation was still in flight",
		}, []string{"probe"}),
		discarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "probe",
			Name:      "outcomes_discarded_total",
			Help:      "Probe outcomes discarded because the probe was no longer active or the container instance was restarted",
		}, []string{"probe"}),
	}
}

// register registers the scheduler metrics, including a gauge that reports the number of scheduled containers
func (m *metrics) register(registerer prometheus.Registerer, containerCount func() float64) error {
	var err error
	for _, collector := range []prometheus.Collector{m.outcomes, m.duration, m.transitions, m.actions, m.skipped, m.discarded} {
		err = multierr.Append(err, registerer.Register(collector))
	}
	containers := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "containers",
		Help:      "Number of scheduled containers",
	}, containerCount)
	return multierr.Append(err, registerer.Register(containers))
}

func (m *metrics) observeOutcome(t probe.Type, kind probe.Kind, outcome probe.Outcome) {
	m.outcomes.WithLabelValues(t.String(), kind.String(), outcome.Result.String()).Inc()
	m.duration.WithLabelValues(t.String(), kind.String()).Observe(outcome.Duration.Seconds())
}

func (m *metrics) observeTransition(t probe.Type, transition probe.Transition) {
	m.transitions.WithLabelValues(t.String(), transition.String()).Inc()
}

func (m *metrics) observeAction(action phase.Action) {
	m.actions.WithLabelValues(action.Type.String()).Inc()
}

func (m *metrics) tickSkipped(t probe.Type) {
	m.skipped.WithLabelValues(t.String()).Inc()
}

func (m *metrics) outcomeDiscarded(t probe.Type) {
	m.discarded.WithLabelValues(t.String()).Inc()
}
