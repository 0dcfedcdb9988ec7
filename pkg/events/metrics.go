// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package events

import (
	"bytes"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// MetricsSink counts every emitted event by name, attached to the Emitter
// only when --profile is set. It exists so a profiled run leaves behind a
// real Prometheus-format counter dump (clone_metrics.prom) instead of
// hand-rolled tallying.
type MetricsSink struct {
	registry *prometheus.Registry
	events   *prometheus.CounterVec
	phases   *prometheus.HistogramVec
}

// NewMetricsSink builds a MetricsSink with its own private registry, so
// repeated runs within the same process (tests, long-lived tooling) never
// collide on prometheus's global default registry.
func NewMetricsSink() *MetricsSink {
	reg := prometheus.NewRegistry()
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cloneforge_events_total",
		Help: "Count of orchestrator events emitted during a clone run, by event name.",
	}, []string{"event"})
	phases := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cloneforge_phase_seconds",
		Help:    "Wall-clock seconds spent in each named orchestrator phase.",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase"})
	reg.MustRegister(events, phases)
	return &MetricsSink{registry: reg, events: events, phases: phases}
}

// Emit implements Sink: it tallies the event by name and, for phase_end
// events, records the phase's elapsed_seconds field in the phase histogram.
func (m *MetricsSink) Emit(env Envelope) error {
	m.events.WithLabelValues(string(env.Event)).Inc()
	if env.Event == PhaseEnd {
		if phase, ok := env.Fields["phase"].(string); ok {
			if elapsed, ok := env.Fields["elapsed_seconds"].(float64); ok {
				m.phases.WithLabelValues(phase).Observe(elapsed)
			}
		}
	}
	return nil
}

// WriteText renders every collected metric in Prometheus text exposition
// format, for writing to clone_metrics.prom under --profile.
func (m *MetricsSink) WriteText() ([]byte, error) {
	mfs, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
