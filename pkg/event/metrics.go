// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package event

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PromRecorder is a Recorder backed by Prometheus counters and a histogram,
// following the observability package's metric-naming convention
// (subsystem_metric_unit).
type PromRecorder struct {
	emitted prometheus.Histogram
	dropped prometheus.Counter
}

// NewPromRecorder registers the event stream's metrics against reg and
// returns a Recorder. workflowID is attached as a constant label so metrics
// from concurrent workflow executions don't collide.
func NewPromRecorder(reg prometheus.Registerer, workflowID string) (*PromRecorder, error) {
	labels := prometheus.Labels{"workflow_id": workflowID}

	emitted := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace:   "dagflow",
		Subsystem:   "event_stream",
		Name:        "emit_duration_seconds",
		Help:        "Time spent appending an event and waking subscribers.",
		ConstLabels: labels,
		Buckets:     prometheus.DefBuckets,
	})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   "dagflow",
		Subsystem:   "event_stream",
		Name:        "dropped_events_total",
		Help:        "Events evicted from a bounded stream before being read.",
		ConstLabels: labels,
	})

	if err := reg.Register(emitted); err != nil {
		return nil, err
	}
	if err := reg.Register(dropped); err != nil {
		return nil, err
	}

	return &PromRecorder{emitted: emitted, dropped: dropped}, nil
}

// ObserveEmit implements Recorder.
func (r *PromRecorder) ObserveEmit(d time.Duration) {
	r.emitted.Observe(d.Seconds())
}

// IncDropped implements Recorder.
func (r *PromRecorder) IncDropped() {
	r.dropped.Inc()
}

var _ Recorder = (*PromRecorder)(nil)
