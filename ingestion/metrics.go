// Copyright 2025 Poiesic Systems
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


package ingestion

import (
	"time"

	"github.com/poiesic/corpora/core"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "corpora"

// Document outcome labels.
const (
	documentInserted = "inserted"
	documentSkipped  = "skipped"
	documentFailed   = "failed"
)

// Metrics collects ingest counters in a private registry.
// A nil *Metrics records nothing.
type Metrics struct {
	registry  *prometheus.Registry
	documents *prometheus.CounterVec
	archives  *prometheus.CounterVec
	batches   prometheus.Counter
	batchTime prometheus.Histogram
	indexTime *prometheus.HistogramVec
}

// NewMetrics creates the ingest metrics and registers them.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "documents_total",
			Help:      "Archive entries handled, by outcome.",
		}, []string{"outcome"}),
		archives: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "archives_total",
			Help:      "Archives processed, by outcome.",
		}, []string{"outcome"}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "batches_total",
			Help:      "Batches inserted into the store.",
		}),
		batchTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "batch_insert_seconds",
			Help:      "Time spent inserting one batch.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		indexTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "index_build_seconds",
			Help:      "Time spent building one index.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"field"}),
	}
	m.registry.MustRegister(m.documents, m.archives, m.batches, m.batchTime, m.indexTime)
	return m
}

// Registry returns the registry holding the ingest metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteToTextfile writes the metrics in the Prometheus text format, for
// collection by the node exporter's textfile collector.
func (m *Metrics) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) countDocuments(outcome string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.documents.WithLabelValues(outcome).Add(float64(n))
}

func (m *Metrics) countArchive(outcome core.ArchiveOutcome) {
	if m == nil {
		return
	}
	m.archives.WithLabelValues(outcome.String()).Inc()
}

func (m *Metrics) observeBatch(d time.Duration) {
	if m == nil {
		return
	}
	m.batches.Inc()
	m.batchTime.Observe(d.Seconds())
}

func (m *Metrics) observeIndex(field string, d time.Duration) {
	if m == nil {
		return
	}
	m.indexTime.WithLabelValues(field).Observe(d.Seconds())
}
