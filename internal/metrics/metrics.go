// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics exposes Prometheus instrumentation for graph mutation,
// search, and snapshot persistence. A nil *Metrics is valid and records
// nothing, so components can take it as an optional dependency.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lexgraph"

// Metrics holds the collectors registered on one registry.
type Metrics struct {
	Registry *prometheus.Registry

	generations        *prometheus.CounterVec
	generationDuration prometheus.Histogram
	entriesSkipped     *prometheus.CounterVec
	nodesCreated       prometheus.Counter
	edgesCreated       prometheus.Counter
	snapshotSaves      *prometheus.CounterVec
	searchDuration     prometheus.Histogram
	graphNodes         prometheus.Gauge
	graphEdges         prometheus.Gauge
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		generations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Generation batches by status.",
		}, []string{"status"}),
		generationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Wall time of one generation request, including the model call.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
		entriesSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_skipped_total",
			Help:      "Relation entries skipped during validation, by reason.",
		}, []string{"reason"}),
		nodesCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_created_total",
			Help:      "Nodes created by generation batches.",
		}),
		edgesCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edges_created_total",
			Help:      "Edges created by generation batches.",
		}),
		snapshotSaves: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_saves_total",
			Help:      "Snapshot save attempts by result.",
		}, []string{"result"}),
		searchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Latency of match plus expand.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		graphNodes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Nodes in the live graph.",
		}),
		graphEdges: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_edges",
			Help:      "Edges in the live graph.",
		}),
	}
}

// ObserveGeneration records one finished batch.
func (m *Metrics) ObserveGeneration(status string, d time.Duration, nodesCreated, edgesCreated int) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(status).Inc()
	m.generationDuration.Observe(d.Seconds())
	m.nodesCreated.Add(float64(nodesCreated))
	m.edgesCreated.Add(float64(edgesCreated))
}

// SkippedEntry counts one entry dropped for reason.
func (m *Metrics) SkippedEntry(reason string) {
	if m == nil {
		return
	}
	m.entriesSkipped.WithLabelValues(reason).Inc()
}

// SnapshotSaved counts a save attempt.
func (m *Metrics) SnapshotSaved(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.snapshotSaves.WithLabelValues(result).Inc()
}

// ObserveSearch records the latency of one search.
func (m *Metrics) ObserveSearch(d time.Duration) {
	if m == nil {
		return
	}
	m.searchDuration.Observe(d.Seconds())
}

// SetGraphSize updates the graph size gauges.
func (m *Metrics) SetGraphSize(nodes, edges int) {
	if m == nil {
		return
	}
	m.graphNodes.Set(float64(nodes))
	m.graphEdges.Set(float64(edges))
}

// WriteTextfile writes all metrics to path in the node-exporter textfile
// format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
