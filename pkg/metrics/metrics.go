// Package metrics exposes Prometheus instrumentation for graph builds and stores.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all metrics for the application
type Registry struct {
	BuildsTotal    *prometheus.CounterVec
	BuildDuration  prometheus.Histogram
	GraphNodes     prometheus.Gauge
	GraphEdges     prometheus.Gauge
	RecordsSkipped *prometheus.CounterVec

	StoreOperationsTotal   *prometheus.CounterVec
	StoreOperationDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewRegistry creates an isolated registry so tests and servers never share collectors.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	r.initBuildMetrics()
	r.initStoreMetrics()
	return r
}

func (r *Registry) initBuildMetrics() {
	r.BuildsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "netmap_graph_builds_total",
			Help: "Total number of graph builds",
		},
		[]string{"status"},
	)

	r.BuildDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "netmap_graph_build_duration_seconds",
			Help:    "Graph build duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
	)

	r.GraphNodes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "netmap_graph_nodes",
			Help: "Number of nodes in the most recent graph",
		},
	)

	r.GraphEdges = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "netmap_graph_edges",
			Help: "Number of edges in the most recent graph",
		},
	)

	r.RecordsSkipped = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "netmap_inventory_records_skipped_total",
			Help: "Inventory records skipped because a required field was missing",
		},
		[]string{"category"},
	)
}

func (r *Registry) initStoreMetrics() {
	r.StoreOperationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "netmap_store_operations_total",
			Help: "Total number of graph store writes",
		},
		[]string{"store", "status"},
	)

	r.StoreOperationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "netmap_store_operation_duration_seconds",
			Help:    "Graph store write duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"store"},
	)
}

// ObserveBuild records one finished build.
func (r *Registry) ObserveBuild(err error, d time.Duration, nodes, edges int) {
	if r == nil {
		return
	}
	if err != nil {
		r.BuildsTotal.WithLabelValues("error").Inc()
		return
	}
	r.BuildsTotal.WithLabelValues("success").Inc()
	r.BuildDuration.Observe(d.Seconds())
	r.GraphNodes.Set(float64(nodes))
	r.GraphEdges.Set(float64(edges))
}

// RecordSkipped counts a malformed record in category.
func (r *Registry) RecordSkipped(category string) {
	if r == nil {
		return
	}
	r.RecordsSkipped.WithLabelValues(category).Inc()
}

// ObserveStore records one store write.
func (r *Registry) ObserveStore(store string, err error, d time.Duration) {
	if r == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	r.StoreOperationsTotal.WithLabelValues(store, status).Inc()
	r.StoreOperationDuration.WithLabelValues(store).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
