// Package metrics exposes Prometheus metrics for BOM runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bom_runs_total",
			Help: "Total number of batch explosion runs",
		},
		[]string{"status"},
	)

	ProductsExploded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bom_products_exploded_total",
			Help: "Total number of products exploded",
		},
	)

	MaterialsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bom_materials_total",
			Help: "Total number of material rows produced",
		},
	)

	ExplosionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bom_explosion_errors_total",
			Help: "Total number of explosion anomalies by kind",
		},
		[]string{"kind"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bom_run_duration_seconds",
			Help:    "Duration of batch explosion runs",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 600},
		},
	)

	LastRun = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bom_last_run_timestamp_seconds",
			Help: "Unix time of the last successful run",
		},
	)
)

// RecordRun updates run metrics.
func RecordRun(status string, products, materials int, errorsByKind map[string]int, took time.Duration, finished time.Time) {
	RunsTotal.WithLabelValues(status).Inc()
	RunDuration.Observe(took.Seconds())
	ProductsExploded.Add(float64(products))
	MaterialsTotal.Add(float64(materials))
	for kind, n := range errorsByKind {
		ExplosionErrors.WithLabelValues(kind).Add(float64(n))
	}
	if status == "completed" {
		LastRun.Set(float64(finished.Unix()))
	}
}
