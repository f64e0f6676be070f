// Package metrics exposes Prometheus instrumentation for scans, dataset
// builds, and ingestion.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Skip reasons recorded on objects dropped during a scan
const (
	SkipReasonMalformed = "malformed"
	SkipReasonFiltered  = "filtered"
	SkipReasonReadError = "read_error"
)

// Metrics holds all Prometheus metrics for SensorLake
type Metrics struct {
	// Counters
	ObjectsScanned   prometheus.Counter
	ObjectsSkipped   *prometheus.CounterVec
	BuildsTotal      *prometheus.CounterVec
	ReadingsIngested *prometheus.CounterVec
	SavedFilterOps   *prometheus.CounterVec

	// Histograms
	BuildDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		ObjectsScanned: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "sensorlake_objects_scanned_total",
				Help: "Total number of bucket objects examined during dataset builds",
			},
		),

		ObjectsSkipped: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "sensorlake_objects_skipped_total",
				Help: "Total number of objects dropped during scans, by reason",
			},
			[]string{"reason"},
		),

		BuildsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "sensorlake_dataset_builds_total",
				Help: "Total number of dataset builds performed",
			},
			[]string{"grouping", "status"},
		),

		ReadingsIngested: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "sensorlake_readings_ingested_total",
				Help: "Total number of readings written to the bucket",
			},
			[]string{"sensor"},
		),

		SavedFilterOps: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "sensorlake_saved_filter_operations_total",
				Help: "Total number of saved-filter operations",
			},
			[]string{"operation"},
		),

		BuildDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sensorlake_dataset_build_duration_seconds",
				Help:    "Duration of dataset builds in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"grouping"},
		),
	}

	return m
}

// RecordBuild records the outcome and duration of one dataset build
func (m *Metrics) RecordBuild(grouping, status string, duration time.Duration) {
	m.BuildsTotal.WithLabelValues(grouping, status).Inc()
	m.BuildDuration.WithLabelValues(grouping).Observe(duration.Seconds())
}

// RecordScanned counts objects examined during a scan
func (m *Metrics) RecordScanned(n int) {
	m.ObjectsScanned.Add(float64(n))
}

// RecordSkipped counts an object dropped during a scan
func (m *Metrics) RecordSkipped(reason string) {
	m.ObjectsSkipped.WithLabelValues(reason).Inc()
}

// RecordIngested counts a reading written to the bucket
func (m *Metrics) RecordIngested(sensor string) {
	m.ReadingsIngested.WithLabelValues(sensor).Inc()
}

// RecordFilterOp counts a saved-filter operation
func (m *Metrics) RecordFilterOp(operation string) {
	m.SavedFilterOps.WithLabelValues(operation).Inc()
}
