// Package metrics provides Prometheus metrics for the export pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics
type Metrics struct {
	DocumentsGenerated prometheus.Counter
	DocumentsEmpty     prometheus.Counter
	DocumentsFailed    prometheus.Counter
	GenerationDuration prometheus.Histogram
	JobsCreated        prometheus.Counter
	JobsCompleted      prometheus.Counter
	JobsFailed         prometheus.Counter
	ActiveJobs         prometheus.Gauge
	FHIRReads          *prometheus.CounterVec
	OutboxPending      prometheus.Gauge
}

// New creates and registers all metrics
func New() *Metrics {
	m := &Metrics{
		DocumentsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qrda_documents_generated_total",
			Help: "Total QRDA documents generated",
		}),
		DocumentsEmpty: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qrda_documents_empty_total",
			Help: "Total patients skipped for lack of clinical data",
		}),
		DocumentsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qrda_documents_failed_total",
			Help: "Total failed document generations",
		}),
		GenerationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "qrda_generation_duration_seconds",
			Help:    "Per-patient document generation duration",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		JobsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "export_jobs_created_total",
			Help: "Total export jobs created",
		}),
		JobsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "export_jobs_completed_total",
			Help: "Total export jobs completed",
		}),
		JobsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "export_jobs_failed_total",
			Help: "Total export jobs failed",
		}),
		ActiveJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "export_jobs_active",
			Help: "Currently running export jobs",
		}),
		FHIRReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fhir_reads_total",
			Help: "Total FHIR reads by resource type and outcome",
		}, []string{"resource", "outcome"}),
		OutboxPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "outbox_pending_entries",
			Help: "Pending outbox entries",
		}),
	}

	prometheus.MustRegister(
		m.DocumentsGenerated,
		m.DocumentsEmpty,
		m.DocumentsFailed,
		m.GenerationDuration,
		m.JobsCreated,
		m.JobsCompleted,
		m.JobsFailed,
		m.ActiveJobs,
		m.FHIRReads,
		m.OutboxPending,
	)

	return m
}

// ObserveFHIRRead counts one FHIR read by resource type and outcome.
func (m *Metrics) ObserveFHIRRead(resource, outcome string) {
	m.FHIRReads.WithLabelValues(resource, outcome).Inc()
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
