// Package metrics exposes Prometheus instrumentation for the generation
// workflow. Collectors live on a private registry that the preview server
// serves at /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "instadash"

// Outcome labels.
const (
	OutcomeSuccess    = "success"
	OutcomeValidation = "validation"
	OutcomeTransport  = "transport"
	OutcomeService    = "service"
	OutcomeDecode     = "decode"
	OutcomeError      = "error"
)

// Metrics groups every collector the application records.
type Metrics struct {
	registry *prometheus.Registry

	GenerationsTotal   *prometheus.CounterVec
	GenerationDuration prometheus.Histogram
	ArtifactBytes      prometheus.Histogram
	IngestionsTotal    *prometheus.CounterVec
	ExportsTotal       *prometheus.CounterVec
	InFlight           prometheus.Gauge
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		GenerationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "generation",
				Name:      "attempts_total",
				Help:      "Generation attempts by terminal outcome",
			},
			[]string{"outcome"},
		),
		GenerationDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "generation",
				Name:      "duration_seconds",
				Help:      "Time from request submission to response",
				Buckets:   []float64{.5, 1, 2.5, 5, 10, 20, 40, 80, 120},
			},
		),
		ArtifactBytes: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "generation",
				Name:      "artifact_bytes",
				Help:      "Size of generated HTML artifacts",
				Buckets:   prometheus.ExponentialBuckets(1024, 4, 7),
			},
		),
		IngestionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "files_total",
				Help:      "File ingestions by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		ExportsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "export",
				Name:      "total",
				Help:      "Artifact exports by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		InFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "generation",
				Name:      "in_flight",
				Help:      "1 while a generation request is pending",
			},
		),
	}
}

// Registry returns the registry backing m.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveGeneration records one finished request. A nil m is a no-op.
func (m *Metrics) ObserveGeneration(outcome string, elapsed time.Duration, artifactSize int) {
	if m == nil {
		return
	}
	m.GenerationsTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeValidation {
		return
	}
	m.GenerationDuration.Observe(elapsed.Seconds())
	if outcome == OutcomeSuccess {
		m.ArtifactBytes.Observe(float64(artifactSize))
	}
}

// SetInFlight flips the pending gauge.
func (m *Metrics) SetInFlight(pending bool) {
	if m == nil {
		return
	}
	if pending {
		m.InFlight.Set(1)
	} else {
		m.InFlight.Set(0)
	}
}

// ObserveIngestion records a file-based ingestion.
func (m *Metrics) ObserveIngestion(source string, err error) {
	if m == nil {
		return
	}
	m.IngestionsTotal.WithLabelValues(source, outcomeOf(err)).Inc()
}

// ObserveExport records a copy or download.
func (m *Metrics) ObserveExport(kind string, err error) {
	if m == nil {
		return
	}
	m.ExportsTotal.WithLabelValues(kind, outcomeOf(err)).Inc()
}

func outcomeOf(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}
