// Package metrics exposes Prometheus metrics for analysis runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/access-log-analyzer/backend/internal/models"
)

const namespace = "log_analyzer"

// Recorder owns the analyzer metrics and the registry they live in.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	runsTotal      *prometheus.CounterVec
	linesTotal     *prometheus.CounterVec
	recordsTotal   *prometheus.CounterVec
	runDuration    prometheus.Histogram
	activeAnalyses prometheus.Gauge
	uploadBytes    prometheus.Counter
}

// NewRecorder creates a recorder with a fresh registry that also carries
// the Go runtime and process collectors.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewRecorderWithRegistry(reg)
}

// NewRecorderWithRegistry registers the analyzer metrics on reg.
func NewRecorderWithRegistry(reg *prometheus.Registry) *Recorder {
	r := &Recorder{
		registry: reg,
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Analysis runs by outcome",
			},
			[]string{"outcome"},
		),
		linesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lines_total",
				Help:      "Input lines read, by kind (valid or skipped)",
			},
			[]string{"kind"},
		),
		recordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_total",
				Help:      "Validated lines, by result (parsed or rejected)",
			},
			[]string{"result"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Wall-clock duration of an analysis run",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		activeAnalyses: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_analyses",
				Help:      "Analyses currently running",
			},
		),
		uploadBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upload_bytes_total",
				Help:      "Bytes received through file uploads",
			},
		),
	}

	reg.MustRegister(
		r.runsTotal,
		r.linesTotal,
		r.recordsTotal,
		r.runDuration,
		r.activeAnalyses,
		r.uploadBytes,
	)
	return r
}

// Outcome labels for RunFinished.
const (
	OutcomeOK        = "ok"
	OutcomeNoRecords = "no_records"
	OutcomeFailed    = "failed"
	OutcomeCanceled  = "canceled"
)

// RunStarted marks an analysis as active.
func (r *Recorder) RunStarted() {
	if r == nil {
		return
	}
	r.activeAnalyses.Inc()
}

// RunFinished records the outcome of a run. snap may be nil when the run
// failed before reading.
func (r *Recorder) RunFinished(outcome string, snap *models.Snapshot, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.activeAnalyses.Dec()
	r.runsTotal.WithLabelValues(outcome).Inc()
	r.runDuration.Observe(elapsed.Seconds())

	if snap == nil {
		return
	}
	r.linesTotal.WithLabelValues("valid").Add(float64(snap.Reading.ValidLines))
	r.linesTotal.WithLabelValues("skipped").Add(float64(snap.Reading.SkippedLines))
	r.recordsTotal.WithLabelValues("parsed").Add(float64(snap.Parsing.ParsedCount))
	r.recordsTotal.WithLabelValues("rejected").Add(float64(snap.Parsing.FailedCount))
}

// UploadReceived counts uploaded bytes.
func (r *Recorder) UploadReceived(size int64) {
	if r == nil || size <= 0 {
		return
	}
	r.uploadBytes.Add(float64(size))
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
