// Package metrics records per-run Prometheus metrics. A CI job is too short
// for scraping, so the registry is written once to a node_exporter textfile.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcomes for failfix_runs_total.
const (
	OutcomeNoInput    = "no_input"
	OutcomeNoIssues   = "no_issues"
	OutcomeReported   = "reported"
	OutcomeRemediated = "remediated"
	OutcomeError      = "error"
)

// Recorder holds the metrics for one process on a private registry.
//
// Metrics:
//   - failfix_runs_total{outcome} - Runs by final outcome
//   - failfix_categories_detected_total{category,severity} - Detected categories
//   - failfix_commands_total{status} - Remediation commands by status
//   - failfix_remediations_applied_total - Descriptors with at least one successful command
//   - failfix_run_duration_seconds - Wall time of a run
type Recorder struct {
	registry *prometheus.Registry

	RunsTotal          *prometheus.CounterVec
	CategoriesDetected *prometheus.CounterVec
	CommandsTotal      *prometheus.CounterVec
	RemediationsTotal  prometheus.Counter
	RunDuration        prometheus.Histogram
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "failfix_runs_total",
				Help: "Total number of failfix runs by outcome",
			},
			[]string{"outcome"},
		),
		CategoriesDetected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "failfix_categories_detected_total",
				Help: "Total number of failure categories detected",
			},
			[]string{"category", "severity"},
		),
		CommandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "failfix_commands_total",
				Help: "Total number of remediation commands executed by status",
			},
			[]string{"status"}, // "succeeded", "failed" or "timed_out"
		),
		RemediationsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "failfix_remediations_applied_total",
				Help: "Total number of remediations with at least one successful command",
			},
		),
		RunDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "failfix_run_duration_seconds",
				Help:    "Duration of a failfix run in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1200},
			},
		),
	}
}

// Registry returns the private registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Run records a finished run.
func (r *Recorder) Run(outcome string, elapsed time.Duration) {
	r.RunsTotal.WithLabelValues(outcome).Inc()
	r.RunDuration.Observe(elapsed.Seconds())
}

// Category records one detected category.
func (r *Recorder) Category(category, severity string) {
	r.CategoriesDetected.WithLabelValues(category, severity).Inc()
}

// Command records one executed command.
func (r *Recorder) Command(status string) {
	r.CommandsTotal.WithLabelValues(status).Inc()
}

// Applied records one applied remediation.
func (r *Recorder) Applied() {
	r.RemediationsTotal.Inc()
}

// WriteTextfile writes the registry in the text exposition format. An empty
// path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
