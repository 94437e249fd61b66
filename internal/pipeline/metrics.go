package pipeline

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "manifest_pipeline"

// Stage names used as metric labels and in logs.
const (
	StageResolve   = "resolve"
	StageNormalize = "normalize"
	StageMigrate   = "migrate"
	StageValidate  = "validate"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Metrics contains the pipeline's Prometheus collectors.
type Metrics struct {
	StageRuns         *prometheus.CounterVec
	StageDuration     *prometheus.HistogramVec
	MigrationsApplied *prometheus.CounterVec
	LinkedReferences  prometheus.Counter
	Diagnostics       *prometheus.CounterVec
}

// NewMetrics creates the pipeline metrics and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		StageRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "stage",
				Name:      "runs_total",
				Help:      "Total number of stage runs by outcome",
			},
			[]string{"stage", "status"},
		),

		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "stage",
				Name:      "duration_seconds",
				Help:      "Stage duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stage"},
		),

		MigrationsApplied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "migrations",
				Name:      "applied_total",
				Help:      "Total number of migrations recorded in manifests",
			},
			[]string{"migration"},
		),

		LinkedReferences: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "normalize",
				Name:      "linked_references_total",
				Help:      "Total number of values rewritten into linked references",
			},
		),

		Diagnostics: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "diagnostics",
				Name:      "total",
				Help:      "Total number of diagnostics by severity",
			},
			[]string{"severity"},
		),
	}

	if reg == nil {
		return m, nil
	}

	for _, c := range []prometheus.Collector{
		m.StageRuns, m.StageDuration, m.MigrationsApplied, m.LinkedReferences, m.Diagnostics,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register pipeline metrics: %w", err)
		}
	}

	return m, nil
}
