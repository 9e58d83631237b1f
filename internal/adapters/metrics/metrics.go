// Package metrics counts compiler activity with Prometheus collectors.
package metrics

import (
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"go.trai.ch/avrogen/internal/core/domain"
	"go.trai.ch/avrogen/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Metrics = (*Metrics)(nil)

const dirPerm = 0o750

// Metrics implements ports.Metrics on a private Prometheus registry.
type Metrics struct {
	registry            *prometheus.Registry
	compilerInvocations *prometheus.CounterVec
	cacheLookups        *prometheus.CounterVec
	fileFailures        *prometheus.CounterVec
}

// New creates the counters and registers them on a new registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		compilerInvocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "avrogen_compiler_invocations_total",
				Help: "Total number of format compiler invocations",
			},
			[]string{"format"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "avrogen_cache_lookups_total",
				Help: "Total number of source directory cache lookups",
			},
			[]string{"result"},
		),
		fileFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "avrogen_file_failures_total",
				Help: "Total number of source files that failed to compile",
			},
			[]string{"format"},
		),
	}
	m.registry.MustRegister(m.compilerInvocations, m.cacheLookups, m.fileFailures)
	return m
}

// Registry returns the registry holding the counters.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// CompilerInvoked implements ports.Metrics.
func (m *Metrics) CompilerInvoked(format domain.Format) {
	m.compilerInvocations.WithLabelValues(format.String()).Inc()
}

// CacheLookup implements ports.Metrics.
func (m *Metrics) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// FileFailed implements ports.Metrics.
func (m *Metrics) FileFailed(format domain.Format) {
	m.fileFailures.WithLabelValues(format.String()).Inc()
}

// WriteTextfile implements ports.Metrics. The file is replaced atomically so a
// node exporter never reads a partial file.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create metrics directory"), "path", path)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write metrics"), "path", path)
	}
	return nil
}
