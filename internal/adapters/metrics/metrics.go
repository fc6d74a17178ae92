// Package metrics implements ports.Metrics with a private Prometheus registry
// written to a node_exporter textfile.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.trai.ch/qpm/internal/core/domain"
	"go.trai.ch/qpm/internal/core/ports"
	"go.trai.ch/zerr"
)

// Namespace prefixes every metric name.
const Namespace = "qpm"

const (
	sourceCache   = "cache"
	sourceNetwork = "network"
)

// Recorder implements ports.Metrics.
type Recorder struct {
	registry *prometheus.Registry
	path     string

	installed *prometheus.CounterVec
	failures  *prometheus.CounterVec
	fetch     prometheus.Histogram
}

var _ ports.Metrics = (*Recorder)(nil)

// NewRecorder creates a Recorder. An empty path disables Flush.
func NewRecorder(path string) *Recorder {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,
		path:     path,
		installed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "packages_installed_total",
			Help:      "Packages materialized into a project, by source.",
		}, []string{"source"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "install_failures_total",
			Help:      "Failed install tasks, by error kind.",
		}, []string{"kind"}),
		fetch: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Time spent downloading and extracting one tarball.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// PackageInstalled counts a materialized package.
func (r *Recorder) PackageInstalled(fromCache bool) {
	source := sourceNetwork
	if fromCache {
		source = sourceCache
	}
	r.installed.WithLabelValues(source).Inc()
}

// InstallFailed counts a failed task.
func (r *Recorder) InstallFailed(kind string) {
	r.failures.WithLabelValues(kind).Inc()
}

// ObserveFetch records one fetch and extract.
func (r *Recorder) ObserveFetch(seconds float64) {
	r.fetch.Observe(seconds)
}

// Flush writes the registry to the configured textfile.
func (r *Recorder) Flush() error {
	if r.path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(r.path, r.registry); err != nil {
		return domain.WrapError(domain.KindFilesystem, zerr.With(err, "path", r.path), "failed to write metrics")
	}
	return nil
}
