package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"digital.vasic.jester/pkg/report"
)

// Namespace prefixes every metric name.
const Namespace = "jester"

// PrometheusMetrics implements RunMetrics on a private
// Prometheus registry. It is also a report.Observer, so a
// runner feeds it directly.
type PrometheusMetrics struct {
	registry *prometheus.Registry
	active   atomic.Int64

	modulesTotal    *prometheus.CounterVec
	assertionsTotal *prometheus.CounterVec
	moduleDuration  *prometheus.HistogramVec
	runsTotal       prometheus.Counter
	activeModules   prometheus.Gauge
	lastRunFailed   prometheus.Gauge
	lastRunModules  prometheus.Gauge
	lastRunDuration prometheus.Gauge
}

// NewPrometheusMetrics creates a new PrometheusMetrics with its
// own registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		registry: reg,
		modulesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "modules_total",
			Help:      "Count of executed test modules",
		}, []string{"module", "status"}),
		assertionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "assertions_total",
			Help:      "Count of recorded assertions",
		}, []string{"module", "result"}),
		moduleDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "module_duration_seconds",
			Help:      "Duration of test modules",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}, []string{"status"}),
		runsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "runs_total",
			Help:      "Count of completed runs",
		}),
		activeModules: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "active_modules",
			Help:      "Number of modules currently running",
		}),
		lastRunFailed: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_run_failed_modules",
			Help:      "Failed modules in the most recent run",
		}),
		lastRunModules: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_run_modules",
			Help:      "Modules in the most recent run",
		}),
		lastRunDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Wall time of the most recent run",
		}),
	}
}

func (m *PrometheusMetrics) RecordModule(moduleID, status string, duration time.Duration) {
	m.modulesTotal.WithLabelValues(moduleID, status).Inc()
	m.moduleDuration.WithLabelValues(status).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordAssertion(moduleID, result string) {
	m.assertionsTotal.WithLabelValues(moduleID, result).Inc()
}

func (m *PrometheusMetrics) IncrementRunTotal() {
	m.runsTotal.Inc()
}

func (m *PrometheusMetrics) SetActiveModules(count int) {
	m.active.Store(int64(count))
	m.activeModules.Set(float64(count))
}

// Registry returns the registry holding every metric.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition
// format.
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the registry for the node exporter
// textfile collector.
func (m *PrometheusMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// ModuleStarted bumps the active gauge.
func (m *PrometheusMetrics) ModuleStarted(string) {
	m.activeModules.Set(float64(m.active.Add(1)))
}

// AssertionRecorded counts one outcome.
func (m *PrometheusMetrics) AssertionRecorded(
	moduleID, _ string, passed, skipped bool,
) {
	m.RecordAssertion(moduleID, assertionStatus(passed, skipped))
}

// ModuleFinished records the module and lowers the active gauge.
func (m *PrometheusMetrics) ModuleFinished(result report.ModuleResult) {
	m.activeModules.Set(float64(m.active.Add(-1)))

	status := StatusPassed
	switch {
	case result.Error != "":
		status = StatusError
	case result.Failed > 0:
		status = StatusFailed
	}
	m.RecordModule(result.ID, status, result.Duration)
}

// RunFinished counts the run and stores its totals.
func (m *PrometheusMetrics) RunFinished(summary *report.RunSummary) {
	m.IncrementRunTotal()
	m.lastRunFailed.Set(float64(summary.ModulesFailed))
	m.lastRunModules.Set(float64(summary.ModulesRun))
	m.lastRunDuration.Set(summary.Elapsed.Seconds())
}
