package metrics

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.jester/pkg/report"
)

func TestPrometheusMetrics_ImplementsInterfaces(t *testing.T) {
	var _ RunMetrics = &PrometheusMetrics{}
	var _ report.Observer = &PrometheusMetrics{}
	var _ RunMetrics = NoopMetrics{}
}

func TestPrometheusMetrics_RecordModule(t *testing.T) {
	m := NewPrometheusMetrics()
	m.RecordModule("mod-1", StatusPassed, 2*time.Second)
	m.RecordModule("mod-1", StatusPassed, 3*time.Second)
	m.RecordModule("mod-2", StatusFailed, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.modulesTotal.WithLabelValues("mod-1", StatusPassed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.modulesTotal.WithLabelValues("mod-2", StatusFailed)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.moduleDuration))
}

func TestPrometheusMetrics_RunTotal(t *testing.T) {
	m := NewPrometheusMetrics()
	m.IncrementRunTotal()
	m.IncrementRunTotal()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.runsTotal))
}

func TestPrometheusMetrics_SetActiveModules(t *testing.T) {
	m := NewPrometheusMetrics()
	m.SetActiveModules(5)
	assert.Equal(t, 5.0, testutil.ToFloat64(m.activeModules))
}

func TestPrometheusMetrics_Observer(t *testing.T) {
	m := NewPrometheusMetrics()

	m.ModuleStarted("a")
	m.ModuleStarted("b")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.activeModules))

	m.AssertionRecorded("a", "one", true, false)
	m.AssertionRecorded("a", "two", false, false)
	m.AssertionRecorded("a", "three", false, true)
	m.ModuleFinished(report.ModuleResult{ID: "a", Total: 2, Failed: 1})
	m.ModuleFinished(report.ModuleResult{ID: "b", Error: "boom"})
	m.RunFinished(&report.RunSummary{
		ModulesRun: 2, ModulesFailed: 2, Elapsed: 1500 * time.Millisecond,
	})

	assert.Equal(t, 0.0, testutil.ToFloat64(m.activeModules))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.assertionsTotal.WithLabelValues("a", StatusSkipped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.assertionsTotal.WithLabelValues("a", StatusFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.modulesTotal.WithLabelValues("a", StatusFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.modulesTotal.WithLabelValues("b", StatusError)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.lastRunFailed))
	assert.Equal(t, 1.5, testutil.ToFloat64(m.lastRunDuration))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsTotal))
}

func TestPrometheusMetrics_WriteTextfile(t *testing.T) {
	m := NewPrometheusMetrics()
	m.IncrementRunTotal()

	path := filepath.Join(t.TempDir(), "jester.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "jester_runs_total 1")
}

func TestPrometheusMetrics_WriteTextfile_BadDir(t *testing.T) {
	err := NewPrometheusMetrics().WriteTextfile(
		filepath.Join(t.TempDir(), "missing", "x.prom"))
	assert.ErrorContains(t, err, "write metrics textfile")
}

func TestPrometheusMetrics_Handler(t *testing.T) {
	m := NewPrometheusMetrics()
	m.RecordAssertion("mod", StatusPassed)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `jester_assertions_total{module="mod",result="passed"} 1`)
}

func TestNoopMetrics(t *testing.T) {
	m := NoopMetrics{}
	assert.NotPanics(t, func() {
		m.RecordModule("mod", StatusPassed, time.Second)
		m.RecordAssertion("mod", StatusPassed)
		m.IncrementRunTotal()
		m.SetActiveModules(0)
	})
}
