package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveGeneration(t *testing.T) {
	tests := []struct {
		name         string
		outcome      string
		wantDuration int
		wantArtifact int
	}{
		{name: "success records size", outcome: OutcomeSuccess, wantDuration: 1, wantArtifact: 1},
		{name: "service error records duration only", outcome: OutcomeService, wantDuration: 1},
		{name: "validation failure skips timing", outcome: OutcomeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			m.ObserveGeneration(tt.outcome, 2*time.Second, 4096)

			require.Equal(t, 1.0, testutil.ToFloat64(m.GenerationsTotal.WithLabelValues(tt.outcome)))
			require.Equal(t, tt.wantDuration, boolInt(hasSamples(t, m, "instadash_generation_duration_seconds")))
			require.Equal(t, tt.wantArtifact, boolInt(hasSamples(t, m, "instadash_generation_artifact_bytes")))
		})
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveGeneration(OutcomeSuccess, time.Second, 10)
	m.ObserveIngestion("upload", nil)
	m.ObserveExport("copy", errors.New("x"))
	m.SetInFlight(true)
}

func TestObserveExportAndIngestion(t *testing.T) {
	m := New()
	m.ObserveExport("copy", nil)
	m.ObserveExport("copy", errors.New("no clipboard"))
	m.ObserveIngestion("drop", nil)

	require.Equal(t, 1.0, testutil.ToFloat64(m.ExportsTotal.WithLabelValues("copy", OutcomeSuccess)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.ExportsTotal.WithLabelValues("copy", OutcomeError)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.IngestionsTotal.WithLabelValues("drop", OutcomeSuccess)))
}

func TestSetInFlight(t *testing.T) {
	m := New()
	m.SetInFlight(true)
	require.Equal(t, 1.0, testutil.ToFloat64(m.InFlight))
	m.SetInFlight(false)
	require.Equal(t, 0.0, testutil.ToFloat64(m.InFlight))
}

func TestHandler_ServesExposition(t *testing.T) {
	m := New()
	m.ObserveGeneration(OutcomeSuccess, time.Second, 100)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `instadash_generation_attempts_total{outcome="success"} 1`)
}

func hasSamples(t *testing.T, m *Metrics, name string) bool {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if metric.GetHistogram().GetSampleCount() > 0 {
				return true
			}
		}
	}
	return false
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
