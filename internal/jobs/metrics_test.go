package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	require.NoError(t, m.Track("quotation:issued").End(nil))
	boom := errors.New("render failed")
	require.ErrorIs(t, m.Track("quotation:issued").End(boom), boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("quotation:issued", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("quotation:issued", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("quotation:issued")))
}

func TestNilMetricsAreInert(t *testing.T) {
	var m *Metrics
	boom := errors.New("x")
	assert.ErrorIs(t, m.Track("job").End(boom), boom)
	m.AddMailSkipped("job", 3)
}

func TestAddMailSkipped(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddMailSkipped("reclamation:filed", 2)
	m.AddMailSkipped("reclamation:filed", 0)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.skipped.WithLabelValues("reclamation:filed")))
}
