package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	require.NoError(t, m.Track("ar:reconcile").End(nil))
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("ar:reconcile").End(boom), boom)

	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("ar:reconcile", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("ar:reconcile", "failure")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("ar:reconcile")))
}

func TestGauges(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.SetLowStock(3)
	m.SetReceivablesDrift(1)
	require.Equal(t, 3.0, testutil.ToFloat64(m.lowStockItems))
	require.Equal(t, 1.0, testutil.ToFloat64(m.driftClients))

	var nilMetrics *Metrics
	nilMetrics.SetLowStock(1)
	require.NoError(t, nilMetrics.Track("x").End(nil))
}
