package metrics

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewWithRegisterer("scheduler", prometheus.NewRegistry())

	m.ObserveOutcome("schedule", "booked")
	m.ObserveOutcome("schedule", "booked")
	m.ObserveOutcome("schedule", "no_availability")
	m.ObserveConflict("create")
	m.ObserveDBQuery("select", time.Millisecond, sql.ErrNoRows)
	m.ObserveDBQuery("insert", time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.outcomes.WithLabelValues("schedule", "booked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outcomes.WithLabelValues("schedule", "no_availability")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.conflicts.WithLabelValues("create")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dbQueries.WithLabelValues("select", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dbQueries.WithLabelValues("insert", "error")))
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveOutcome("cancel", "cancelled")
		m.ObserveConflict("reschedule")
		m.ObserveHTTPRequest("GET", "/api/v1/appointments", 200, time.Second)
		m.SetDBPoolStats(sql.DBStats{})
		m.ObserveReResolve()
	})
}
