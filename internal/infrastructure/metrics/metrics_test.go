package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.RecordUpdate("checkin")
	m.RecordUpdate("checkin")
	m.RecordCheckIn()
	m.RecordJobRun("motivation", nil)
	m.RecordJobRun("motivation", errors.New("boom"))
	m.RecordStoreOp("load", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.UpdatesTotal.WithLabelValues("checkin")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CheckInsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobRunsTotal.WithLabelValues("motivation", StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobRunsTotal.WithLabelValues("motivation", StatusError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOpsTotal.WithLabelValues("load", StatusOK)))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordUpdate("start")
		m.RecordCheckIn()
		m.RecordJobRun("x", nil)
		m.RecordStoreOp("save", nil)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.RecordCheckIn()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "habitbot_checkins_total 1"))
}
