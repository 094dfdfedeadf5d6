package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	require.NoError(t, err)

	r.RecordRegistration("ok")
	r.RecordRegistration("ok")
	r.RecordRegistration("event_full")
	r.RecordCheckIn("already_attended")
	r.RecordRetry("register")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.registrations.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.registrations.WithLabelValues("event_full")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.checkIns.WithLabelValues("already_attended")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.retries.WithLabelValues("register")))

	rr := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `campusticketing_registrations_total{outcome="event_full"} 1`)
}

func TestNewRecorder_DoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewRecorder(reg)
	require.NoError(t, err)
	_, err = NewRecorder(reg)
	require.Error(t, err)
}
