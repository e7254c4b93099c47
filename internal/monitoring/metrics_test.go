package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRecordEvaluation_CountsByOutcome checks the outcome label
func TestRecordEvaluation_CountsByOutcome(t *testing.T) {
	before := testutil.ToFloat64(searchEvaluationsTotal.WithLabelValues(OutcomeConstraint))
	RecordEvaluation(OutcomeConstraint)
	RecordEvaluation(OutcomeConstraint)
	after := testutil.ToFloat64(searchEvaluationsTotal.WithLabelValues(OutcomeConstraint))
	assert.Equal(t, before+2, after)
}

// TestRecordDataFetch_FailureOutcome checks errors map to the failure label
func TestRecordDataFetch_FailureOutcome(t *testing.T) {
	before := testutil.ToFloat64(dataFetchTotal.WithLabelValues("yahoo", OutcomeFailure))
	RecordDataFetch("yahoo", errors.New("boom"))
	assert.Equal(t, before+1, testutil.ToFloat64(dataFetchTotal.WithLabelValues("yahoo", OutcomeFailure)))
}

// TestGauges_Set checks best value and week gauges
func TestGauges_Set(t *testing.T) {
	UpdateBestValue(12345.5)
	UpdateSimulatedWeeks(52)
	assert.Equal(t, 12345.5, testutil.ToFloat64(searchBestValue))
	assert.Equal(t, 52.0, testutil.ToFloat64(simulatedWeeks))
}

// TestHealthChecker_Progress checks the JSON endpoint reflects progress
func TestHealthChecker_Progress(t *testing.T) {
	h := NewHealthChecker()
	assert.Equal(t, "idle", h.Status().Status)

	h.StartSession("abc", 10)
	h.RecordEvaluation(100, nil)
	h.RecordEvaluation(250, nil)
	h.RecordEvaluation(0, errors.New("sim failed"))

	rec := httptest.NewRecorder()
	NewMux(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "running", status.Status)
	assert.Equal(t, "abc", status.SessionID)
	assert.Equal(t, 3, status.Evaluations)
	assert.Equal(t, 1, status.Failures)
	assert.Equal(t, 250.0, status.BestValue)
	assert.Equal(t, []string{"sim failed"}, status.Errors)

	h.Finish()
	assert.Equal(t, "done", h.Status().Status)
}

// TestHealthChecker_AllFailuresDegraded checks the 503 path
func TestHealthChecker_AllFailuresDegraded(t *testing.T) {
	h := NewHealthChecker()
	h.StartSession("s", 5)
	h.RecordEvaluation(0, errors.New("x"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// TestMetricsEndpoint_ServesCollectors checks promhttp exposes our metrics
func TestMetricsEndpoint_ServesCollectors(t *testing.T) {
	RecordEvaluation(OutcomeOK)
	rec := httptest.NewRecorder()
	NewMux(NewHealthChecker()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sdca_search_evaluations_total")
}

// TestStartMetricsServer_EmptyAddr checks nothing starts without an address
func TestStartMetricsServer_EmptyAddr(t *testing.T) {
	s := StartMetricsServer("", NewHealthChecker())
	assert.Nil(t, s)
	assert.NoError(t, s.Shutdown(context.Background()))
}
