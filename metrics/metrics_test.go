package metrics_test

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/shift-allowance/allowance"
	"github.com/warp/shift-allowance/metrics"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, metrics.OutcomeOK, metrics.Outcome(nil))
	assert.Equal(t, metrics.OutcomeNoDuty, metrics.Outcome(allowance.ErrNoDuty))
	assert.Equal(t, metrics.OutcomeInvalid, metrics.Outcome(&allowance.EventError{Reason: "end before start"}))
	assert.Equal(t, metrics.OutcomeError, metrics.Outcome(errors.New("disk full")))
}

func TestObserveRun(t *testing.T) {
	// GIVEN: A successful two-month result with 2 CO days
	// WHEN: Observing it, then a failed run
	// THEN: Counters move by the result's contents, failures only count the run

	okBefore := testutil.ToFloat64(metrics.ComputeRuns.WithLabelValues(metrics.OutcomeOK))
	noDutyBefore := testutil.ToFloat64(metrics.ComputeRuns.WithLabelValues(metrics.OutcomeNoDuty))
	coBefore := testutil.ToFloat64(metrics.CompLeaveEarned)

	result := allowance.ComputeResult{
		Month:    []allowance.Detail{{Hours: decimal.RequireFromString("8.75")}, {Hours: decimal.RequireFromString("44.55")}},
		Day:      [][]allowance.Detail{nil, nil},
		EarnedCO: []int{0, 2},
	}
	metrics.ObserveRun(result, 2*time.Millisecond, metrics.OutcomeOK)
	metrics.ObserveRun(allowance.ComputeResult{}, time.Millisecond, metrics.OutcomeNoDuty)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(metrics.ComputeRuns.WithLabelValues(metrics.OutcomeOK)))
	assert.Equal(t, noDutyBefore+1, testutil.ToFloat64(metrics.ComputeRuns.WithLabelValues(metrics.OutcomeNoDuty)))
	assert.Equal(t, coBefore+2, testutil.ToFloat64(metrics.CompLeaveEarned))
}

func TestHandler(t *testing.T) {
	metrics.ObserveRun(allowance.ComputeResult{}, time.Millisecond, metrics.OutcomeError)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "allowance_compute_runs_total")
	assert.Contains(t, rec.Body.String(), "allowance_compute_duration_seconds")
}
