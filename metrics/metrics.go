// Package metrics provides Prometheus collectors for allowance computations.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warp/shift-allowance/allowance"
)

// Registry is the custom prometheus registry for the service.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

const (
	OutcomeOK      = "ok"
	OutcomeNoDuty  = "no_duty"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// =============================================================================
// COMPUTE RUNS
// =============================================================================

// ComputeRuns counts Compute calls by outcome.
var ComputeRuns = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "allowance",
	Name:      "compute_runs_total",
	Help:      "Allowance computations by outcome",
}, []string{"outcome"})

var ComputeDuration = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "allowance",
	Name:      "compute_duration_seconds",
	Help:      "Time taken to compute an allowance result",
	Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
})

// EligibleHours observes each month total of a successful run.
var EligibleHours = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "allowance",
	Name:      "eligible_hours",
	Help:      "Eligible hours per computed month",
	Buckets:   []float64{0, 10, 25, 40, 50, 75, 100, 150},
})

var CompLeaveEarned = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "allowance",
	Name:      "comp_leave_days_total",
	Help:      "Compensation leave days earned across computed months",
})

// =============================================================================
// Helper Functions
// =============================================================================

// ObserveRun records one Compute call.
func ObserveRun(result allowance.ComputeResult, elapsed time.Duration, outcome string) {
	ComputeRuns.WithLabelValues(outcome).Inc()
	ComputeDuration.Observe(elapsed.Seconds())
	if outcome != OutcomeOK {
		return
	}
	for _, m := range result.Month {
		EligibleHours.Observe(m.Hours.InexactFloat64())
	}
	for _, co := range result.EarnedCO {
		CompLeaveEarned.Add(float64(co))
	}
}

// Outcome maps a Compute error to its outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, allowance.ErrNoDuty):
		return OutcomeNoDuty
	case allowance.IsClientError(err):
		return OutcomeInvalid
	default:
		return OutcomeError
	}
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
