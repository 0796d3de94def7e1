// Package metrics defines the Prometheus collectors exported by moviebot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActionInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviebot_action_invocations_total",
			Help: "Action invocations by action name and outcome",
		},
		[]string{"action", "outcome"}, // outcome: ok, missing_slot, validation, insufficient_candidates, not_found, external_failure, panic
	)

	ActionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moviebot_action_duration_seconds",
			Help:    "Time spent running an action",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)

	ExternalFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviebot_external_failures_total",
			Help: "Failed calls to external collaborators",
		},
		[]string{"service", "kind"}, // service: store, content, generation
	)

	CandidateCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviebot_candidate_cache_total",
			Help: "Candidate cache lookups by result",
		},
		[]string{"result"}, // hit, miss, error
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "moviebot_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)
