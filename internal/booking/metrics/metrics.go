package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequestsTotal tracks calls against the remote service per
	// operation and HTTP status.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slotbot_api_requests_total",
			Help: "Total number of remote API requests",
		},
		[]string{"op", "status"},
	)

	// APILatency tracks remote call latency per operation.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slotbot_api_latency_seconds",
			Help:    "Remote API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	// SearchAttemptsTotal counts availability polls.
	SearchAttemptsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slotbot_search_attempts_total",
			Help: "Total number of availability search attempts",
		},
	)

	// CandidatesFoundTotal counts eligible slots seen across polls.
	CandidatesFoundTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slotbot_candidates_found_total",
			Help: "Total number of eligible candidate slots returned",
		},
	)

	// BookingAttemptsTotal counts claim submissions by outcome class.
	BookingAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slotbot_booking_attempts_total",
			Help: "Total number of booking attempts",
		},
		[]string{"outcome"},
	)

	// TokenRefreshesTotal counts credential refreshes triggered by 401s.
	TokenRefreshesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slotbot_token_refreshes_total",
			Help: "Total number of credential refreshes",
		},
	)
)
