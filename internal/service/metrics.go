package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ── 业务指标 ──

var (
	acceptOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingua_accept_total",
			Help: "Accept attempts by outcome (won, already_assigned, invalid, error)",
		},
		[]string{"outcome"},
	)

	requestTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingua_request_transitions_total",
			Help: "Translation request status transitions",
		},
		[]string{"from", "to"},
	)

	applicationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingua_applications_total",
			Help: "Translator applications by outcome",
		},
		[]string{"outcome"},
	)

	ratingsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingua_ratings_submitted_total",
			Help: "Ratings submitted by rater role",
		},
		[]string{"role"},
	)

	assignmentsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingua_assignments_completed_total",
			Help: "Assignments completed by trigger (both_rated, grace_period)",
		},
		[]string{"trigger"},
	)
)
