// Package metrics holds the prometheus collectors for the vote engine and HTTP layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VoteTransitionsTotal counts committed vote transitions by target type and action
	// (recorded, updated, removed).
	VoteTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qa_vote_transitions_total",
			Help: "Committed vote transitions by target type and action",
		},
		[]string{"target_type", "action"},
	)

	// VoteErrorsTotal counts rejected vote requests by reason.
	VoteErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qa_vote_errors_total",
			Help: "Rejected vote requests by reason",
		},
		[]string{"reason"},
	)

	// VoteConflictRetriesTotal counts vote transactions retried after a write conflict.
	VoteConflictRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qa_vote_conflict_retries_total",
			Help: "Vote transactions retried after a conflicting write",
		},
	)

	// ListingDuration tracks listing query latency in seconds.
	ListingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qa_listing_duration_seconds",
			Help:    "Listing query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"listing"},
	)

	// HTTPRequestsTotal counts HTTP requests by method, route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qa_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)
)
