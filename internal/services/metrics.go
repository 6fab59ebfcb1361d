// Prometheus counters for domain events. Registered once at package load;
// the /metrics endpoint exposes them alongside the HTTP metrics.
package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	entriesSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dictionary_entries_submitted_total",
			Help: "Total dictionary entries submitted.",
		},
	)

	entriesVerified = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dictionary_entries_verified_total",
			Help: "Total entries promoted to verified by community consensus.",
		},
	)

	entriesRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dictionary_entries_rejected_total",
			Help: "Total entries auto-rejected by community consensus.",
		},
	)

	votesCast = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dictionary_votes_total",
			Help: "Total vote actions, partitioned by outcome.",
		},
		[]string{"action"}, // cast | removed | changed
	)

	verificationsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dictionary_verifications_total",
			Help: "Total verification submissions, partitioned by classification.",
		},
		[]string{"classification"},
	)

	pointsAwarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dictionary_points_awarded_total",
			Help: "Total points credited to users, partitioned by transaction kind.",
		},
		[]string{"kind"},
	)

	badgesEarned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dictionary_badges_earned_total",
			Help: "Total badge grants.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		entriesSubmitted,
		entriesVerified,
		entriesRejected,
		votesCast,
		verificationsSubmitted,
		pointsAwarded,
		badgesEarned,
	)
}
