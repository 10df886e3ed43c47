// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AdmissionMetrics instruments the vote admission pipeline. Rejections
// are labelled by reason code so dashboards can separate out-of-window
// traffic from duplicate votes.
type AdmissionMetrics struct {
	VotesAccepted  *prometheus.CounterVec
	VotesRejected  *prometheus.CounterVec
	AdmissionTime  prometheus.Histogram
	TallyDrift     prometheus.Gauge
	CreditFailures prometheus.Counter
}

// NewAdmissionMetrics registers the admission metrics with reg. Pass
// prometheus.DefaultRegisterer in main; tests use a fresh registry so
// repeated construction does not collide.
func NewAdmissionMetrics(namespace string, reg prometheus.Registerer) *AdmissionMetrics {
	factory := promauto.With(reg)
	return &AdmissionMetrics{
		VotesAccepted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "votes_accepted_total",
				Help:      "Total number of ballots committed to the ledger",
			},
			[]string{"election_id"},
		),
		VotesRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "votes_rejected_total",
				Help:      "Total number of vote requests rejected, by reason",
			},
			[]string{"reason"},
		),
		AdmissionTime: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "vote_admission_seconds",
				Help:      "Latency of the full vote admission pipeline",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
			},
		),
		TallyDrift: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "tally_drift_candidates",
				Help:      "Candidates whose counter disagreed with the ledger at the last reconciliation",
			},
		),
		CreditFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "credit_decrement_failures_total",
				Help:      "Best-effort credit decrements that failed after a committed vote",
			},
		),
	}
}
