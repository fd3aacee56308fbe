package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lookup outcomes recorded per identifier type
const (
	OutcomeFound           = "found"
	OutcomeEmpty           = "empty"
	OutcomeNotApplicable   = "not_applicable"
	OutcomeCredentialError = "credential_error"
	OutcomeRateLimited     = "rate_limited"
	OutcomeServiceError    = "service_error"
	OutcomeFailed          = "failed"
)

var (
	Lookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "barcode_lookups_total",
			Help: "Total number of catalog lookups by identifier type and outcome",
		},
		[]string{"id_type", "outcome"},
	)

	DuplicatesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "barcode_duplicates_skipped_total",
			Help: "Total number of catalog items skipped because their catalog id was already matched",
		},
	)

	ResolveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "barcode_resolve_duration_seconds",
			Help:    "Time taken to resolve a barcode across all identifier types",
			Buckets: prometheus.DefBuckets,
		},
	)
)
