// Package metrics declares the Prometheus metrics of the advisor and the
// HTTP handler that exposes them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Recommendation metrics
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faculty_advisor_recommendations_total",
			Help: "Recommendations produced, by source and faculty",
		},
		[]string{"source", "faculty"},
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "faculty_advisor_recommendation_duration_seconds",
			Help:    "Time to produce a recommendation",
			Buckets: prometheus.DefBuckets,
		},
	)

	ClassifierFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faculty_advisor_classifier_fallbacks_total",
			Help: "Requests answered by the keyword scorer instead of the classifier",
		},
		[]string{"reason"}, // "unavailable", "prediction", "breaker_open", "context", "not_ready"
	)

	ClassifierBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "faculty_advisor_classifier_breaker_state",
			Help: "Classifier circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// Training metrics
	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faculty_advisor_training_runs_total",
			Help: "Classifier training runs by outcome",
		},
		[]string{"outcome"},
	)

	ValidationAccuracy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "faculty_advisor_classifier_validation_accuracy",
			Help: "Validation accuracy of the active classifier",
		},
	)

	// Bot metrics
	UpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faculty_advisor_updates_total",
			Help: "Telegram updates handled, by kind",
		},
		[]string{"kind"},
	)

	ApplicationsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faculty_advisor_applications_total",
			Help: "Applications submitted, by faculty",
		},
		[]string{"faculty"},
	)

	TrackerDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "faculty_advisor_tracker_dropped_events_total",
			Help: "Recommendation events dropped because the tracker queue was full",
		},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
