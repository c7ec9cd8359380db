package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	requestsTotal        *prometheus.CounterVec
	latencySeconds       *prometheus.HistogramVec
	errorsTotal          *prometheus.CounterVec
	submissionsCreated   *prometheus.CounterVec
	optionToggles        prometheus.Counter
	equationFaults       prometheus.Counter
	submissionConflicts  prometheus.Counter
	averageCacheRequests *prometheus.CounterVec
	eventsPublished      *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the engine.
func RegisterMetrics() {
	registerOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exeval_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		latencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "exeval_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		errorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exeval_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		submissionsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exeval_submissions_created_total",
			Help: "Submissions created by the lifecycle manager, by scope.",
		}, []string{"scope"})

		optionToggles = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exeval_option_toggles_total",
			Help: "Submission option selection changes applied.",
		})

		equationFaults = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exeval_equation_faults_total",
			Help: "Calculation templates that faulted and resolved to zero.",
		})

		submissionConflicts = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exeval_submission_conflicts_total",
			Help: "Duplicate-creation races recovered by re-reading.",
		})

		averageCacheRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exeval_average_cache_requests_total",
			Help: "Derived-average cache lookups by outcome.",
		}, []string{"outcome"})

		eventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exeval_events_published_total",
			Help: "Engine events emitted, by action.",
		}, []string{"action"})

		prometheus.MustRegister(
			requestsTotal, latencySeconds, errorsTotal,
			submissionsCreated, optionToggles, equationFaults,
			submissionConflicts, averageCacheRequests, eventsPublished,
		)
	})
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return requestsTotal
}

// Latency exposes the latency histogram for API requests.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return latencySeconds
}

// Errors exposes the counter for API error responses.
func Errors() *prometheus.CounterVec {
	RegisterMetrics()
	return errorsTotal
}

// SubmissionsCreated exposes the counter for lifecycle submission creation.
func SubmissionsCreated() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsCreated
}

// OptionToggles exposes the counter for option selection changes.
func OptionToggles() prometheus.Counter {
	RegisterMetrics()
	return optionToggles
}

// EquationFaults exposes the counter for faulted calculation templates.
func EquationFaults() prometheus.Counter {
	RegisterMetrics()
	return equationFaults
}

// SubmissionConflicts exposes the counter for recovered creation races.
func SubmissionConflicts() prometheus.Counter {
	RegisterMetrics()
	return submissionConflicts
}

// AverageCacheRequests exposes the counter for derived-average cache lookups.
func AverageCacheRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return averageCacheRequests
}

// EventsPublished exposes the counter for emitted engine events.
func EventsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return eventsPublished
}
