package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors exported on /metrics. Construct it
// once at startup; promauto registers on the default registry.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	RateLimitRejections *prometheus.CounterVec
	SecurityViolations  prometheus.Counter

	SubmissionsTotal *prometheus.CounterVec
	RewardDecisions  *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "study_requests_total",
				Help: "Total HTTP requests handled",
			},
			[]string{"endpoint", "method", "status"},
		),

		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "study_request_duration_seconds",
				Help:    "Request handling latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),

		RateLimitRejections: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "study_rate_limit_rejections_total",
				Help: "Requests rejected by the rate limiter",
			},
			[]string{"endpoint"},
		),

		SecurityViolations: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "study_security_violations_total",
				Help: "Submissions rejected for suspicious content",
			},
		),

		SubmissionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "study_submissions_total",
				Help: "Submission outcomes",
			},
			[]string{"outcome"}, // accepted, replayed, rejected
		),

		RewardDecisions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "study_reward_decisions_total",
				Help: "Reward selection outcomes",
			},
			[]string{"outcome"}, // selected, not_selected, already_decided, cooldown, no_activity
		),
	}
}

// RecordRequest counts one handled request and observes its latency.
func (m *Metrics) RecordRequest(endpoint, method string, status int, seconds float64) {
	m.RequestsTotal.WithLabelValues(endpoint, method, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(endpoint).Observe(seconds)
}

// RecordRateLimited counts one 429 rejection.
func (m *Metrics) RecordRateLimited(endpoint string) {
	m.RateLimitRejections.WithLabelValues(endpoint).Inc()
}

// RecordSecurityViolation counts one rejected suspicious submission.
func (m *Metrics) RecordSecurityViolation() {
	m.SecurityViolations.Inc()
}

// RecordSubmission counts a submission outcome.
func (m *Metrics) RecordSubmission(outcome string) {
	m.SubmissionsTotal.WithLabelValues(outcome).Inc()
}

// RecordRewardDecision counts a reward selection outcome.
func (m *Metrics) RecordRewardDecision(outcome string) {
	m.RewardDecisions.WithLabelValues(outcome).Inc()
}
