// Package metrics exposes Prometheus instruments for the relay.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes.
const (
	StatusSuccess    = "success"
	StatusFailure    = "failure"
	StatusBadRequest = "bad_request"
)

var (
	// SubmissionRequests counts handled submission requests by outcome.
	SubmissionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submission_requests_total",
			Help: "Total number of submission requests handled",
		},
		[]string{"status"},
	)

	// MailSendDuration measures provider send latency.
	MailSendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mail_send_duration_seconds",
			Help:    "Mail provider send duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"provider", "status"},
	)

	// HTTPRequestDuration measures request handling latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		},
		[]string{"method", "route", "status"},
	)
)

// IncrementSubmission records one submission outcome.
func IncrementSubmission(status string) {
	SubmissionRequests.WithLabelValues(status).Inc()
}

// ObserveSend records one provider send.
func ObserveSend(provider string, err error, duration time.Duration) {
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	}
	MailSendDuration.WithLabelValues(provider, status).Observe(duration.Seconds())
}

// RecordHTTPRequestDuration records one handled HTTP request.
func RecordHTTPRequestDuration(method, route, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}
