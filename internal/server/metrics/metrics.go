// Package metrics defines the Prometheus instruments exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsIssued counts successfully issued view sessions.
	SessionsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "noteaccess_sessions_issued_total",
		Help: "Number of view sessions issued.",
	})

	// ContentRequests counts content requests by HTTP status.
	ContentRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "noteaccess_content_requests_total",
		Help: "Number of content requests served, by status code.",
	}, []string{"status"})

	// BytesStreamed counts content bytes written to clients.
	BytesStreamed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "noteaccess_bytes_streamed_total",
		Help: "Total content bytes streamed to clients.",
	})

	// PolicyDenials counts policy/validation denials by machine code.
	PolicyDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "noteaccess_policy_denials_total",
		Help: "Number of denied requests, by denial code.",
	}, []string{"code"})

	// SecuritySignals counts emitted security signals by type.
	SecuritySignals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "noteaccess_security_signals_total",
		Help: "Number of security signals recorded, by signal type.",
	}, []string{"type"})
)
