package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records sign-in attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resumine_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// PasswordResets counts password-reset flow outcomes per step
	// (request|verify|complete) and result (success|failure|rate_limited).
	PasswordResets = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resumine_password_resets_total",
			Help: "Total number of password reset operations",
		},
		[]string{"step", "result"},
	)

	// EnhanceRequests counts resume enhancement calls to the inference backend.
	EnhanceRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resumine_enhance_requests_total",
			Help: "Total number of resume enhancement requests",
		},
		[]string{"result"},
	)

	// ActiveSessions tracks active sessions (not expired/revoked).
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "resumine_active_sessions",
			Help: "Number of active sessions",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "resumine_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
