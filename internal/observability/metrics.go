package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evd_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "code", "method"},
	)

	RegistrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evd_registrations_total",
			Help: "Registration attempts by outcome",
		},
		[]string{"outcome"},
	)

	PaymentSessionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "evd_payment_sessions_total",
			Help: "Payment checkout sessions created",
		},
	)

	ReplaysSuppressed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "evd_reconcile_replays_suppressed_total",
			Help: "Confirmation replays suppressed by the redirect reconciler",
		},
	)

	DBTxDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "evd_db_tx_seconds",
			Help:    "Duration of DB transactions",
			Buckets: prometheus.DefBuckets,
		},
	)

	OutboxLag = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "evd_outbox_lag_seconds",
			Help: "Lag of outbox publishing",
		},
	)

	RateLimitExceeded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "evd_rate_limit_exceeded_total",
			Help: "Total rate limit exceeded",
		},
	)
)

func InitMetrics() {
	prometheus.MustRegister(RequestsTotal, RegistrationsTotal, PaymentSessionsTotal, ReplaysSuppressed, DBTxDuration, OutboxLag, RateLimitExceeded)
}
