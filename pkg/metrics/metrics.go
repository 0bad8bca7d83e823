package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveSessions tracks access sessions currently granting network access.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wifipass_active_sessions",
			Help: "Number of active access sessions",
		},
	)

	// SessionTransitions counts lifecycle transitions by event (created|disconnected|refreshed|expired|device_replaced|purged).
	SessionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wifipass_session_transitions_total",
			Help: "Total number of access session lifecycle transitions",
		},
		[]string{"event"},
	)

	// TokenCollisions counts access code collisions encountered during generation.
	TokenCollisions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wifipass_token_collisions_total",
			Help: "Total number of access code generation collisions",
		},
	)

	// SweepDuration measures how long each expiry sweep holds the registry.
	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wifipass_sweep_duration_seconds",
			Help:    "Duration of expired session sweeps",
			Buckets: prometheus.ExponentialBuckets(0.00005, 4, 8),
		},
	)

	// Payments records purchase attempts by method and result (succeeded|failed).
	Payments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wifipass_payments_total",
			Help: "Total number of plan purchase attempts",
		},
		[]string{"method", "result"},
	)

	// Revenue accumulates successful sales in minor currency units per plan.
	Revenue = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wifipass_revenue_minor_units_total",
			Help: "Revenue from successful plan purchases in minor currency units",
		},
		[]string{"plan"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wifipass_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

var (
	// MaintenanceRuns counts background job executions by job and result (success|failure).
	MaintenanceRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wifipass_maintenance_runs_total",
			Help: "Total number of maintenance job runs",
		},
		[]string{"job", "result"},
	)

	// MaintenanceDuration measures background job run time.
	MaintenanceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wifipass_maintenance_duration_seconds",
			Help:    "Duration of maintenance job runs",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"job"},
	)
)
