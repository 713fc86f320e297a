package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transfer metrics
	TransfersPosted  *prometheus.CounterVec
	TransferErrors   *prometheus.CounterVec
	TransferDuration prometheus.Histogram

	// FX metrics
	RateLookups     *prometheus.CounterVec
	PositionUpdates *prometheus.CounterVec

	// Hold metrics
	HoldsCreated  prometheus.Counter
	HoldsVoided   prometheus.Counter
	HoldsCaptured prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Outbox metrics
	OutboxPublished *prometheus.CounterVec
	OutboxErrors    prometheus.Counter
	OutboxBacklog   prometheus.Gauge
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Transfer metrics
		TransfersPosted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_transfers_posted_total",
				Help: "Total number of posted transfers by kind",
			},
			[]string{"kind"},
		),
		TransferErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_transfer_errors_total",
				Help: "Total number of transfer errors by kind and reason",
			},
			[]string{"kind", "reason"},
		),
		TransferDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_transfer_duration_seconds",
			Help:    "Duration of transfer operations",
			Buckets: prometheus.DefBuckets,
		}),

		// FX metrics
		RateLookups: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_rate_lookups_total",
				Help: "Total exchange rate lookups by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		PositionUpdates: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_fx_position_updates_total",
				Help: "Total FX position updates by currency",
			},
			[]string{"currency"},
		),

		// Hold metrics
		HoldsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledger_holds_created_total",
			Help: "Total number of holds created",
		}),
		HoldsVoided: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledger_holds_voided_total",
			Help: "Total number of holds voided",
		}),
		HoldsCaptured: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledger_holds_captured_total",
			Help: "Total number of holds captured",
		}),

		// API metrics
		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Outbox metrics
		OutboxPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_outbox_published_total",
				Help: "Total outbox events published by event type",
			},
			[]string{"event_type"},
		),
		OutboxErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledger_outbox_errors_total",
			Help: "Total outbox publish errors",
		}),
		OutboxBacklog: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "ledger_outbox_backlog",
			Help: "Unpublished outbox events at last poll",
		}),
	}
}
