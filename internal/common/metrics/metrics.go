// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AlertsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_ingested_total",
			Help: "Total number of alerts upserted via the webhook endpoint",
		},
		[]string{"label"},
	)

	FanOutNotifications = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fanout_notifications_total",
			Help: "Total number of notifications created or reset by fan-out",
		},
	)

	DeliveryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_attempts_total",
			Help: "Total number of delivery attempts by channel",
		},
		[]string{"channel"},
	)

	DeliveryOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_outcomes_total",
			Help: "Terminal and retry outcomes of delivery attempts",
		},
		[]string{"channel", "outcome"},
	)

	DeliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "delivery_duration_seconds",
			Help: "Duration of a single delivery attempt in seconds",
		},
		[]string{"channel"},
	)
)
