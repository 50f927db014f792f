// Package metrics exposes the Prometheus collectors of the delivery pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DeliveriesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tips_deliveries_created_total",
		Help: "Delivery rows inserted, by channel",
	}, []string{"channel"})

	DeliveryDuplicates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tips_delivery_duplicates_total",
		Help: "Delivery inserts skipped because the row already existed",
	})

	DeliveriesRead = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tips_deliveries_read_total",
		Help: "Deliveries moved from sent to read",
	})

	DailyBatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tips_daily_batch_duration_seconds",
		Help:    "Duration of the daily delivery batch",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})
)
