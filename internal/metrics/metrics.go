package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_http_requests_total",
			Help: "Local API requests by method, path and status code",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agent_http_request_duration_seconds",
			Help:    "Local API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	PendingQueueItems = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "agent_sync_pending_items",
			Help: "Records waiting to reach the remote system of record",
		},
	)

	SyncUploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_sync_uploads_total",
			Help: "Upload attempts by result",
		},
		[]string{"result"},
	)

	SyncPassesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_sync_passes_total",
			Help: "Reconciliation passes by outcome",
		},
		[]string{"outcome"},
	)

	DeliveriesConfirmedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "agent_deliveries_confirmed_total",
			Help: "Delivery verifications completed on this device",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		PendingQueueItems,
		SyncUploadsTotal,
		SyncPassesTotal,
		DeliveriesConfirmedTotal,
	)
}
