package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	TokenAcquisitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_token_acquisitions_total",
			Help: "Device token acquisition attempts by outcome.",
		},
		[]string{"result"},
	)

	TokenRegistrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_token_registrations_total",
			Help: "Device token writes per sink and outcome.",
		},
		[]string{"sink", "result"},
	)

	NotificationsShownTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_shown_total",
			Help: "Notifications displayed, by delivery context.",
		},
		[]string{"context"},
	)

	NotificationsDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_dropped_total",
			Help: "Push payloads dropped without display, by delivery context and reason.",
		},
		[]string{"context", "reason"},
	)

	SnapshotsDeliveredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collection_snapshots_delivered_total",
			Help: "Collection snapshots delivered to mirror subscribers.",
		},
		[]string{"collection"},
	)

	ChatRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_relay_requests_total",
			Help: "Chat relay requests by outcome.",
		},
		[]string{"result"},
	)

	BroadcastsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcasts_published_total",
			Help: "Operator broadcasts published, by channel and outcome.",
		},
		[]string{"channel", "result"},
	)
)

var registerOnce sync.Once

// MustRegister registers every collector with the default registry. Safe to
// call more than once.
func MustRegister() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			TokenAcquisitionsTotal,
			TokenRegistrationsTotal,
			NotificationsShownTotal,
			NotificationsDroppedTotal,
			SnapshotsDeliveredTotal,
			ChatRequestsTotal,
			BroadcastsPublishedTotal,
		)
	})
}
