package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_requests_created_total",
		Help: "Total number of guest requests created",
	}, []string{"kind"})

	RequestTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_request_transitions_total",
		Help: "Total number of request lifecycle transitions",
	}, []string{"action", "result"})

	RequestsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_requests_rejected_total",
		Help: "Total number of guest requests rejected",
	}, []string{"reason"})

	CartMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_cart_mutations_total",
		Help: "Total number of cart mutations",
	}, []string{"op"})

	PhoneVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_phone_verifications_total",
		Help: "Total number of phone verification attempts",
	}, []string{"result"})

	OccupancyChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_occupancy_changes_total",
		Help: "Total number of check-ins, checkouts and rooms marked ready",
	}, []string{"op"})

	StaysPaidTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_stays_paid_total",
		Help: "Total number of stays marked paid",
	})

	BoardBuildLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "portal_board_build_latency_seconds",
		Help:    "Latency of building a live board snapshot",
		Buckets: prometheus.DefBuckets,
	})

	BroadcastsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_broadcasts_total",
		Help: "Total number of board pushes per outcome",
	}, []string{"result"})

	LiveConnections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "portal_live_connections",
		Help: "Open live board websocket connections",
	}, []string{"mode"})

	LiveRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_live_rejections_total",
		Help: "Total number of rejected live board connection attempts",
	}, []string{"reason"})

	EventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_events_published_total",
		Help: "Total number of lifecycle events published",
	}, []string{"type", "result"})

	BoardSyncEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_board_sync_events_total",
		Help: "Total number of lifecycle events applied by the board sync worker",
	}, []string{"kind", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
