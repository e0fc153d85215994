package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xweeter_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "xweeter_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// ReplyEvents counts reply lifecycle operations by outcome.
	ReplyEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xweeter_reply_events_total",
		Help: "Reply operations by operation and outcome",
	}, []string{"operation", "outcome"})

	// LikeEvents counts like operations by outcome.
	LikeEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xweeter_like_events_total",
		Help: "Like operations by operation and outcome",
	}, []string{"operation", "outcome"})

	// MediaUploads counts media uploads by blob store backend and outcome.
	MediaUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xweeter_media_uploads_total",
		Help: "Media uploads by backend and outcome",
	}, []string{"backend", "outcome"})

	// MediaUploadBytes records the size of stored media objects.
	MediaUploadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "xweeter_media_upload_bytes",
		Help:    "Size of stored media objects in bytes",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
	})

	// BroadcastsTotal counts published real-time events by topic and transport.
	BroadcastsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xweeter_broadcasts_total",
		Help: "Real-time events published by topic and transport",
	}, []string{"topic", "transport"})

	// WebSocketConnectionsTotal is the gauge of active WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "xweeter_websocket_connections",
		Help: "Number of active WebSocket connections",
	})

	// WebSocketEventsTotal counts inbound WebSocket events by type.
	WebSocketEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xweeter_websocket_events_total",
		Help: "Total inbound WebSocket events by type",
	}, []string{"event_type"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xweeter_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// Outcome labels shared by the counters above.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// Outcome maps an error to an outcome label.
func Outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
