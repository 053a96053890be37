package metrics

import "github.com/prometheus/client_golang/prometheus"

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

	MessagesFannedOutTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "messages_fanned_out_total",
			Help: "Message rows written by mailbox fan-out.",
		},
	)

	RealtimeEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_events_total",
			Help: "Realtime events republished from the store, by kind.",
		},
		[]string{"kind"},
	)

	RealtimeEventsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "realtime_events_dropped_total",
			Help: "Realtime events dropped because a subscriber queue was full.",
		},
	)
)

// MustRegister registers all collectors with the default registerer,
// stamping every series with a service label.
func MustRegister(serviceName string) {
	reg := prometheus.WrapRegistererWith(
		prometheus.Labels{"service": serviceName},
		prometheus.DefaultRegisterer,
	)
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		MessagesFannedOutTotal,
		RealtimeEventsTotal,
		RealtimeEventsDroppedTotal,
	)
}
