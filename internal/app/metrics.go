package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "arbdash",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "API request latency by route template.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	streamClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "arbdash",
		Subsystem: "stream",
		Name:      "clients",
		Help:      "Currently connected SSE subscribers.",
	})

	streamEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arbdash",
		Subsystem: "stream",
		Name:      "events_total",
		Help:      "SSE events emitted, by event name.",
	}, []string{"event"})

	storeMalformedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arbdash",
		Subsystem: "store",
		Name:      "malformed_total",
		Help:      "Documents or log lines discarded as unparsable, by file.",
	}, []string{"file"})

	alertsForwardedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "arbdash",
		Subsystem: "watcher",
		Name:      "alerts_forwarded_total",
		Help:      "Alerts forwarded to notification channels.",
	})

	pauseTogglesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arbdash",
		Subsystem: "control",
		Name:      "pause_toggles_total",
		Help:      "Pause flag transitions requested via the API.",
	}, []string{"state"})
)
