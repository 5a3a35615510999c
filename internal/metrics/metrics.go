// Package metrics exposes Prometheus counters for booking and offline replay.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BookingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "roombook_bookings_total", Help: "Booking attempts by outcome"},
		[]string{"outcome"}, // booked, none, queued, error
	)
	ReleasesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "roombook_releases_total", Help: "Release attempts by status"},
		[]string{"status"},
	)
	QueuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "roombook_offline_queued_total", Help: "Commands deferred while offline"},
		[]string{"kind"},
	)
	ReplayTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "roombook_offline_replayed_total", Help: "Replayed offline commands by result"},
		[]string{"kind", "result"}, // applied, failed, skipped
	)
	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "roombook_offline_queue_depth", Help: "Commands waiting for replay"},
	)
	ReplayDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "roombook_offline_replay_seconds",
			Help:    "Time spent draining the offline queue",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(BookingsTotal, ReleasesTotal, QueuedTotal, ReplayTotal, QueueDepth, ReplayDuration)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
