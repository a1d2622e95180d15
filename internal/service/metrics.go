package service

import (
	"github.com/prometheus/client_golang/prometheus"

	"reviewapi/internal/cache"
)

// Metrics are the domain counters of the review service. A nil *Metrics is valid and records nothing.
type Metrics struct {
	created         prometheus.Counter
	statusUpdates   *prometheus.CounterVec
	cleanupFailures prometheus.Counter
	cacheEvents     *prometheus.CounterVec
}

// NewMetrics creates the review counters and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reviews_created_total",
			Help: "Total number of reviews submitted.",
		}),
		statusUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "review_status_updates_total",
			Help: "Total number of review status changes, by new status.",
		}, []string{"status"}),
		cleanupFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "review_media_cleanup_failures_total",
			Help: "Review images that could not be removed from storage.",
		}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "review_list_cache_events_total",
			Help: "Review list cache events (hit, miss, set, invalidate, error).",
		}, []string{"event"}),
	}

	for _, c := range []prometheus.Collector{m.created, m.statusUpdates, m.cleanupFailures, m.cacheEvents} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// CacheObserver feeds cache events into review_list_cache_events_total.
func (m *Metrics) CacheObserver() cache.Observer {
	return func(event string) {
		if m == nil {
			return
		}
		m.cacheEvents.WithLabelValues(event).Inc()
	}
}

func (m *Metrics) reviewCreated() {
	if m != nil {
		m.created.Inc()
	}
}

func (m *Metrics) statusUpdated(status string) {
	if m != nil {
		m.statusUpdates.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) cleanupFailed() {
	if m != nil {
		m.cleanupFailures.Inc()
	}
}
