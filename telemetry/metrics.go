// Package telemetry provides Prometheus metrics for the chat engine.
package telemetry

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	MessagesPosted   prometheus.Counter
	MessagesRejected prometheus.Counter
	Refreshes        prometheus.Counter
	StoreErrors      prometheus.Counter

	StoreLatency   prometheus.Observer
	RefreshLatency prometheus.Observer

	ActiveSessions prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		MessagesPosted = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_messages_posted_total", Help: "Number of messages accepted and appended"})
		MessagesRejected = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_messages_rejected_total", Help: "Number of messages rejected by validation"})
		Refreshes = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_refreshes_total", Help: "Number of feed refreshes served"})
		StoreErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_store_errors_total", Help: "Number of failed message store operations"})
		StoreLatency = promauto.NewHistogram(prometheus.HistogramOpts{Name: "chat_store_duration_seconds", Help: "Message store round trip seconds", Buckets: prometheus.DefBuckets})
		RefreshLatency = promauto.NewHistogram(prometheus.HistogramOpts{Name: "chat_refresh_duration_seconds", Help: "Refresh duration seconds", Buckets: prometheus.DefBuckets})
		ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{Name: "chat_active_sessions", Help: "Currently registered sessions"})
	})
}

// Inc increments c if metrics have been initialized.
func Inc(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}

// SetActiveSessions records the current registry size.
func SetActiveSessions(n int) {
	if ActiveSessions != nil {
		ActiveSessions.Set(float64(n))
	}
}

// TimeFunc measures the duration of fn and records it in obs if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}
