package devserver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the orchestrator's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	// RebuildsTotal counts completed rebuild cycles by result.
	RebuildsTotal *prometheus.CounterVec

	// BuildDuration observes rebuild cycle durations.
	BuildDuration prometheus.Histogram

	// ConnectedClients tracks live-reload subscribers.
	ConnectedClients prometheus.Gauge

	// FileEventsTotal counts watched file events by kind.
	FileEventsTotal *prometheus.CounterVec
}

// NewMetrics creates the collectors on a fresh registry, so repeated runs
// in one process never double-register.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		RebuildsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relight",
			Name:      "rebuilds_total",
			Help:      "Completed rebuild cycles by result.",
		}, []string{"result"}),
		BuildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "relight",
			Name:      "build_duration_seconds",
			Help:      "Rebuild cycle duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
		ConnectedClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "relight",
			Name:      "connected_clients",
			Help:      "Currently connected live-reload subscribers.",
		}),
		FileEventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relight",
			Name:      "file_events_total",
			Help:      "Watched file events by kind.",
		}, []string{"kind"}),
	}
}

// Registry returns the backing registry for exposition.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Sink returns a subscriber that records rebuild events.
func (m *Metrics) Sink() Subscriber {
	return SubscriberFunc(func(ev RebuildEvent) {
		switch ev.Kind {
		case RebuildFinished:
			result := "success"
			if !ev.OK {
				result = "failure"
			}
			m.RebuildsTotal.WithLabelValues(result).Inc()
			m.BuildDuration.Observe(ev.Duration.Seconds())
		case FileCreated:
			m.FileEventsTotal.WithLabelValues("created").Inc()
		case FileChanged:
			m.FileEventsTotal.WithLabelValues("changed").Inc()
		case FileDeleted:
			m.FileEventsTotal.WithLabelValues("deleted").Inc()
		}
	})
}
