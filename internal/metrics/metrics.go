package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values.
const (
	ResultOK       = "ok"
	ResultError    = "error"
	ResultRejected = "rejected"
	ResultApplied  = "applied"
	ResultDropped  = "dropped"
)

// Metrics holds the console's Prometheus collectors on a private registry.
type Metrics struct {
	RegistryOps  *prometheus.CounterVec // op, result
	FeedDials    *prometheus.CounterVec // feed, result
	FeedMessages *prometheus.CounterVec // feed, result
	Exports      *prometheus.CounterVec // format, result

	EventLogSize  prometheus.Gauge
	EventsEvicted prometheus.Counter
	Cameras       prometheus.Gauge

	registry *prometheus.Registry
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		RegistryOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "witness_registry_operations_total",
			Help: "Camera registry operations by kind and outcome",
		}, []string{"op", "result"}),
		FeedDials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "witness_feed_dials_total",
			Help: "Backend feed subscription attempts",
		}, []string{"feed", "result"}),
		FeedMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "witness_feed_messages_total",
			Help: "Backend feed messages applied or dropped",
		}, []string{"feed", "result"}),
		Exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "witness_exports_total",
			Help: "Document export requests",
		}, []string{"format", "result"}),
		EventLogSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "witness_event_log_size",
			Help: "Detection events currently held in memory",
		}),
		EventsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "witness_event_log_evicted_total",
			Help: "Detection events evicted from the capped event log",
		}),
		Cameras: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "witness_registered_cameras",
			Help: "Cameras in the registry",
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.RegistryOps,
		m.FeedDials,
		m.FeedMessages,
		m.Exports,
		m.EventLogSize,
		m.EventsEvicted,
		m.Cameras,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler returns the /metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Outcome maps an error to ResultOK/ResultError.
func Outcome(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
