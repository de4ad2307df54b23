// Package metrics defines the Prometheus instrumentation for FearBoard.
//
// All collectors are registered on a private registry created by
// [NewRegistry], so several FearBoard instances (or tests) can run in one
// process without colliding on the global default registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fearboard"

// Frame kinds used as the "kind" label of StreamFrames.
const (
	FrameData = "data"
	FramePing = "ping"
)

// NewRegistry creates a Prometheus registry with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Handler returns an http.Handler that serves Prometheus metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Metrics holds the counter and live feed collectors.
type Metrics struct {
	CounterValue        prometheus.Gauge
	CounterMax          prometheus.Gauge
	CounterTransitions  prometheus.Counter
	Mutations           *prometheus.CounterVec
	StreamConnections   prometheus.Gauge
	StreamFrames        *prometheus.CounterVec
	StreamFramesDropped prometheus.Counter
}

// New creates the counter and stream metrics and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CounterValue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "counter",
			Name:      "value",
			Help:      "Current fear value.",
		}),
		CounterMax: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "counter",
			Name:      "max",
			Help:      "Upper bound of the fear value.",
		}),
		CounterTransitions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "counter",
			Name:      "transitions_total",
			Help:      "Number of committed value changes broadcast to listeners.",
		}),
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Mutation requests by resolved action.",
		}, []string{"action"}),
		StreamConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "connections",
			Help:      "Number of open live feed connections.",
		}),
		StreamFrames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "frames_total",
			Help:      "Frames written to live feed connections, by kind.",
		}, []string{"kind"}),
		StreamFramesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "frames_dropped_total",
			Help:      "Value frames discarded because a connection's queue was full.",
		}),
	}

	reg.MustRegister(
		m.CounterValue,
		m.CounterMax,
		m.CounterTransitions,
		m.Mutations,
		m.StreamConnections,
		m.StreamFrames,
		m.StreamFramesDropped,
	)
	return m
}

// ObserveChange records a committed counter transition.
// It has the shape of a store listener and is subscribed as one.
func (m *Metrics) ObserveChange(value int) {
	m.CounterValue.Set(float64(value))
	m.CounterTransitions.Inc()
}
