// Package metrics exposes Prometheus instrumentation for the tracking
// pipeline and the interaction loop.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultNamespace = "starkcad"

// Inference latency buckets in seconds. MediaPipe on CPU lands in 10-60ms.
var defaultBuckets = []float64{.002, .005, .01, .02, .035, .05, .075, .1, .2, .5}

// Option configures a Manager.
type Option func(*Manager)

// WithNamespace overrides the metric namespace.
func WithNamespace(ns string) Option {
	return func(m *Manager) {
		if ns != "" {
			m.namespace = ns
		}
	}
}

// WithRegistry registers metrics on r instead of a fresh private registry.
func WithRegistry(r *prometheus.Registry) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}

// WithBuckets sets the inference latency histogram buckets.
func WithBuckets(b []float64) Option {
	return func(m *Manager) {
		if len(b) > 0 {
			m.buckets = b
		}
	}
}

// Manager owns every metric. A nil *Manager is valid and records nothing.
type Manager struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry

	ticks            prometheus.Counter
	gestures         *prometheus.CounterVec
	pinchEdges       *prometheus.CounterVec
	selections       prometheus.Counter
	sketchCommits    *prometheus.CounterVec
	orbitTicks       prometheus.Counter
	commands         *prometheus.CounterVec
	deletions        prometheus.Counter
	inferenceLatency prometheus.Histogram
	inferenceErrors  *prometheus.CounterVec
	handsObserved    prometheus.Gauge
	framesSkipped    prometheus.Counter
	trackingActive   prometheus.Gauge
	wsClients        prometheus.Gauge
}

// New creates a Manager with its own registry unless WithRegistry is given.
func New(opts ...Option) *Manager {
	m := &Manager{
		namespace: defaultNamespace,
		buckets:   defaultBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.init()
	return m
}

func (m *Manager) init() {
	auto := promauto.With(m.registry)

	m.ticks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "interaction",
		Name: "ticks_total",
		Help: "Interaction ticks processed",
	})
	m.gestures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "interaction",
		Name: "gesture_ticks_total",
		Help: "Ticks by primary-hand gesture label",
	}, []string{"gesture"})
	m.pinchEdges = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "interaction",
		Name: "pinch_edges_total",
		Help: "PINCH transitions by edge direction",
	}, []string{"edge"})
	m.selections = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "interaction",
		Name: "selection_changes_total",
		Help: "Selection changes made by gesture",
	})
	m.sketchCommits = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "interaction",
		Name: "sketch_commits_total",
		Help: "Sketch primitives committed by kind",
	}, []string{"kind"})
	m.orbitTicks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "interaction",
		Name: "orbit_ticks_total",
		Help: "Ticks that rotated the camera",
	})
	m.commands = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "interaction",
		Name: "commands_total",
		Help: "Command descriptors received by result",
	}, []string{"result"})
	m.deletions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "interaction",
		Name: "entities_deleted_total",
		Help: "Entities removed through selection delete",
	})
	m.inferenceLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "tracking",
		Name:    "inference_seconds",
		Help:    "Landmark inference latency",
		Buckets: m.buckets,
	})
	m.inferenceErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "tracking",
		Name: "errors_total",
		Help: "Tracking failures by stage",
	}, []string{"stage"})
	m.handsObserved = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "tracking",
		Name: "hands",
		Help: "Hands in the latest published snapshot",
	})
	m.framesSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "tracking",
		Name: "frames_skipped_total",
		Help: "Frames skipped by the motion gate",
	})
	m.trackingActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "tracking",
		Name: "active",
		Help: "1 while the tracker is running",
	})
	m.wsClients = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "server",
		Name: "ws_clients",
		Help: "Connected state stream clients",
	})
}

// Registry returns the registry the metrics are registered on.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Tick records one interaction tick and its gesture.
func (m *Manager) Tick(gesture string) {
	if m == nil {
		return
	}
	m.ticks.Inc()
	m.gestures.WithLabelValues(gesture).Inc()
}

// PinchEdge records a PINCH rising ("down") or falling ("up") edge.
func (m *Manager) PinchEdge(rising bool) {
	if m == nil {
		return
	}
	edge := "up"
	if rising {
		edge = "down"
	}
	m.pinchEdges.WithLabelValues(edge).Inc()
}

func (m *Manager) SelectionChanged() {
	if m == nil {
		return
	}
	m.selections.Inc()
}

func (m *Manager) SketchCommitted(kind string) {
	if m == nil {
		return
	}
	m.sketchCommits.WithLabelValues(kind).Inc()
}

func (m *Manager) Orbited() {
	if m == nil {
		return
	}
	m.orbitTicks.Inc()
}

// Command records a command descriptor as "applied", "ignored" or "invalid".
func (m *Manager) Command(result string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(result).Inc()
}

func (m *Manager) Deleted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.deletions.Add(float64(n))
}

// Inference records a successful inference and the hands it found.
func (m *Manager) Inference(d time.Duration, hands int) {
	if m == nil {
		return
	}
	m.inferenceLatency.Observe(d.Seconds())
	m.handsObserved.Set(float64(hands))
}

// TrackingError counts a failure at stage ("capture" or "detect").
func (m *Manager) TrackingError(stage string) {
	if m == nil {
		return
	}
	m.inferenceErrors.WithLabelValues(stage).Inc()
}

func (m *Manager) FrameSkipped() {
	if m == nil {
		return
	}
	m.framesSkipped.Inc()
}

func (m *Manager) TrackingActive(active bool) {
	if m == nil {
		return
	}
	v := 0.0
	if active {
		v = 1
	}
	m.trackingActive.Set(v)
	if !active {
		m.handsObserved.Set(0)
	}
}

func (m *Manager) WSClients(n int) {
	if m == nil {
		return
	}
	m.wsClients.Set(float64(n))
}
