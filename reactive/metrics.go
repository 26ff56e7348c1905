package reactive

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides Prometheus-compatible instrumentation for Domain
// propagation, namespaced "reactive_".
//
// Metrics exposed:
//
//  1. tick_duration_ms (histogram): time spent in one node's tick, by
//     kind and outcome status. Labels: kind, status.
//  2. ticks_total (counter): cumulative node ticks, by kind and status.
//     Labels: kind, status.
//  3. inflight_nodes (gauge): nodes currently ticking concurrently under
//     the parallel engine.
//  4. turn_duration_ms (histogram): wall-clock time for one turn's full
//     propagation plus commit phase.
//  5. callback_failures_total (counter): CallbackError occurrences, by
//     node kind.
//  6. observer_failures_total (counter): ObserverError occurrences.
type Metrics struct {
	tickDuration *prometheus.HistogramVec
	ticksTotal   *prometheus.CounterVec
	inflight     prometheus.Gauge
	turnDuration prometheus.Histogram
	callbackFail *prometheus.CounterVec
	observerFail prometheus.Counter

	mu      sync.RWMutex
	enabled bool
}

// NewMetrics creates and registers every Domain metric with registry (use
// prometheus.DefaultRegisterer for the global registry).
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	m := &Metrics{enabled: true}

	m.tickDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "reactive",
		Name:      "tick_duration_ms",
		Help:      "Duration of a single node tick in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000},
	}, []string{"kind", "status"})

	m.ticksTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reactive",
		Name:      "ticks_total",
		Help:      "Cumulative node ticks, by kind and outcome status",
	}, []string{"kind", "status"})

	m.inflight = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "reactive",
		Name:      "inflight_nodes",
		Help:      "Current number of nodes ticking concurrently",
	})

	m.turnDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: "reactive",
		Name:      "turn_duration_ms",
		Help:      "Duration of a full turn (propagation plus commit phase) in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000, 5000},
	})

	m.callbackFail = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reactive",
		Name:      "callback_failures_total",
		Help:      "Recompute/Fold/EventProduce callback failures, by node kind",
	}, []string{"kind"})

	m.observerFail = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "reactive",
		Name:      "observer_failures_total",
		Help:      "Observer notify callback failures",
	})

	return m
}

// ObserveTick records one node's tick duration and outcome.
func (m *Metrics) ObserveTick(kind Kind, status Status, dur time.Duration) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.enabled {
		return
	}
	ms := float64(dur.Microseconds()) / 1000.0
	m.tickDuration.WithLabelValues(string(kind), status.String()).Observe(ms)
	m.ticksTotal.WithLabelValues(string(kind), status.String()).Inc()
}

// SetInflight reports the number of nodes currently ticking under the
// parallel engine.
func (m *Metrics) SetInflight(n int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.enabled {
		return
	}
	m.inflight.Set(float64(n))
}

// ObserveTurn records one turn's total duration.
func (m *Metrics) ObserveTurn(dur time.Duration) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.enabled {
		return
	}
	m.turnDuration.Observe(float64(dur.Microseconds()) / 1000.0)
}

// IncCallbackFailure increments the callback-failure counter for kind.
func (m *Metrics) IncCallbackFailure(kind Kind) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.enabled {
		return
	}
	m.callbackFail.WithLabelValues(string(kind)).Inc()
}

// IncObserverFailure increments the observer-failure counter.
func (m *Metrics) IncObserverFailure() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.enabled {
		return
	}
	m.observerFail.Inc()
}

// Disable temporarily stops metric recording (useful for benchmarks that
// don't want histogram overhead).
func (m *Metrics) Disable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = false
}

// Enable re-enables metric recording after Disable.
func (m *Metrics) Enable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = true
}
