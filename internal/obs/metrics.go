package obs

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "binance_di"

// Metrics collects pipeline counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	events         *prometheus.CounterVec
	decodeFailures *prometheus.CounterVec
	reconnects     *prometheus.CounterVec
	sinkFailures   *prometheus.CounterVec
	flushFailures  *prometheus.CounterVec
	partsOpened    *prometheus.CounterVec
	queueDepth     prometheus.Gauge
	dispatchTime   prometheus.Histogram

	produced   uint64
	dispatched uint64
	failures   uint64

	dispatchLatency LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the totals logged when the pipeline stops.
type Snapshot struct {
	Produced        uint64
	Dispatched      uint64
	SinkFailures    uint64
	DispatchLatency LatencySnapshot
}

// NewMetrics allocates the collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Events accepted into the ingestion queue.",
		}, []string{"category", "symbol"}),
		decodeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_failures_total",
			Help:      "Inbound frames that could not be decoded.",
		}, []string{"category", "symbol"}),
		reconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconnects_total",
			Help:      "Feed connections lost or refused.",
		}, []string{"category", "symbol"}),
		sinkFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_failures_total",
			Help:      "Failed sink writes.",
		}, []string{"sink"}),
		flushFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flush_failures_total",
			Help:      "Columnar batches lost on flush.",
		}, []string{"format"}),
		partsOpened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parts_written_total",
			Help:      "Part files created.",
		}, []string{"format"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Events waiting in the ingestion queue.",
		}),
		dispatchTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_seconds",
			Help:      "Time spent dispatching one event to every sink.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
		}),
	}
	m.registry.MustRegister(
		m.events,
		m.decodeFailures,
		m.reconnects,
		m.sinkFailures,
		m.flushFailures,
		m.partsOpened,
		m.queueDepth,
		m.dispatchTime,
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IncEvent(category, symbol string) {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.produced, 1)
	m.events.WithLabelValues(category, symbol).Inc()
}

func (m *Metrics) IncDecodeFailure(category, symbol string) {
	if m == nil {
		return
	}
	m.decodeFailures.WithLabelValues(category, symbol).Inc()
}

func (m *Metrics) IncReconnect(category, symbol string) {
	if m == nil {
		return
	}
	m.reconnects.WithLabelValues(category, symbol).Inc()
}

func (m *Metrics) IncSinkFailure(sink string) {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.failures, 1)
	m.sinkFailures.WithLabelValues(sink).Inc()
}

func (m *Metrics) IncFlushFailure(format string) {
	if m == nil {
		return
	}
	m.flushFailures.WithLabelValues(format).Inc()
}

func (m *Metrics) IncPartOpened(format string) {
	if m == nil {
		return
	}
	m.partsOpened.WithLabelValues(format).Inc()
}

func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

// ObserveDispatch records one completed dispatch.
func (m *Metrics) ObserveDispatch(d time.Duration) {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.dispatched, 1)
	m.dispatchTime.Observe(d.Seconds())
	m.dispatchLatency.Observe(d)
}

// Snapshot returns a copy of the current totals.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		Produced:        atomic.LoadUint64(&m.produced),
		Dispatched:      atomic.LoadUint64(&m.dispatched),
		SinkFailures:    atomic.LoadUint64(&m.failures),
		DispatchLatency: m.dispatchLatency.Snapshot(),
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		cur := atomic.LoadUint64(&l.min)
		if cur != 0 && nanos >= cur {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, cur, nanos) {
			break
		}
	}

	for {
		cur := atomic.LoadUint64(&l.max)
		if nanos <= cur {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, cur, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(atomic.LoadUint64(&l.min)),
		Max:   time.Duration(atomic.LoadUint64(&l.max)),
		Avg:   time.Duration(atomic.LoadUint64(&l.sum) / count),
	}
}
