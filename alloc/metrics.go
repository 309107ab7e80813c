package alloc

import (
	"unsafe"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports allocation counters. It implements prometheus.Collector,
// so a single Metrics can be registered once and shared by allocators of
// different element types.
type Metrics struct {
	allocateBytesCounter   prometheus.Counter
	inuseBytesGauge        prometheus.Gauge
	allocateObjectsCounter prometheus.Counter
	inuseObjectsGauge      prometheus.Gauge
}

var _ prometheus.Collector = new(Metrics)

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		allocateBytesCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alloc",
			Name:      "allocate_bytes_total",
			Help:      "Bytes handed out by container allocators.",
		}),
		inuseBytesGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "alloc",
			Name:      "inuse_bytes",
			Help:      "Bytes held by container buffers not yet deallocated.",
		}),
		allocateObjectsCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alloc",
			Name:      "allocate_objects_total",
			Help:      "Buffers handed out by container allocators.",
		}),
		inuseObjectsGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "alloc",
			Name:      "inuse_objects",
			Help:      "Container buffers not yet deallocated.",
		}),
	}
}

func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.allocateBytesCounter.Describe(ch)
	m.inuseBytesGauge.Describe(ch)
	m.allocateObjectsCounter.Describe(ch)
	m.inuseObjectsGauge.Describe(ch)
}

func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.allocateBytesCounter.Collect(ch)
	m.inuseBytesGauge.Collect(ch)
	m.allocateObjectsCounter.Collect(ch)
	m.inuseObjectsGauge.Collect(ch)
}

type measured[T any] struct {
	upstream Allocator[T]
	metrics  *Metrics
}

// Measure wraps upstream and reports every allocation to m.
func Measure[T any](upstream Allocator[T], m *Metrics) Allocator[T] {
	return &measured[T]{
		upstream: OrHeap(upstream),
		metrics:  m,
	}
}

func (a *measured[T]) Allocate(count int) ([]T, error) {
	buf, err := a.upstream.Allocate(count)
	if err != nil || len(buf) == 0 {
		return buf, err
	}

	size := a.bytes(len(buf))
	a.metrics.allocateBytesCounter.Add(size)
	a.metrics.inuseBytesGauge.Add(size)
	a.metrics.allocateObjectsCounter.Inc()
	a.metrics.inuseObjectsGauge.Inc()

	return buf, nil
}

func (a *measured[T]) Deallocate(buf []T) {
	if len(buf) == 0 {
		return
	}

	a.metrics.inuseBytesGauge.Sub(a.bytes(len(buf)))
	a.metrics.inuseObjectsGauge.Dec()
	a.upstream.Deallocate(buf)
}

func (a *measured[T]) bytes(count int) float64 {
	var zero T
	return float64(uintptr(count) * unsafe.Sizeof(zero))
}
