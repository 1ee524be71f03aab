// Package metrics provides process metrics for sloris.
// Values are kept in lock-free counters and gauges owned by the code that
// updates them; a Prometheus registry reads them at scrape time, so the
// tick loop never waits on an exporter.
package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultLatencyBuckets are histogram buckets, in seconds, for short operations
// such as connects and ticks.
var DefaultLatencyBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}

// LifetimeBuckets are histogram buckets, in seconds, for held connection lifetimes.
var LifetimeBuckets = []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600}

// Counter is a monotonically increasing counter.
type Counter struct {
	value uint64
	name  string
	help  string
}

// Inc increments the counter by 1.
func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

// Value returns the current counter value.
func (c *Counter) Value() uint64 {
	return atomic.LoadUint64(&c.value)
}

func (c *Counter) collector() prometheus.Collector {
	return prometheus.NewCounterFunc(
		prometheus.CounterOpts{Name: c.name, Help: c.help},
		func() float64 { return float64(c.Value()) },
	)
}

// Gauge is a metric that can go up and down.
type Gauge struct {
	value int64
	name  string
	help  string
}

// Set sets the gauge to the given value.
func (g *Gauge) Set(v int64) {
	atomic.StoreInt64(&g.value, v)
}

// Value returns the current gauge value.
func (g *Gauge) Value() int64 {
	return atomic.LoadInt64(&g.value)
}

func (g *Gauge) collector() prometheus.Collector {
	return prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{Name: g.name, Help: g.help},
		func() float64 { return float64(g.Value()) },
	)
}

// Histogram tracks the distribution of values.
type Histogram struct {
	h     prometheus.Histogram
	count uint64
}

// Observe records a value in the histogram.
func (h *Histogram) Observe(v float64) {
	atomic.AddUint64(&h.count, 1)
	h.h.Observe(v)
}

// ObserveDuration records d in seconds.
func (h *Histogram) ObserveDuration(d time.Duration) {
	h.Observe(d.Seconds())
}

// Count returns how many values have been observed.
func (h *Histogram) Count() uint64 {
	return atomic.LoadUint64(&h.count)
}

// Registry holds registered metrics.
type Registry struct {
	reg *prometheus.Registry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{reg: prometheus.NewRegistry()}
}

// defaultRegistry is the global metric registry. It also carries the Go
// runtime and process collectors.
var defaultRegistry = func() *Registry {
	r := NewRegistry()
	r.register(collectors.NewGoCollector())
	r.register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return r
}()

// register adds c, ignoring duplicates so that re-registration by name keeps
// the first collector.
func (r *Registry) register(c prometheus.Collector) {
	if err := r.reg.Register(c); err != nil {
		log.WithError(err).Debug("metric not registered")
	}
}

// NewCounter creates a counter registered with r.
func (r *Registry) NewCounter(name, help string) *Counter {
	c := &Counter{name: name, help: help}
	r.register(c.collector())
	return c
}

// NewGauge creates a gauge registered with r.
func (r *Registry) NewGauge(name, help string) *Gauge {
	g := &Gauge{name: name, help: help}
	r.register(g.collector())
	return g
}

// NewHistogram creates a histogram registered with r.
func (r *Registry) NewHistogram(name, help string, buckets []float64) *Histogram {
	h := &Histogram{
		h: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    name,
			Help:    help,
			Buckets: buckets,
		}),
	}
	r.register(h.h)
	return h
}

// Handler returns an http.Handler that exposes r in Prometheus format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// NewCounter creates a new counter metric in the default registry.
func NewCounter(name, help string) *Counter {
	return defaultRegistry.NewCounter(name, help)
}

// NewGauge creates a new gauge metric in the default registry.
func NewGauge(name, help string) *Gauge {
	return defaultRegistry.NewGauge(name, help)
}

// NewHistogram creates a new histogram metric in the default registry.
func NewHistogram(name, help string, buckets []float64) *Histogram {
	return defaultRegistry.NewHistogram(name, help, buckets)
}

// Handler returns an http.Handler that exposes the default registry.
func Handler() http.Handler {
	return defaultRegistry.Handler()
}

// Process-wide metrics
var (
	// StartTime is when the run started.
	StartTime = NewGauge("sloris_start_time_seconds", "Unix timestamp when the run started")

	// BuildInfo is always 1; useful as a join target.
	BuildInfo = NewGauge("sloris_build_info", "Always 1")
)

// RecordStartTime records the current time as the start time.
func RecordStartTime() {
	StartTime.Set(time.Now().Unix())
	BuildInfo.Set(1)
}
