package observability

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics exports Metrics through a Prometheus registry. The label
// set of a metric is fixed by its first use; later tags with other keys are
// dropped and missing keys are reported empty.
type PrometheusMetrics struct {
	registry   *prometheus.Registry
	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
	labels     map[string][]string
}

// NewPrometheusMetrics creates a collector on a fresh registry that also
// carries the Go runtime and process collectors.
func NewPrometheusMetrics() *PrometheusMetrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return &PrometheusMetrics{
		registry:   registry,
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		labels:     make(map[string][]string),
	}
}

// Registry returns the underlying registry.
func (p *PrometheusMetrics) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *PrometheusMetrics) Counter(name string, value int64, tags ...Tag) {
	p.mu.Lock()
	defer p.mu.Unlock()
	vec, ok := p.counters[name]
	if !ok {
		keys := p.labelKeys(name, tags)
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{Name: metricName(name), Help: name}, keys)
		p.registry.MustRegister(vec)
		p.counters[name] = vec
	}
	vec.With(p.labelValues(name, tags)).Add(float64(value))
}

func (p *PrometheusMetrics) Gauge(name string, value float64, tags ...Tag) {
	p.mu.Lock()
	defer p.mu.Unlock()
	vec, ok := p.gauges[name]
	if !ok {
		keys := p.labelKeys(name, tags)
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: metricName(name), Help: name}, keys)
		p.registry.MustRegister(vec)
		p.gauges[name] = vec
	}
	vec.With(p.labelValues(name, tags)).Set(value)
}

func (p *PrometheusMetrics) Histogram(name string, value float64, tags ...Tag) {
	p.observe(name, "", value, tags)
}

// Timing records durations in seconds.
func (p *PrometheusMetrics) Timing(name string, duration time.Duration, tags ...Tag) {
	p.observe(name, "_seconds", duration.Seconds(), tags)
}

func (p *PrometheusMetrics) observe(name, suffix string, value float64, tags []Tag) {
	p.mu.Lock()
	defer p.mu.Unlock()
	vec, ok := p.histograms[name]
	if !ok {
		keys := p.labelKeys(name, tags)
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metricName(name) + suffix,
			Help:    name,
			Buckets: prometheus.DefBuckets,
		}, keys)
		p.registry.MustRegister(vec)
		p.histograms[name] = vec
	}
	vec.With(p.labelValues(name, tags)).Observe(value)
}

func (p *PrometheusMetrics) labelKeys(name string, tags []Tag) []string {
	keys := make([]string, 0, len(tags))
	for _, t := range tags {
		keys = append(keys, t.Key)
	}
	p.labels[name] = keys
	return keys
}

func (p *PrometheusMetrics) labelValues(name string, tags []Tag) prometheus.Labels {
	labels := prometheus.Labels{}
	for _, key := range p.labels[name] {
		labels[key] = ""
	}
	for _, t := range tags {
		if _, ok := labels[t.Key]; ok {
			labels[t.Key] = t.Value
		}
	}
	return labels
}

func metricName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(name)
}
