// Package metrics exposes Prometheus instrumentation for the engine and the
// HTTP API. Every method is safe to call on a nil *Collector, which records
// nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "cronica"

// Collector holds the metrics of one process. It owns its registry so that
// tests can create as many collectors as they like.
type Collector struct {
	registry *prometheus.Registry

	eventsNormalized  *prometheus.CounterVec
	invalidTimestamps prometheus.Counter
	symptomsMerged    prometheus.Counter
	relationships     prometheus.Counter
	reportsBuilt      prometheus.Counter
	buildDuration     prometheus.Histogram

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates a Collector. withRuntime also registers the Go runtime and
// process collectors.
func New(withRuntime bool) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		eventsNormalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "events_normalized_total",
			Help:      "Events normalized, by event type.",
		}, []string{"event_type"}),
		invalidTimestamps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "invalid_timestamps_total",
			Help:      "Events whose timestamp could not be parsed.",
		}),
		symptomsMerged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "symptoms_merged_total",
			Help:      "Symptom events folded into a representative by deduplication.",
		}),
		relationships: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "relationships_linked_total",
			Help:      "Symptom-diagnosis links inferred from supporting evidence.",
		}),
		reportsBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "reports_built_total",
			Help:      "Timeline reports built.",
		}),
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "report_build_duration_seconds",
			Help:      "Time spent building a timeline report.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	c.registry.MustRegister(
		c.eventsNormalized,
		c.invalidTimestamps,
		c.symptomsMerged,
		c.relationships,
		c.reportsBuilt,
		c.buildDuration,
		c.httpRequests,
		c.httpDuration,
	)
	if withRuntime {
		c.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the collector's metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// EventNormalized counts one normalized event.
func (c *Collector) EventNormalized(eventType string, validTimestamp bool) {
	if c == nil {
		return
	}
	c.eventsNormalized.WithLabelValues(eventType).Inc()
	if !validTimestamp {
		c.invalidTimestamps.Inc()
	}
}

// SymptomsMerged adds n merged symptom events.
func (c *Collector) SymptomsMerged(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.symptomsMerged.Add(float64(n))
}

// RelationshipsLinked adds n inferred links.
func (c *Collector) RelationshipsLinked(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.relationships.Add(float64(n))
}

// ReportBuilt records one report and how long it took.
func (c *Collector) ReportBuilt(d time.Duration) {
	if c == nil {
		return
	}
	c.reportsBuilt.Inc()
	c.buildDuration.Observe(d.Seconds())
}

// HTTPRequest records one served request.
func (c *Collector) HTTPRequest(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
