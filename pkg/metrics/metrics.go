// Package metrics exposes job lifecycle and HTTP request metrics in the
// Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/fuzzfleet/pkg/job"
)

const namespace = "fuzzfleet"

// Collector records job events and request latencies.
// It implements job.Observer and middlewares.RequestObserver.
type Collector struct {
	registry *prometheus.Registry

	jobsCreated     *prometheus.CounterVec
	jobTransitions  *prometheus.CounterVec
	claimConflicts  prometheus.Counter
	requestDuration *prometheus.HistogramVec
}

var _ job.Observer = (*Collector)(nil)

// Option configures a Collector.
type Option func(*options)

type options struct {
	buckets        []float64
	runtimeMetrics bool
}

// WithBuckets overrides the request duration histogram buckets.
func WithBuckets(buckets ...float64) Option {
	return func(o *options) {
		if len(buckets) > 0 {
			o.buckets = buckets
		}
	}
}

// WithRuntimeMetrics also exports Go runtime and process metrics.
func WithRuntimeMetrics() Option {
	return func(o *options) {
		o.runtimeMetrics = true
	}
}

// New creates a collector with its own registry.
func New(opts ...Option) *Collector {
	o := options{buckets: prometheus.DefBuckets}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Collector{
		registry: prometheus.NewRegistry(),
		jobsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "jobs",
				Name:      "created_total",
				Help:      "Total number of jobs created, by job type.",
			},
			[]string{"job_type"},
		),
		jobTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "jobs",
				Name:      "transitions_total",
				Help:      "Total number of committed job status changes.",
			},
			[]string{"from", "to"},
		),
		claimConflicts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "jobs",
				Name:      "claim_conflicts_total",
				Help:      "Total number of claims rejected because the job was already taken.",
			},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency by route and status.",
				Buckets:   o.buckets,
			},
			[]string{"method", "route", "status"},
		),
	}

	c.registry.MustRegister(c.jobsCreated, c.jobTransitions, c.claimConflicts, c.requestDuration)
	if o.runtimeMetrics {
		c.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return c
}

func (c *Collector) JobCreated(j job.Job) {
	c.jobsCreated.WithLabelValues(string(j.Type)).Inc()
}

func (c *Collector) JobTransitioned(from, to job.Status) {
	c.jobTransitions.WithLabelValues(string(from), string(to)).Inc()
}

func (c *Collector) ClaimConflict() {
	c.claimConflicts.Inc()
}

// ObserveRequest records one served request.
func (c *Collector) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	c.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Registry returns the underlying registry so callers can add collectors.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
