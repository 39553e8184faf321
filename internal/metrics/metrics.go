// ============================================================================
// Scheduler Metrics - Prometheus Monitoring
// ============================================================================
//
// Package: internal/metrics
// File: metrics.go
// Purpose: Collect and expose scheduler core metrics for Prometheus.
//
// Metric Categories:
//
//   1. Counters - cumulative, monotonically increasing:
//      - scheduler_cycles_total
//      - scheduler_jobs_run_total{priority=high|normal|low}
//      - scheduler_uncaught_errors_total
//
//   2. Histogram - distribution stats:
//      - scheduler_cycle_duration_seconds
//
//   3. Gauges - instantaneous values:
//      - scheduler_queue_depth{priority=high|normal|low}
//      - scheduler_vlpool_depth
//
// HTTP Endpoint:
//   Exposed via /metrics, scraped by Prometheus. Default port 9090.
//
// ============================================================================

package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ChuLiYu/async-sched/pkg/types"
)

// Collector collects Prometheus metrics for one scheduler instance.
type Collector struct {
	cyclesTotal    prometheus.Counter
	jobsRunTotal   *prometheus.CounterVec
	uncaughtErrors prometheus.Counter

	cycleDuration prometheus.Histogram

	queueDepth  *prometheus.GaugeVec
	vlpoolDepth prometheus.Gauge
}

// NewCollector creates a new metrics collector and registers it against
// reg. Passing a fresh *prometheus.Registry (rather than the global
// DefaultRegisterer) lets tests construct more than one Collector
// without a MustRegister panic on duplicate metric names.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		cyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_cycles_total",
			Help: "Total number of scheduler cycles run.",
		}),
		jobsRunTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_jobs_run_total",
			Help: "Total number of jobs run, by priority band.",
		}, []string{"priority"}),
		uncaughtErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_uncaught_errors_total",
			Help: "Total number of errors that reached the root monitor unhandled.",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scheduler_cycle_duration_seconds",
			Help:    "Wall-clock duration of a single scheduler cycle.",
			Buckets: prometheus.DefBuckets,
		}),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scheduler_queue_depth",
			Help: "Current number of jobs queued, by priority band.",
		}, []string{"priority"}),
		vlpoolDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scheduler_vlpool_depth",
			Help: "Current number of not-yet-finished very-low-priority workers.",
		}),
	}

	reg.MustRegister(c.cyclesTotal, c.jobsRunTotal, c.uncaughtErrors, c.cycleDuration, c.queueDepth, c.vlpoolDepth)
	return c
}

// RecordCycle records one completed cycle of the given duration.
func (c *Collector) RecordCycle(durationSeconds float64) {
	c.cyclesTotal.Inc()
	c.cycleDuration.Observe(durationSeconds)
}

// RecordJobRun records one job having run under priority.
func (c *Collector) RecordJobRun(priority types.Priority) {
	c.jobsRunTotal.WithLabelValues(priority.String()).Inc()
}

// RecordUncaughtError records one error reaching the root monitor.
func (c *Collector) RecordUncaughtError() {
	c.uncaughtErrors.Inc()
}

// SetQueueDepth sets the current depth gauge for priority.
func (c *Collector) SetQueueDepth(priority types.Priority, depth int) {
	c.queueDepth.WithLabelValues(priority.String()).Set(float64(depth))
}

// SetVLPoolDepth sets the current very-low-priority pool depth gauge.
func (c *Collector) SetVLPoolDepth(depth int) {
	c.vlpoolDepth.Set(float64(depth))
}

// StartServer starts a Prometheus metrics HTTP server on port, serving
// the default handler (DefaultGatherer). It blocks until the server
// exits.
func StartServer(port int) error {
	http.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	return http.ListenAndServe(addr, nil)
}
