package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the Prometheus metrics scraped from /metrics.
// Each collector owns its registry, so tests can build as many as they like.
type Collector struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	commands        *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec

	queries       *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
}

// NewCollector creates and registers the metrics under namespace
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands handled, by outcome",
		}, []string{"command", "status"}),
		commandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Command handling duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"command"}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Query bus events by query and metric",
		}, []string{"query", "metric"}),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Query handling duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"query"}),
	}
	c.registry.MustRegister(
		c.httpRequests, c.httpDuration,
		c.commands, c.commandDuration,
		c.queries, c.queryDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry exposes the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveHTTP records one served request
func (c *Collector) ObserveHTTP(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordCommandExecution implements the command bus metrics hook
func (c *Collector) RecordCommandExecution(_ context.Context, commandName string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	c.commands.WithLabelValues(commandName, status).Inc()
	c.commandDuration.WithLabelValues(commandName).Observe(duration.Seconds())
}

// StartTimer implements the query bus metrics hook; only "query_duration" is timed
func (c *Collector) StartTimer(metric, label string) Timer {
	start := time.Now()
	return timerFunc(func() {
		if metric == "query_duration" {
			c.queryDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
		}
	})
}

// Increment implements the query bus metrics hook
func (c *Collector) Increment(metric, label string) {
	c.queries.WithLabelValues(label, metric).Inc()
}

// Timer is stopped when the timed work finishes
type Timer interface {
	Stop()
}

type timerFunc func()

func (f timerFunc) Stop() { f() }

// CommandRecorder is implemented by Metrics and Collector
type CommandRecorder interface {
	RecordCommandExecution(ctx context.Context, commandName string, duration time.Duration, err error)
}

// MultiRecorder fans a command outcome out to several recorders
type MultiRecorder []CommandRecorder

// RecordCommandExecution forwards to every recorder
func (m MultiRecorder) RecordCommandExecution(ctx context.Context, commandName string, duration time.Duration, err error) {
	for _, r := range m {
		if r != nil {
			r.RecordCommandExecution(ctx, commandName, duration, err)
		}
	}
}
