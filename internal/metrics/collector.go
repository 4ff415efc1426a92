// Package metrics exposes Prometheus metrics for the roster service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so several collectors can coexist in tests
type Collector struct {
	registry *prometheus.Registry

	formationsTotal   *prometheus.CounterVec
	formationTeams    prometheus.Histogram
	formationDuration prometheus.Histogram

	commandsTotal *prometheus.CounterVec
	rosterSize    prometheus.Gauge

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter

	powerSyncTotal *prometheus.CounterVec
}

// NewCollector registers every metric under namespace
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	c := &Collector{registry: reg}

	c.formationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "formations_total",
			Help:      "Team formation runs by strategy and outcome status",
		},
		[]string{"strategy", "status"},
	)
	c.formationTeams = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "formation_teams",
		Help:      "Number of teams produced by successful formation runs",
		Buckets:   prometheus.LinearBuckets(1, 1, 12),
	})
	c.formationDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "formation_duration_seconds",
		Help:      "Time spent forming teams, snapshot included",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
	})

	c.commandsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Roster commands by name and result",
		},
		[]string{"command", "result"},
	)
	c.rosterSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "roster_size",
		Help:      "Number of players on the roster",
	})

	c.httpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	c.httpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	c.cacheHits = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "formation_cache_hits_total",
		Help:      "Last-formation cache hits",
	})
	c.cacheMisses = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "formation_cache_misses_total",
		Help:      "Last-formation cache misses",
	})

	c.powerSyncTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "power_sync_total",
			Help:      "Power rating sync runs by result",
		},
		[]string{"result"},
	)

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// RecordFormation counts a formation run; teams is only observed for ok runs
func (c *Collector) RecordFormation(strategy, status string, teams int, duration time.Duration) {
	c.formationsTotal.WithLabelValues(strategy, status).Inc()
	c.formationDuration.Observe(duration.Seconds())
	if status == "ok" {
		c.formationTeams.Observe(float64(teams))
	}
}

// RecordCommand counts a command by result ("ok" or "error")
func (c *Collector) RecordCommand(command string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.commandsTotal.WithLabelValues(command, result).Inc()
}

// SetRosterSize updates the roster size gauge
func (c *Collector) SetRosterSize(n int) {
	c.rosterSize.Set(float64(n))
}

// RecordHTTPRequest records one served request
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordCacheLookup counts a last-formation cache lookup
func (c *Collector) RecordCacheLookup(hit bool) {
	if hit {
		c.cacheHits.Inc()
		return
	}
	c.cacheMisses.Inc()
}

// RecordPowerSync counts a power sync run
func (c *Collector) RecordPowerSync(err error) {
	if err != nil {
		c.powerSyncTotal.WithLabelValues("error").Inc()
		return
	}
	c.powerSyncTotal.WithLabelValues("ok").Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE streaming working through the recorder
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Middleware records request counts and latency, labelled by route pattern
func (c *Collector) Middleware(path string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		c.RecordHTTPRequest(r.Method, path, rec.status, time.Since(start))
	}
}
