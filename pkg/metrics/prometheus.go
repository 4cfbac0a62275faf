package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Generation outcomes used as the "outcome" label.
const (
	OutcomeSuccess      = "success"
	OutcomeInvalidInput = "invalid_input"
	OutcomeConflict     = "conflict"
	OutcomeNotFound     = "not_found"
	OutcomeError        = "error"
)

// cohortBuckets covers events from a handful of attendees up to a few thousand.
var cohortBuckets = []float64{2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500}

// Manager manages all Prometheus metrics for the service. A nil or disabled
// Manager accepts every call and records nothing.
type Manager struct {
	namespace       string
	subsystem       string
	durationBuckets []float64
	enabled         bool
	registry        *prometheus.Registry

	// Match generation
	generationRuns     *prometheus.CounterVec
	generationDuration prometheus.Histogram
	cohortSize         prometheus.Histogram
	pairsScored        prometheus.Counter
	matchesPersisted   prometheus.Counter
	lockContention     prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewManager creates a new metrics manager. Without WithPrometheusRegistry a
// private registry carrying the Go and process collectors is used.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:       "matchmaker",
		subsystem:       "",
		durationBuckets: prometheus.DefBuckets,
		enabled:         true,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.generationRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "generation_runs_total",
		Help:      "Match generation runs by outcome",
	}, []string{"outcome"})

	m.generationDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "generation_duration_seconds",
		Help:      "Wall time of successful match generation runs",
		Buckets:   m.durationBuckets,
	})

	m.cohortSize = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cohort_size",
		Help:      "Number of profiles loaded per generation run",
		Buckets:   cohortBuckets,
	})

	m.pairsScored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pairs_scored_total",
		Help:      "Ordered profile pairs scored",
	})

	m.matchesPersisted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_persisted_total",
		Help:      "Match rows written",
	})

	m.lockContention = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "run_lock_conflicts_total",
		Help:      "Generation requests rejected because a run for the event was in progress",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by route, method and status",
	}, []string{"route", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   m.durationBuckets,
	}, []string{"route", "method", "status_code"})
}

func (m *Manager) active() bool {
	return m != nil && m.enabled
}

// RecordGeneration records the outcome of one generation run.
func (m *Manager) RecordGeneration(outcome string) {
	if !m.active() {
		return
	}
	m.generationRuns.WithLabelValues(outcome).Inc()
}

// ObserveGeneration records a successful run's size and duration.
func (m *Manager) ObserveGeneration(profiles, pairs, persisted int, duration time.Duration) {
	if !m.active() {
		return
	}
	m.cohortSize.Observe(float64(profiles))
	m.pairsScored.Add(float64(pairs))
	m.matchesPersisted.Add(float64(persisted))
	m.generationDuration.Observe(duration.Seconds())
}

// RecordLockConflict counts a rejected concurrent run.
func (m *Manager) RecordLockConflict() {
	if !m.active() {
		return
	}
	m.lockContention.Inc()
}

// RecordHTTPRequest records a served request.
func (m *Manager) RecordHTTPRequest(route, method string, status int, duration time.Duration) {
	if !m.active() {
		return
	}
	code := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(route, method, code).Inc()
	m.httpRequestDuration.WithLabelValues(route, method, code).Observe(duration.Seconds())
}

// Registry returns the registry the metrics are registered on.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Push replaces the job's metrics on a Prometheus Pushgateway. Short-lived
// processes call it once before exiting.
func (m *Manager) Push(ctx context.Context, gatewayURL, job string) error {
	if !m.active() || gatewayURL == "" {
		return nil
	}
	if err := push.New(gatewayURL, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}
