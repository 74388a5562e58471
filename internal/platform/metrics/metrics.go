package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cycle outcomes recorded on obs_sync_cycles_total.
const (
	OutcomeOK      = "ok"
	OutcomeSkipped = "skipped"
	OutcomeErrors  = "errors"
)

// Metrics holds Prometheus counters and gauges for the scene sync service.
type Metrics struct {
	registry       *prometheus.Registry
	requestsTotal  prometheus.Counter
	errorsTotal    prometheus.Counter
	cyclesTotal    *prometheus.CounterVec
	fetchErrors    *prometheus.CounterVec
	scenesCreated  prometheus.Counter
	scenesRemoved  prometheus.Counter
	itemFailures   *prometheus.CounterVec
	liveStreams    prometheus.Gauge
	cycleDuration  prometheus.Histogram
	lastCycleEpoch prometheus.Gauge
}

// New creates and registers Prometheus metrics on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "obs_sync_http_requests_total",
			Help: "Total number of admin HTTP requests received",
		}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "obs_sync_http_errors_total",
			Help: "Total number of admin HTTP responses with error status (4xx or 5xx)",
		}),
		cyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "obs_sync_cycles_total",
			Help: "Reconciliation cycles by outcome",
		}, []string{"outcome"}),
		fetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "obs_sync_fetch_errors_total",
			Help: "Failed status endpoint polls by source",
		}, []string{"source"}),
		scenesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "obs_sync_scenes_created_total",
			Help: "Scenes created with an attached source",
		}),
		scenesRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "obs_sync_scenes_removed_total",
			Help: "Managed scenes removed after their stream ended",
		}),
		itemFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "obs_sync_item_failures_total",
			Help: "Failed scene or source operations by operation",
		}, []string{"op"}),
		liveStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "obs_sync_live_streams",
			Help: "Live streams seen in the last reconciled cycle",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "obs_sync_cycle_duration_seconds",
			Help:    "Wall time of a poll and reconcile cycle",
			Buckets: prometheus.DefBuckets,
		}),
		lastCycleEpoch: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "obs_sync_last_cycle_timestamp_seconds",
			Help: "Unix time the last cycle finished",
		}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.errorsTotal,
		m.cyclesTotal,
		m.fetchErrors,
		m.scenesCreated,
		m.scenesRemoved,
		m.itemFailures,
		m.liveStreams,
		m.cycleDuration,
		m.lastCycleEpoch,
	)

	return m
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncErrors increments the HTTP errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// ObserveCycle records a finished cycle.
func (m *Metrics) ObserveCycle(outcome string, seconds float64, finishedUnix int64) {
	m.cyclesTotal.WithLabelValues(outcome).Inc()
	m.cycleDuration.Observe(seconds)
	m.lastCycleEpoch.Set(float64(finishedUnix))
}

// IncFetchErrors counts a failed poll of the named source.
func (m *Metrics) IncFetchErrors(source string) {
	m.fetchErrors.WithLabelValues(source).Inc()
}

// AddScenesCreated adds n to the created scenes counter.
func (m *Metrics) AddScenesCreated(n int) {
	m.scenesCreated.Add(float64(n))
}

// AddScenesRemoved adds n to the removed scenes counter.
func (m *Metrics) AddScenesRemoved(n int) {
	m.scenesRemoved.Add(float64(n))
}

// IncItemFailures counts a failed OBS operation.
func (m *Metrics) IncItemFailures(op string) {
	m.itemFailures.WithLabelValues(op).Inc()
}

// SetLiveStreams sets the live streams gauge.
func (m *Metrics) SetLiveStreams(n int) {
	m.liveStreams.Set(float64(n))
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an http.Handler that serves Prometheus metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
