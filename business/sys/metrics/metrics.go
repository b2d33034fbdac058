// Package metrics constructs the metrics the application will track.
package metrics

import (
	"net/http"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ledger"

// Metrics represents the set of metrics we gather. The chain related values
// are reported through the state.Metrics interface.
type Metrics struct {
	registry *prometheus.Registry

	blocksAdded    prometheus.Counter
	blocksRejected prometheus.Counter
	saveFailures   prometheus.Counter
	height         prometheus.Gauge
	nonces         prometheus.Histogram

	requests *prometheus.CounterVec
	errors   prometheus.Counter
}

// New constructs the metrics and registers them with a private registry.
func New() *Metrics {
	m := Metrics{
		registry: prometheus.NewRegistry(),

		blocksAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_added_total",
			Help:      "Number of blocks appended to the chain.",
		}),
		blocksRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_rejected_total",
			Help:      "Number of blocks that failed validation.",
		}),
		saveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "save_failures_total",
			Help:      "Number of times the chain could not be persisted.",
		}),
		height: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chain_height",
			Help:      "Index of the latest block.",
		}),
		nonces: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mining_nonce",
			Help:      "Nonce that solved each appended block.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),

		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Number of handled web requests.",
		}, []string{"method", "status"}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "Number of web requests that returned an error.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.blocksAdded,
		m.blocksRejected,
		m.saveFailures,
		m.height,
		m.nonces,
		m.requests,
		m.errors,
	)

	return &m
}

// Handler returns the handler that exposes the metrics for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Gatherer provides access to the registered metrics.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// =============================================================================

// BlockAdded records a block appended to the chain.
func (m *Metrics) BlockAdded(block database.Block) {
	m.blocksAdded.Inc()
	m.height.Set(float64(block.Index))
	m.nonces.Observe(float64(block.Nonce))
}

// BlockRejected records a block that failed validation.
func (m *Metrics) BlockRejected() {
	m.blocksRejected.Inc()
}

// SaveFailed records a failure to persist the chain.
func (m *Metrics) SaveFailed() {
	m.saveFailures.Inc()
}

// Request records a handled web request.
func (m *Metrics) Request(method string, status string) {
	m.requests.WithLabelValues(method, status).Inc()
}

// Error records a web request that returned an error.
func (m *Metrics) Error() {
	m.errors.Inc()
}
