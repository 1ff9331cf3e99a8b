package catalog

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the strategy engine.
type Metrics struct {
	Registry        *prometheus.Registry
	PagesFetched    *prometheus.CounterVec
	ProductsTotal   *prometheus.CounterVec
	ErrorsTotal     *prometheus.CounterVec
	RequestDuration prometheus.Histogram
}

// NewMetrics constructs and registers all collectors on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	pages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_pages_fetched_total",
			Help: "Listing pages fetched, by pagination strategy.",
		},
		[]string{"strategy"},
	)
	products := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_products_discovered_total",
			Help: "New unique products discovered, by pagination strategy.",
		},
		[]string{"strategy"},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_errors_total",
			Help: "Crawl errors absorbed by the engine, by type.",
		},
		[]string{"error_type"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalog_request_duration_seconds",
			Help:    "Fetch-and-parse latency per candidate page.",
			Buckets: prometheus.DefBuckets,
		},
	)

	registry.MustRegister(pages, products, errorsTotal, requestDuration)

	return &Metrics{
		Registry:        registry,
		PagesFetched:    pages,
		ProductsTotal:   products,
		ErrorsTotal:     errorsTotal,
		RequestDuration: requestDuration,
	}
}

// IncPages increments the pages fetched counter for a strategy.
func (m *Metrics) IncPages(strategy string) {
	if m == nil {
		return
	}
	m.PagesFetched.WithLabelValues(strategy).Inc()
}

// AddProducts adds newly discovered products for a strategy.
func (m *Metrics) AddProducts(strategy string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ProductsTotal.WithLabelValues(strategy).Add(float64(n))
}

// IncError increments the errors counter for a category label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// ObserveDuration records a page probe duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}
