package scrapers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for extraction runs.
type Metrics struct {
	Registry          *prometheus.Registry
	RunsTotal         *prometheus.CounterVec
	RunDuration       *prometheus.HistogramVec
	ProductsExtracted prometheus.Counter
	ErrorsTotal       *prometheus.CounterVec
	ArchivedFiles     prometheus.Counter
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_scraper_runs_total",
			Help: "Extraction runs by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_scraper_run_duration_seconds",
			Help:    "Wall time of extraction runs.",
			Buckets: []float64{1, 2.5, 5, 10, 20, 30, 60, 120, 240},
		},
		[]string{"kind"},
	)
	products := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_scraper_products_extracted_total",
			Help: "Products written to listing output files.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_scraper_errors_total",
			Help: "Failed runs by error kind.",
		},
		[]string{"kind", "error_type"},
	)
	archived := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_scraper_archived_files_total",
			Help: "Output files uploaded to object storage.",
		},
	)

	registry.MustRegister(runs, duration, products, errorsTotal, archived)

	return &Metrics{
		Registry:          registry,
		RunsTotal:         runs,
		RunDuration:       duration,
		ProductsExtracted: products,
		ErrorsTotal:       errorsTotal,
		ArchivedFiles:     archived,
	}
}

// ObserveRun records the outcome and duration of one run.
func (m *Metrics) ObserveRun(kind string, d time.Duration, errorType string) {
	if m == nil {
		return
	}
	outcome := "success"
	if errorType != "" {
		outcome = "failure"
		m.ErrorsTotal.WithLabelValues(kind, errorType).Inc()
	}
	m.RunsTotal.WithLabelValues(kind, outcome).Inc()
	m.RunDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// AddProducts increments the extracted products counter.
func (m *Metrics) AddProducts(n int) {
	if m == nil {
		return
	}
	m.ProductsExtracted.Add(float64(n))
}

// AddArchived increments the archived files counter.
func (m *Metrics) AddArchived(n int) {
	if m == nil {
		return
	}
	m.ArchivedFiles.Add(float64(n))
}
