package metrics

import "github.com/prometheus/client_golang/prometheus"

// Engine gateway Prometheus metrics.
var (
	BulkDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "petra",
			Name:      "bulk_documents_total",
			Help:      "Total number of documents submitted in bulk operations",
		},
		[]string{"action"}, // "index" / "delete"
	)

	BulkItemErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "petra",
			Name:      "bulk_item_errors_total",
			Help:      "Total number of per-item bulk failures",
		},
		[]string{"action"},
	)

	ScrollPagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "petra",
			Name:      "scroll_pages_total",
			Help:      "Total number of scroll pages fetched",
		},
	)
)

var engineMetricsRegistered bool

// RegisterEngineMetrics registers Prometheus engine metrics. Must be called once from main.
func RegisterEngineMetrics() {
	if engineMetricsRegistered {
		return
	}
	prometheus.MustRegister(BulkDocumentsTotal)
	prometheus.MustRegister(BulkItemErrorsTotal)
	prometheus.MustRegister(ScrollPagesTotal)
	engineMetricsRegistered = true
}
