package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts the sync layer's interactions with the store.
type Metrics struct {
	reconciliations *prometheus.CounterVec
	truncatedScans  prometheus.Counter
	catalogRequests *prometheus.CounterVec
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		reconciliations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stocksync_reconciliations_total",
			Help: "Stock reconciliations by listing type and outcome",
		}, []string{"type", "outcome"}),
		truncatedScans: factory.NewCounter(prometheus.CounterOpts{
			Name: "stocksync_truncated_scans_total",
			Help: "Catalog scans that returned partial results",
		}),
		catalogRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stocksync_catalog_requests_total",
			Help: "Requests served by the sync API, by operation and outcome",
		}, []string{"operation", "outcome"}),
	}
}

func (m *Metrics) RecordReconciliation(listingType string, ok bool) {
	m.reconciliations.WithLabelValues(listingType, outcome(ok)).Inc()
}

func (m *Metrics) RecordTruncatedScan() {
	m.truncatedScans.Inc()
}

func (m *Metrics) RecordRequest(operation string, ok bool) {
	m.catalogRequests.WithLabelValues(operation, outcome(ok)).Inc()
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
