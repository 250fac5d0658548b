package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	IdentitiesRegistered prometheus.Counter
	DelegationsRequested prometheus.Counter
	DelegationsDecided   *prometheus.CounterVec
	OperationErrors      *prometheus.CounterVec
	LedgerFinalitySecs   prometheus.Histogram
	RequestLatencySecs   *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		IdentitiesRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_identities_registered_total",
			Help: "Total number of identities registered on the ledger",
		}),
		DelegationsRequested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_delegations_requested_total",
			Help: "Total number of delegation requests submitted",
		}),
		DelegationsDecided: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custodia_delegations_decided_total",
			Help: "Total number of delegation decisions by outcome",
		}, []string{"outcome"}),
		OperationErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custodia_operation_errors_total",
			Help: "Total number of failed operations by error code",
		}, []string{"operation", "code"}),
		LedgerFinalitySecs: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "custodia_ledger_finality_seconds",
			Help:    "Time from transaction submission to observed finality",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		RequestLatencySecs: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "custodia_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// ObserveFinality records a submit-to-finality duration.
func (m *Metrics) ObserveFinality(d time.Duration) {
	m.LedgerFinalitySecs.Observe(d.Seconds())
}
