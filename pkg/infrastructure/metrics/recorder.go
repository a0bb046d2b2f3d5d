// Package metrics exports fulfillment and expiry counters.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vsinha/supplychain/pkg/domain/entities"
)

// Fulfillment outcomes
const (
	OutcomeShipped        = "shipped"
	OutcomeCancelled      = "cancelled"
	OutcomeRollbackFailed = "rollback_failed"
)

// Recorder receives fulfillment and sweep results
type Recorder interface {
	RecordFulfillment(outcome string, quantity entities.Quantity)
	RecordExpired(ledger string, products int)
}

// Nop discards everything
type Nop struct{}

func (Nop) RecordFulfillment(string, entities.Quantity) {}
func (Nop) RecordExpired(string, int) {}

// PrometheusRecorder publishes counters on a Prometheus registry
type PrometheusRecorder struct {
	fulfillments *prometheus.CounterVec
	transferred  prometheus.Counter
	expired      *prometheus.CounterVec
}

var _ Recorder = (*PrometheusRecorder)(nil)

// NewPrometheusRecorder creates the counters and registers them on reg
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	r := &PrometheusRecorder{
		fulfillments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "supplychain",
			Name:      "fulfillments_total",
			Help:      "Fulfillment attempts by outcome.",
		}, []string{"outcome"}),
		transferred: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "supplychain",
			Name:      "transferred_units_total",
			Help:      "Units moved between ledgers by shipped fulfillments.",
		}),
		expired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "supplychain",
			Name:      "expired_products_total",
			Help:      "Ledger entries removed by expiry sweeps.",
		}, []string{"ledger"}),
	}

	for _, c := range []prometheus.Collector{r.fulfillments, r.transferred, r.expired} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return r, nil
}

// RecordFulfillment counts one fulfillment; shipped quantity is added to the transfer total
func (r *PrometheusRecorder) RecordFulfillment(outcome string, quantity entities.Quantity) {
	r.fulfillments.WithLabelValues(outcome).Inc()
	if outcome == OutcomeShipped {
		r.transferred.Add(float64(quantity))
	}
}

// RecordExpired counts entries removed from a ledger
func (r *PrometheusRecorder) RecordExpired(ledger string, products int) {
	r.expired.WithLabelValues(ledger).Add(float64(products))
}
