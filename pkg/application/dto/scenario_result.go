package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/supplychain/pkg/application/services/supplychain"
	"github.com/vsinha/supplychain/pkg/domain/entities"
	"github.com/vsinha/supplychain/pkg/domain/services"
)

// ScenarioResult contains the complete output of a scenario run
type ScenarioResult struct {
	Status   supplychain.Status       `json:"status"`
	Holders  []supplychain.HolderInfo `json:"holders"`
	Orders   []OrderOutcome           `json:"orders"`
	Sweeps   []services.SweepReport   `json:"sweeps"`
	Payments PaymentSummary           `json:"payments"`
	Metrics  []MetricSample           `json:"metrics,omitempty"`
	Events   int                      `json:"events"`
	AsOf     time.Time                `json:"as_of"`
	Duration time.Duration            `json:"duration"`
}

// OrderOutcome is one scenario order after fulfillment
type OrderOutcome struct {
	Buyer  string               `json:"buyer"`
	Seller string               `json:"seller"`
	Order  entities.OrderRecord `json:"order"`
	Reason string               `json:"reason,omitempty"`
}

// PaymentSummary totals the payments taken during the run
type PaymentSummary struct {
	Count   int             `json:"count"`
	Balance decimal.Decimal `json:"balance"`
}

// MetricSample is a single counter value
type MetricSample struct {
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels,omitempty"`
	Value  float64           `json:"value"`
}

// Shipped counts the orders that reached Shipped or Delivered
func (r *ScenarioResult) Shipped() int {
	n := 0
	for _, o := range r.Orders {
		if o.Order.Status == entities.Shipped || o.Order.Status == entities.Delivered {
			n++
		}
	}
	return n
}

// RemovedUnits totals the units dropped by expiry sweeps
func (r *ScenarioResult) RemovedUnits() entities.Quantity {
	var total entities.Quantity
	for _, s := range r.Sweeps {
		total += s.RemovedUnits
	}
	return total
}
