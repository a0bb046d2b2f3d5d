package services

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/supplychain/pkg/domain/entities"
	"github.com/vsinha/supplychain/pkg/domain/ledger"
	"github.com/vsinha/supplychain/pkg/domain/repositories"
)

// SweepReport describes the outcome of one expiry sweep
type SweepReport struct {
	Ledger       string               `json:"ledger"`
	Swept        bool                 `json:"swept"`
	RemovedIDs   []entities.ProductID `json:"removed_ids,omitempty"`
	RemovedUnits entities.Quantity    `json:"removed_units"`
}

// ExpiryPolicy removes expired stock from ledgers that have run out of room
type ExpiryPolicy struct {
	catalog repositories.ProductRepository
	logger  *zap.Logger
}

// NewExpiryPolicy creates a policy that resolves expiry dates through catalog
func NewExpiryPolicy(catalog repositories.ProductRepository, logger *zap.Logger) *ExpiryPolicy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpiryPolicy{catalog: catalog, logger: logger}
}

// SweepIfFull removes every entry whose product expired strictly before ref,
// but only when the ledger is at capacity. Products without an expiry date,
// and products the catalog does not know, are kept.
//
// Expiry dates are resolved before the ledger is locked; fullness is checked
// again under the lock together with the removals.
func (p *ExpiryPolicy) SweepIfFull(l *ledger.Ledger, ref time.Time) (SweepReport, error) {
	report := SweepReport{Ledger: l.Name()}
	if l.TotalQuantity() < l.Capacity() {
		return report, nil
	}

	expired := make(map[entities.ProductID]bool)
	for id := range l.Snapshot() {
		product, err := p.catalog.GetProduct(id)
		if errors.Is(err, entities.ErrProductNotFound) {
			continue
		}
		if err != nil {
			return report, fmt.Errorf("expiry sweep of %s: resolve %s: %w", l.Name(), id, err)
		}
		if product.IsExpired(ref) {
			expired[id] = true
		}
	}

	err := l.Update(func(s *ledger.Session) error {
		if s.TotalQuantity() < s.Capacity() {
			return nil
		}
		report.Swept = true
		for _, id := range s.ProductIDs() {
			if !expired[id] {
				continue
			}
			units, err := s.Remove(id)
			if err != nil {
				return err
			}
			report.RemovedIDs = append(report.RemovedIDs, id)
			report.RemovedUnits += units
		}
		return nil
	})
	if err != nil {
		return SweepReport{Ledger: l.Name()}, fmt.Errorf("expiry sweep of %s: %w", l.Name(), err)
	}

	if len(report.RemovedIDs) > 0 {
		p.logger.Info("removed expired stock",
			zap.String("ledger", report.Ledger),
			zap.Int("products", len(report.RemovedIDs)),
			zap.Int64("units", int64(report.RemovedUnits)))
	}
	return report, nil
}
