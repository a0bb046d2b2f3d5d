package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/vsinha/supplychain/pkg/domain/entities"
	"github.com/vsinha/supplychain/pkg/domain/repositories"
)

// OrderRepository keeps order records in memory, in first-saved order
type OrderRepository struct {
	mu      sync.RWMutex
	records []entities.OrderRecord
	index   map[entities.OrderID]int
}

// NewOrderRepository creates an empty in-memory order history
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		index: make(map[entities.OrderID]int),
	}
}

// Verify interface compliance
var _ repositories.OrderRepository = (*OrderRepository)(nil)

// SaveOrder inserts the record or replaces the stored record with the same id
func (r *OrderRepository) SaveOrder(_ context.Context, record entities.OrderRecord) error {
	if record.ID == "" {
		return fmt.Errorf("order id cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if i, exists := r.index[record.ID]; exists {
		r.records[i] = record
		return nil
	}
	r.index[record.ID] = len(r.records)
	r.records = append(r.records, record)
	return nil
}

// GetOrder returns the latest record for an order
func (r *OrderRepository) GetOrder(_ context.Context, id entities.OrderID) (entities.OrderRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, exists := r.index[id]
	if !exists {
		return entities.OrderRecord{}, fmt.Errorf("%w: %s", repositories.ErrOrderNotFound, id)
	}
	return r.records[i], nil
}

// ListOrders returns every recorded order
func (r *OrderRepository) ListOrders(_ context.Context) ([]entities.OrderRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]entities.OrderRecord(nil), r.records...), nil
}
