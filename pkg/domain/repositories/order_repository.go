package repositories

import (
	"context"
	"errors"

	"github.com/vsinha/supplychain/pkg/domain/entities"
)

// ErrOrderNotFound is returned when an order id has no recorded history
var ErrOrderNotFound = errors.New("order not found")

// OrderRepository retains order records for audit. There is no delete:
// orders are kept after reaching a terminal status.
type OrderRepository interface {
	SaveOrder(ctx context.Context, record entities.OrderRecord) error
	GetOrder(ctx context.Context, id entities.OrderID) (entities.OrderRecord, error)
	ListOrders(ctx context.Context) ([]entities.OrderRecord, error)
}
