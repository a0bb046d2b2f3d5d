package testing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/supplychain/pkg/domain/entities"
	"github.com/vsinha/supplychain/pkg/domain/ledger"
	"github.com/vsinha/supplychain/pkg/infrastructure/repositories/memory"
)

// BuildCatalog builds the standard two-product test catalog: p1, a bolt at
// 10.00 that never expires, and milk at 1.25 that expired three days before ref.
func BuildCatalog(ref time.Time) *memory.ProductRepository {
	expired := ref.AddDate(0, 0, -3)

	catalog := memory.NewProductRepository(2)
	err := catalog.LoadProducts([]*entities.Product{
		MustCreateProduct("p1", "Bolt", "Parts", "10", ref.AddDate(-1, 0, 0), nil),
		MustCreateProduct("milk", "Milk", "Dairy", "1.25", ref.AddDate(0, 0, -10), &expired),
	})
	if err != nil {
		panic(err)
	}
	return catalog
}

// MustCreateProduct is a helper for tests - panics on validation error
func MustCreateProduct(id, name, category, price string, manufactured time.Time, expiry *time.Time) *entities.Product {
	product, err := entities.NewProduct(
		entities.ProductID(id),
		name,
		category,
		decimal.RequireFromString(price),
		manufactured,
		expiry,
		0,
	)
	if err != nil {
		panic(err)
	}
	return product
}

// MustCreateLedger creates a ledger holding stock - panics on validation error
func MustCreateLedger(name string, capacity entities.Quantity, stock map[entities.ProductID]entities.Quantity) *ledger.Ledger {
	l, err := ledger.New(name, capacity)
	if err != nil {
		panic(err)
	}
	for id, qty := range stock {
		if err := l.Store(id, qty); err != nil {
			panic(err)
		}
	}
	return l
}
