package services

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/supplychain/pkg/domain/entities"
	"github.com/vsinha/supplychain/pkg/domain/ledger"
	"github.com/vsinha/supplychain/pkg/infrastructure/repositories/memory"
)

var sweepDate = time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

func catalogWith(t *testing.T, expiries map[entities.ProductID]*time.Time) *memory.ProductRepository {
	t.Helper()
	catalog := memory.NewProductRepository(len(expiries))
	made := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for id, expiry := range expiries {
		p, err := entities.NewProduct(id, "Product "+string(id), "Fluids", decimal.NewFromInt(10), made, expiry, 0)
		require.NoError(t, err)
		require.NoError(t, catalog.SaveProduct(p))
	}
	return catalog
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestExpiryPolicy_SweepIfFull_RemovesOnlyExpired(t *testing.T) {
	catalog := catalogWith(t, map[entities.ProductID]*time.Time{
		"OLD": date(2025, 6, 30),
		"NEW": date(2025, 12, 31),
	})
	l, err := ledger.New("WH0001", 10)
	require.NoError(t, err)
	require.NoError(t, l.Store("OLD", 4))
	require.NoError(t, l.Store("NEW", 6))

	report, err := NewExpiryPolicy(catalog, nil).SweepIfFull(l, sweepDate)
	require.NoError(t, err)

	assert.True(t, report.Swept)
	assert.Equal(t, []entities.ProductID{"OLD"}, report.RemovedIDs)
	assert.Equal(t, entities.Quantity(4), report.RemovedUnits)
	assert.Equal(t, map[entities.ProductID]entities.Quantity{"NEW": 6}, l.Snapshot())
	assert.Equal(t, entities.Quantity(6), l.TotalQuantity())
}

func TestExpiryPolicy_SweepIfFull_NoopBelowCapacity(t *testing.T) {
	catalog := catalogWith(t, map[entities.ProductID]*time.Time{"OLD": date(2020, 1, 1)})
	l, err := ledger.New("WH0001", 10)
	require.NoError(t, err)
	require.NoError(t, l.Store("OLD", 9))

	report, err := NewExpiryPolicy(catalog, nil).SweepIfFull(l, sweepDate)
	require.NoError(t, err)
	assert.False(t, report.Swept)
	assert.Empty(t, report.RemovedIDs)
	assert.Equal(t, entities.Quantity(9), l.Quantity("OLD"))
}

func TestExpiryPolicy_SweepIfFull_KeepsUndatedUnknownAndBoundary(t *testing.T) {
	catalog := catalogWith(t, map[entities.ProductID]*time.Time{
		"UNDATED":  nil,
		"BOUNDARY": date(2025, 7, 1),
	})
	l, err := ledger.New("DIST0001", 6)
	require.NoError(t, err)
	require.NoError(t, l.Store("UNDATED", 2))
	require.NoError(t, l.Store("BOUNDARY", 2))
	require.NoError(t, l.Store("UNKNOWN", 2))

	report, err := NewExpiryPolicy(catalog, nil).SweepIfFull(l, sweepDate)
	require.NoError(t, err)
	assert.True(t, report.Swept)
	assert.Empty(t, report.RemovedIDs)
	assert.Equal(t, entities.Quantity(6), l.TotalQuantity())
}

type failingCatalog struct {
	*memory.ProductRepository
}

func (failingCatalog) GetProduct(entities.ProductID) (*entities.Product, error) {
	return nil, errors.New("catalog offline")
}

func TestExpiryPolicy_SweepIfFull_CatalogFailureLeavesLedger(t *testing.T) {
	l, err := ledger.New("WH0002", 3)
	require.NoError(t, err)
	require.NoError(t, l.Store("X", 3))

	policy := NewExpiryPolicy(failingCatalog{memory.NewProductRepository(0)}, nil)
	_, err = policy.SweepIfFull(l, sweepDate)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog offline")
	assert.Equal(t, entities.Quantity(3), l.TotalQuantity())
}
