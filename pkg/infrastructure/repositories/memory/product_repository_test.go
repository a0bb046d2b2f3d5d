package memory

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/supplychain/pkg/domain/entities"
	"github.com/vsinha/supplychain/pkg/domain/repositories"
)

func mustProduct(t *testing.T, id entities.ProductID, price int64) *entities.Product {
	t.Helper()
	p, err := entities.NewProduct(id, "Product "+string(id), "Parts", decimal.NewFromInt(price),
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), nil, 1)
	require.NoError(t, err)
	return p
}

func TestProductRepository_SaveAndGet(t *testing.T) {
	repo := NewProductRepository(4)

	require.NoError(t, repo.SaveProduct(mustProduct(t, "TIR0001", 90)))

	retrieved, err := repo.GetProduct("TIR0001")
	require.NoError(t, err)
	assert.Equal(t, entities.ProductID("TIR0001"), retrieved.ID)
	assert.True(t, decimal.NewFromInt(90).Equal(retrieved.UnitPrice))

	// mutating the returned copy leaves the catalog untouched
	retrieved.Name = "changed"
	again, err := repo.GetProduct("TIR0001")
	require.NoError(t, err)
	assert.Equal(t, "Product TIR0001", again.Name)

	_, err = repo.GetProduct("MISSING")
	assert.ErrorIs(t, err, entities.ErrProductNotFound)
}

func TestProductRepository_DuplicatesAndUpdates(t *testing.T) {
	repo := NewProductRepository(0)
	require.NoError(t, repo.LoadProducts([]*entities.Product{
		mustProduct(t, "A", 1),
		mustProduct(t, "B", 2),
	}))

	err := repo.SaveProduct(mustProduct(t, "A", 5))
	assert.ErrorIs(t, err, repositories.ErrDuplicateProduct)

	require.NoError(t, repo.UpdateProduct(mustProduct(t, "A", 5)))
	updated, err := repo.GetProduct("A")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(5).Equal(updated.UnitPrice))

	assert.ErrorIs(t, repo.UpdateProduct(mustProduct(t, "Z", 1)), entities.ErrProductNotFound)
	assert.Error(t, repo.SaveProduct(nil))

	all, err := repo.GetAllProducts()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, entities.ProductID("A"), all[0].ID)
	assert.Equal(t, entities.ProductID("B"), all[1].ID)
	assert.Equal(t, 2, repo.Count())
}
