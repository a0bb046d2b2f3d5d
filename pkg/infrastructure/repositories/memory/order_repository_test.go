package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/supplychain/pkg/domain/entities"
	"github.com/vsinha/supplychain/pkg/domain/repositories"
)

func TestOrderRepository_SaveReplacesByID(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()
	created := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)

	record := entities.OrderRecord{
		ID:        "ORD-000001",
		ProductID: "TIR0001",
		Quantity:  4,
		UnitPrice: decimal.NewFromInt(90),
		Total:     decimal.NewFromInt(360),
		Status:    entities.Pending,
		CreatedAt: created,
		UpdatedAt: created,
	}
	require.NoError(t, repo.SaveOrder(ctx, record))
	require.NoError(t, repo.SaveOrder(ctx, entities.OrderRecord{ID: "ORD-000002", Status: entities.Cancelled}))

	record.Status = entities.Shipped
	record.UpdatedAt = created.Add(time.Hour)
	require.NoError(t, repo.SaveOrder(ctx, record))

	got, err := repo.GetOrder(ctx, "ORD-000001")
	require.NoError(t, err)
	assert.Equal(t, entities.Shipped, got.Status)

	all, err := repo.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, entities.OrderID("ORD-000001"), all[0].ID)

	_, err = repo.GetOrder(ctx, "ORD-404")
	assert.ErrorIs(t, err, repositories.ErrOrderNotFound)
	assert.Error(t, repo.SaveOrder(ctx, entities.OrderRecord{}))
}
