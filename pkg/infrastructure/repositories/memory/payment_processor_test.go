package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/supplychain/pkg/domain/repositories"
)

func TestPaymentProcessor_Process(t *testing.T) {
	ctx := context.Background()
	p := NewPaymentProcessor(nil)

	tx, err := p.Process(ctx, "ORD-000001", decimal.RequireFromString("99.95"))
	require.NoError(t, err)
	assert.NotEmpty(t, tx.ID)
	assert.Equal(t, "ORD-000001", string(tx.OrderID))

	_, err = p.Process(ctx, "ORD-000001", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, repositories.ErrDuplicatePayment)

	_, err = p.Process(ctx, "ORD-000002", decimal.Zero)
	assert.ErrorIs(t, err, repositories.ErrInvalidAmount)

	_, err = p.Process(ctx, "ORD-000003", decimal.RequireFromString("0.05"))
	require.NoError(t, err)

	assert.Equal(t, 2, p.TransactionCount())
	assert.True(t, decimal.NewFromInt(100).Equal(p.TotalBalance()), "balance %s", p.TotalBalance())
}

func TestPaymentProcessor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPaymentProcessor(nil).Process(ctx, "ORD-1", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, context.Canceled)
}
