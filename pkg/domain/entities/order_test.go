package entities

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	t := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func testProduct(t *testing.T) *Product {
	t.Helper()
	p, err := NewProduct("SED0001", "Sedan", "Car", decimal.NewFromInt(25000),
		time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), nil, 3)
	require.NoError(t, err)
	return p
}

func TestPlaceOrder_Validation(t *testing.T) {
	product := testProduct(t)

	order, err := PlaceOrder("ORD-000001", product, 4, decimal.RequireFromString("19.99"), fixedClock())
	require.NoError(t, err)
	assert.Equal(t, Pending, order.Status())
	assert.Equal(t, ProductID("SED0001"), order.ProductID())
	assert.True(t, decimal.RequireFromString("79.96").Equal(order.Value()))

	testCases := []struct {
		name        string
		id          OrderID
		product     *Product
		quantity    Quantity
		price       decimal.Decimal
		expectError string
	}{
		{"empty id", "", product, 1, decimal.NewFromInt(1), "order id cannot be empty"},
		{"nil product", "ORD-1", nil, 1, decimal.NewFromInt(1), "order ORD-1: product cannot be nil"},
		{"zero quantity", "ORD-1", product, 0, decimal.NewFromInt(1), "invalid quantity: quantity must be positive, got 0"},
		{"negative quantity", "ORD-1", product, -3, decimal.NewFromInt(1), "invalid quantity: quantity must be positive, got -3"},
		{"zero price", "ORD-1", product, 1, decimal.Zero, "unit price must be positive, got 0"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := PlaceOrder(tc.id, tc.product, tc.quantity, tc.price, nil)
			require.Error(t, err)
			assert.Equal(t, tc.expectError, err.Error())
		})
	}

	_, err = PlaceOrder("ORD-1", product, 0, decimal.NewFromInt(1), nil)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestOrderStatus_TransitionTable(t *testing.T) {
	all := []OrderStatus{Pending, Processing, Shipped, Delivered, Cancelled}
	allowed := map[[2]OrderStatus]bool{
		{Pending, Processing}:   true,
		{Pending, Cancelled}:    true,
		{Processing, Shipped}:   true,
		{Processing, Cancelled}: true,
		{Shipped, Delivered}:    true,
	}

	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]OrderStatus{from, to}], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
	assert.False(t, Pending.CanTransitionTo(OrderStatus(42)))
	assert.True(t, Delivered.IsTerminal())
	assert.True(t, Cancelled.IsTerminal())
	assert.False(t, Shipped.IsTerminal())
}

func TestOrder_Transition(t *testing.T) {
	order, err := PlaceOrder("ORD-000001", testProduct(t), 1, decimal.NewFromInt(10), fixedClock())
	require.NoError(t, err)

	err = order.Transition(Delivered)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, Pending, order.Status())

	require.NoError(t, order.Transition(Processing))
	require.NoError(t, order.Transition(Shipped))
	require.NoError(t, order.Transition(Delivered))

	assert.ErrorIs(t, order.Transition(Cancelled), ErrInvalidTransition)
	assert.Equal(t, Delivered, order.Status())

	history := order.History()
	require.Len(t, history, 3)
	assert.Equal(t, StatusChange{From: Pending, To: Processing, At: history[0].At}, history[0])
	assert.Equal(t, Shipped, history[2].From)
	assert.True(t, history[2].At.After(history[0].At))
}

func TestOrder_Describe(t *testing.T) {
	order, err := PlaceOrder("ORD-000007", testProduct(t), 3, decimal.RequireFromString("2.50"), fixedClock())
	require.NoError(t, err)
	require.NoError(t, order.Transition(Cancelled))

	record := order.Describe()
	assert.Equal(t, OrderID("ORD-000007"), record.ID)
	assert.Equal(t, Quantity(3), record.Quantity)
	assert.True(t, decimal.RequireFromString("7.5").Equal(record.Total))
	assert.Equal(t, Cancelled, record.Status)
	assert.True(t, record.UpdatedAt.After(record.CreatedAt))

	encoded, err := json.Marshal(record)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"status":"Cancelled"`)
}

func TestParseOrderStatus(t *testing.T) {
	for s := Pending; s <= Cancelled; s++ {
		parsed, err := ParseOrderStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
	_, err := ParseOrderStatus("Lost")
	assert.Error(t, err)
}

func TestOrderSequence_Monotonic(t *testing.T) {
	seq := NewOrderSequence("")
	assert.Equal(t, OrderID("ORD-000001"), seq.Next())
	assert.Equal(t, OrderID("ORD-000002"), seq.Next())

	custom := NewOrderSequence("XFER")
	assert.Equal(t, OrderID("XFER-000001"), custom.Next())
}
