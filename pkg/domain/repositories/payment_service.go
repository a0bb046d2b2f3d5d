package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/supplychain/pkg/domain/entities"
)

var (
	ErrDuplicatePayment = errors.New("duplicate payment")
	ErrInvalidAmount    = errors.New("invalid payment amount")
)

// Transaction is a completed payment
type Transaction struct {
	ID          string
	OrderID     entities.OrderID
	Amount      decimal.Decimal
	ProcessedAt time.Time
}

// PaymentService charges orders. Implementations are passed explicitly to
// the roles that need them.
type PaymentService interface {
	Process(ctx context.Context, orderID entities.OrderID, amount decimal.Decimal) (Transaction, error)
	TotalBalance() decimal.Decimal
	TransactionCount() int
}
