package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vsinha/supplychain/pkg/domain/entities"
	"github.com/vsinha/supplychain/pkg/domain/repositories"
)

// PaymentProcessor records payments in memory and rejects a second payment
// for the same order.
type PaymentProcessor struct {
	mu           sync.Mutex
	transactions map[entities.OrderID]repositories.Transaction
	balance      decimal.Decimal
	clock        func() time.Time
}

// NewPaymentProcessor creates a processor with an empty ledger of payments
func NewPaymentProcessor(clock func() time.Time) *PaymentProcessor {
	if clock == nil {
		clock = time.Now
	}
	return &PaymentProcessor{
		transactions: make(map[entities.OrderID]repositories.Transaction),
		balance:      decimal.Zero,
		clock:        clock,
	}
}

// Verify interface compliance
var _ repositories.PaymentService = (*PaymentProcessor)(nil)

// Process charges amount against orderID
func (p *PaymentProcessor) Process(ctx context.Context, orderID entities.OrderID, amount decimal.Decimal) (repositories.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return repositories.Transaction{}, err
	}
	if !amount.IsPositive() {
		return repositories.Transaction{}, fmt.Errorf("%w: %s for order %s", repositories.ErrInvalidAmount, amount, orderID)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.transactions[orderID]; exists {
		return repositories.Transaction{}, fmt.Errorf("%w: order %s", repositories.ErrDuplicatePayment, orderID)
	}

	tx := repositories.Transaction{
		ID:          uuid.NewString(),
		OrderID:     orderID,
		Amount:      amount,
		ProcessedAt: p.clock(),
	}
	p.transactions[orderID] = tx
	p.balance = p.balance.Add(amount)
	return tx, nil
}

// TotalBalance returns the sum of all processed payments
func (p *PaymentProcessor) TotalBalance() decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balance
}

// TransactionCount returns the number of processed payments
func (p *PaymentProcessor) TransactionCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.transactions)
}
