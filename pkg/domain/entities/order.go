package entities

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
)

// OrderID represents a unique order identifier
type OrderID string

// OrderStatus represents the lifecycle state of an order
type OrderStatus int

const (
	Pending OrderStatus = iota
	Processing
	Shipped
	Delivered
	Cancelled
)

// String method for OrderStatus enum
func (s OrderStatus) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Processing:
		return "Processing"
	case Shipped:
		return "Shipped"
	case Delivered:
		return "Delivered"
	case Cancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// ParseOrderStatus converts a status name back into an OrderStatus
func ParseOrderStatus(name string) (OrderStatus, error) {
	for s := Pending; s <= Cancelled; s++ {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown order status %q", name)
}

// MarshalText encodes the status by name
func (s OrderStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name
func (s *OrderStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseOrderStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// orderTransitions lists the statuses reachable from each status.
// Delivered and Cancelled have no outgoing edges.
var orderTransitions = map[OrderStatus][]OrderStatus{
	Pending:    {Processing, Cancelled},
	Processing: {Shipped, Cancelled},
	Shipped:    {Delivered},
}

// CanTransitionTo reports whether next is directly reachable from s
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, candidate := range orderTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible
func (s OrderStatus) IsTerminal() bool {
	return s == Delivered || s == Cancelled
}

// StatusChange records a single applied transition
type StatusChange struct {
	From OrderStatus
	To   OrderStatus
	At   time.Time
}

// OrderRecord is a read-only description of an order for reporting and audit
type OrderRecord struct {
	ID        OrderID         `json:"id"`
	ProductID ProductID       `json:"product_id"`
	Quantity  Quantity        `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
	Status    OrderStatus     `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Order tracks a single order from placement to delivery or cancellation.
// Status only changes through Transition. Safe for concurrent use.
type Order struct {
	id        OrderID
	productID ProductID
	quantity  Quantity
	unitPrice decimal.Decimal
	createdAt time.Time
	clock     func() time.Time

	mu      sync.RWMutex
	status  OrderStatus
	history []StatusChange
}

// PlaceOrder creates a validated order in the Pending state
func PlaceOrder(id OrderID, product *Product, quantity Quantity, unitPrice decimal.Decimal, clock func() time.Time) (*Order, error) {
	if string(id) == "" {
		return nil, fmt.Errorf("order id cannot be empty")
	}
	if product == nil {
		return nil, fmt.Errorf("order %s: product cannot be nil", id)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidQuantity, quantity)
	}
	if !unitPrice.IsPositive() {
		return nil, fmt.Errorf("unit price must be positive, got %s", unitPrice)
	}
	if clock == nil {
		clock = time.Now
	}

	return &Order{
		id:        id,
		productID: product.ID,
		quantity:  quantity,
		unitPrice: unitPrice,
		createdAt: clock(),
		clock:     clock,
		status:    Pending,
	}, nil
}

func (o *Order) ID() OrderID { return o.id }
func (o *Order) ProductID() ProductID { return o.productID }
func (o *Order) Quantity() Quantity { return o.quantity }
func (o *Order) UnitPrice() decimal.Decimal { return o.unitPrice }
func (o *Order) CreatedAt() time.Time { return o.createdAt }

// Value returns quantity × unit price
func (o *Order) Value() decimal.Decimal {
	return o.unitPrice.Mul(decimal.NewFromInt(int64(o.quantity)))
}

// Status returns the current status
func (o *Order) Status() OrderStatus {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.status
}

// History returns a copy of the applied transitions in order
func (o *Order) History() []StatusChange {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]StatusChange, len(o.history))
	copy(out, o.history)
	return out
}

// Transition moves the order to next if the transition table allows it
func (o *Order) Transition(next OrderStatus) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.status.CanTransitionTo(next) {
		return fmt.Errorf("%w: order %s cannot move from %s to %s",
			ErrInvalidTransition, o.id, o.status, next)
	}
	o.history = append(o.history, StatusChange{From: o.status, To: next, At: o.clock()})
	o.status = next
	return nil
}

// Describe returns a structured snapshot of the order
func (o *Order) Describe() OrderRecord {
	o.mu.RLock()
	defer o.mu.RUnlock()

	updated := o.createdAt
	if n := len(o.history); n > 0 {
		updated = o.history[n-1].At
	}
	return OrderRecord{
		ID:        o.id,
		ProductID: o.productID,
		Quantity:  o.quantity,
		UnitPrice: o.unitPrice,
		Total:     o.Value(),
		Status:    o.status,
		CreatedAt: o.createdAt,
		UpdatedAt: updated,
	}
}

// OrderSequence hands out monotonic order ids of the form PREFIX-000001
type OrderSequence struct {
	prefix string
	last   atomic.Uint64
}

// NewOrderSequence creates a sequence; an empty prefix defaults to ORD
func NewOrderSequence(prefix string) *OrderSequence {
	if prefix == "" {
		prefix = "ORD"
	}
	return &OrderSequence{prefix: prefix}
}

// Next returns the next id in the sequence
func (s *OrderSequence) Next() OrderID {
	return OrderID(fmt.Sprintf("%s-%06d", s.prefix, s.last.Add(1)))
}
