package events

import (
	"github.com/vsinha/supplychain/pkg/domain/entities"
)

const (
	OrderPlacedEvent    = "order.placed"
	OrderShippedEvent   = "order.shipped"
	OrderDeliveredEvent = "order.delivered"
	OrderCancelledEvent = "order.cancelled"

	InventoryTransferredEvent = "inventory.transferred"
	InventoryRolledBackEvent  = "inventory.rolled_back"
	InventoryExpiredEvent     = "inventory.expired"

	PaymentProcessedEvent = "payment.processed"
)

// SupplyChainEventTypes lists every event type published by the supply chain
var SupplyChainEventTypes = []string{
	OrderPlacedEvent,
	OrderShippedEvent,
	OrderDeliveredEvent,
	OrderCancelledEvent,
	InventoryTransferredEvent,
	InventoryRolledBackEvent,
	InventoryExpiredEvent,
	PaymentProcessedEvent,
}

type OrderPlaced struct {
	Order entities.OrderRecord `json:"order"`
}

type OrderShipped struct {
	Order entities.OrderRecord `json:"order"`
}

type OrderDelivered struct {
	Order entities.OrderRecord `json:"order"`
}

type OrderCancelled struct {
	Order  entities.OrderRecord `json:"order"`
	Reason string               `json:"reason"`
}

type InventoryTransferred struct {
	OrderID     entities.OrderID   `json:"order_id"`
	ProductID   entities.ProductID `json:"product_id"`
	Quantity    entities.Quantity  `json:"quantity"`
	Source      string             `json:"source"`
	Destination string             `json:"destination"`
}

type InventoryRolledBack struct {
	OrderID   entities.OrderID   `json:"order_id"`
	ProductID entities.ProductID `json:"product_id"`
	Quantity  entities.Quantity  `json:"quantity"`
	Source    string             `json:"source"`
	Reason    string             `json:"reason"`
}

type InventoryExpired struct {
	Ledger     string               `json:"ledger"`
	ProductIDs []entities.ProductID `json:"product_ids"`
	Removed    entities.Quantity    `json:"removed"`
}

type PaymentProcessed struct {
	OrderID       entities.OrderID `json:"order_id"`
	TransactionID string           `json:"transaction_id"`
	Amount        string           `json:"amount"`
}

func NewOrderPlacedEvent(order entities.OrderRecord) Event {
	return NewEvent(OrderPlacedEvent, string(order.ID), OrderPlaced{Order: order})
}

func NewOrderShippedEvent(order entities.OrderRecord) Event {
	return NewEvent(OrderShippedEvent, string(order.ID), OrderShipped{Order: order})
}

func NewOrderDeliveredEvent(order entities.OrderRecord) Event {
	return NewEvent(OrderDeliveredEvent, string(order.ID), OrderDelivered{Order: order})
}

func NewOrderCancelledEvent(order entities.OrderRecord, reason error) Event {
	data := OrderCancelled{Order: order}
	if reason != nil {
		data.Reason = reason.Error()
	}
	return NewEvent(OrderCancelledEvent, string(order.ID), data)
}

func NewInventoryTransferredEvent(order entities.OrderRecord, source, destination string) Event {
	return NewEvent(InventoryTransferredEvent, string(order.ProductID), InventoryTransferred{
		OrderID:     order.ID,
		ProductID:   order.ProductID,
		Quantity:    order.Quantity,
		Source:      source,
		Destination: destination,
	})
}

func NewInventoryRolledBackEvent(order entities.OrderRecord, source string, reason error) Event {
	return NewEvent(InventoryRolledBackEvent, string(order.ProductID), InventoryRolledBack{
		OrderID:   order.ID,
		ProductID: order.ProductID,
		Quantity:  order.Quantity,
		Source:    source,
		Reason:    reason.Error(),
	})
}

func NewInventoryExpiredEvent(ledger string, productIDs []entities.ProductID, removed entities.Quantity) Event {
	return NewEvent(InventoryExpiredEvent, ledger, InventoryExpired{
		Ledger:     ledger,
		ProductIDs: productIDs,
		Removed:    removed,
	})
}

func NewPaymentProcessedEvent(orderID entities.OrderID, transactionID, amount string) Event {
	return NewEvent(PaymentProcessedEvent, string(orderID), PaymentProcessed{
		OrderID:       orderID,
		TransactionID: transactionID,
		Amount:        amount,
	})
}
