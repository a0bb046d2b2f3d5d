package supplychain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vsinha/supplychain/pkg/application/services/fulfillment"
	"github.com/vsinha/supplychain/pkg/domain/entities"
	"github.com/vsinha/supplychain/pkg/domain/ledger"
	"github.com/vsinha/supplychain/pkg/domain/repositories"
	"github.com/vsinha/supplychain/pkg/infrastructure/events"
)

var (
	ErrNoPaymentService = errors.New("no payment service configured")
	ErrOrderNotPayable  = errors.New("order not payable")
)

// Role identifies the kind of stock holder
type Role int

const (
	WarehouseRole Role = iota
	DistributorRole
	RetailerRole
)

// String method for Role enum
func (r Role) String() string {
	switch r {
	case WarehouseRole:
		return "warehouse"
	case DistributorRole:
		return "distributor"
	case RetailerRole:
		return "retailer"
	default:
		return "unknown"
	}
}

// ParseRole converts a role name into a Role
func ParseRole(name string) (Role, error) {
	for r := WarehouseRole; r <= RetailerRole; r++ {
		if r.String() == name {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", name)
}

// HolderInfo summarizes one stock holder
type HolderInfo struct {
	ID       string            `json:"id"`
	Role     string            `json:"role"`
	Name     string            `json:"name"`
	Location string            `json:"location,omitempty"`
	Capacity entities.Quantity `json:"capacity"`
	Stock    entities.Quantity `json:"stock"`
	Products int               `json:"products"`
	Orders   int               `json:"orders,omitempty"`
	Active   int               `json:"active_orders,omitempty"`
}

func holderInfo(id string, role Role, name string, location entities.Location, l *ledger.Ledger) HolderInfo {
	return HolderInfo{
		ID:       id,
		Role:     role.String(),
		Name:     name,
		Location: location.String(),
		Capacity: l.Capacity(),
		Stock:    l.TotalQuantity(),
		Products: len(l.Snapshot()),
	}
}

// Warehouse stores stock for distributors to draw from
type Warehouse struct {
	ID       string
	Manager  string
	Location entities.Location

	ledger *ledger.Ledger
}

func (w *Warehouse) Ledger() *ledger.Ledger { return w.ledger }

func (w *Warehouse) Store(productID entities.ProductID, quantity entities.Quantity) error {
	return w.ledger.Store(productID, quantity)
}

func (w *Warehouse) Retrieve(productID entities.ProductID, quantity entities.Quantity) error {
	return w.ledger.Retrieve(productID, quantity)
}

func (w *Warehouse) Info() HolderInfo {
	return holderInfo(w.ID, WarehouseRole, w.Manager, w.Location, w.ledger)
}

// Distributor moves stock from warehouses to retailers
type Distributor struct {
	ID       string
	Name     string
	Location entities.Location

	ledger    *ledger.Ledger
	chain     *SupplyChain
	processed atomic.Int64
}

func (d *Distributor) Ledger() *ledger.Ledger { return d.ledger }

// Processed returns the number of retailer orders this distributor shipped
func (d *Distributor) Processed() int { return int(d.processed.Load()) }

// ReceiveFromWarehouse pulls quantity of productID from wh into the
// distributor's ledger under an internal transfer order. A shortage or a full
// ledger cancels the transfer and is reported in the result.
func (d *Distributor) ReceiveFromWarehouse(
	ctx context.Context,
	wh *Warehouse,
	productID entities.ProductID,
	quantity entities.Quantity,
) (fulfillment.Result, error) {
	product, err := d.chain.catalog.GetProduct(productID)
	if err != nil {
		return fulfillment.Result{}, fmt.Errorf("distributor %s: %w", d.ID, err)
	}
	order, err := entities.PlaceOrder(d.chain.transfers.Next(), product, quantity, product.UnitPrice, d.chain.clock)
	if err != nil {
		return fulfillment.Result{}, fmt.Errorf("distributor %s: %w", d.ID, err)
	}

	result, err := d.chain.coordinator.Fulfill(ctx, order, wh.ledger, d.ledger)
	if saveErr := d.chain.save(ctx, order); saveErr != nil {
		err = errors.Join(err, saveErr)
	}
	return result, err
}

func (d *Distributor) Info() HolderInfo {
	info := holderInfo(d.ID, DistributorRole, d.Name, d.Location, d.ledger)
	info.Orders = d.Processed()
	return info
}

// Retailer orders stock from distributors and sells it
type Retailer struct {
	ID       string
	Name     string
	Location entities.Location

	ledger *ledger.Ledger
	chain  *SupplyChain

	mu     sync.RWMutex
	orders []*entities.Order
}

func (r *Retailer) Ledger() *ledger.Ledger { return r.ledger }

// PlaceOrder orders quantity of productID from distributor at the catalog
// price and fulfills it immediately. The result carries the order in the
// status it reached: Shipped when the stock arrived, Cancelled otherwise.
func (r *Retailer) PlaceOrder(
	ctx context.Context,
	distributor *Distributor,
	productID entities.ProductID,
	quantity entities.Quantity,
) (fulfillment.Result, error) {
	if distributor == nil {
		return fulfillment.Result{}, fmt.Errorf("retailer %s: distributor cannot be nil", r.ID)
	}
	product, err := r.chain.catalog.GetProduct(productID)
	if err != nil {
		return fulfillment.Result{}, fmt.Errorf("retailer %s: %w", r.ID, err)
	}
	order, err := entities.PlaceOrder(r.chain.sequence.Next(), product, quantity, product.UnitPrice, r.chain.clock)
	if err != nil {
		return fulfillment.Result{}, fmt.Errorf("retailer %s: %w", r.ID, err)
	}

	err = r.chain.save(ctx, order)
	if err == nil {
		err = r.chain.publish(string(order.ID()), events.NewOrderPlacedEvent(order.Describe()))
	}
	if err != nil {
		record, cancelErr := r.abandon(ctx, order)
		return fulfillment.Result{Order: record}, errors.Join(err, cancelErr)
	}

	r.mu.Lock()
	r.orders = append(r.orders, order)
	r.mu.Unlock()

	result, err := r.chain.coordinator.Fulfill(ctx, order, distributor.ledger, r.ledger)
	if saveErr := r.chain.save(ctx, order); saveErr != nil {
		err = errors.Join(err, saveErr)
	}
	if result.Shipped() {
		distributor.processed.Add(1)
	}
	return result, err
}

// abandon cancels an order that could not be recorded as placed
func (r *Retailer) abandon(ctx context.Context, order *entities.Order) (entities.OrderRecord, error) {
	if err := order.Transition(entities.Cancelled); err != nil {
		return order.Describe(), err
	}
	return order.Describe(), r.chain.save(ctx, order)
}

// ConfirmDelivery moves a shipped order to Delivered
func (r *Retailer) ConfirmDelivery(ctx context.Context, orderID entities.OrderID) error {
	order, err := r.order(orderID)
	if err != nil {
		return err
	}
	if err := order.Transition(entities.Delivered); err != nil {
		return err
	}
	if err := r.chain.save(ctx, order); err != nil {
		return err
	}
	return r.chain.publish(string(orderID), events.NewOrderDeliveredEvent(order.Describe()))
}

// Pay charges the order value through the configured payment service. Only
// shipped or delivered orders can be paid.
func (r *Retailer) Pay(ctx context.Context, orderID entities.OrderID) (repositories.Transaction, error) {
	if r.chain.payments == nil {
		return repositories.Transaction{}, ErrNoPaymentService
	}
	order, err := r.order(orderID)
	if err != nil {
		return repositories.Transaction{}, err
	}
	if status := order.Status(); status != entities.Shipped && status != entities.Delivered {
		return repositories.Transaction{}, fmt.Errorf("%w: order %s is %s", ErrOrderNotPayable, orderID, status)
	}

	tx, err := r.chain.payments.Process(ctx, orderID, order.Value())
	if err != nil {
		return repositories.Transaction{}, fmt.Errorf("pay order %s: %w", orderID, err)
	}
	return tx, r.chain.publish(string(orderID), events.NewPaymentProcessedEvent(orderID, tx.ID, tx.Amount.StringFixed(2)))
}

// Sell removes sold stock from the retailer's shelves
func (r *Retailer) Sell(productID entities.ProductID, quantity entities.Quantity) error {
	return r.ledger.Retrieve(productID, quantity)
}

// Orders returns every order this retailer placed, oldest first
func (r *Retailer) Orders() []entities.OrderRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]entities.OrderRecord, 0, len(r.orders))
	for _, o := range r.orders {
		records = append(records, o.Describe())
	}
	return records
}

// ActiveOrders returns the orders that are neither delivered nor cancelled
func (r *Retailer) ActiveOrders() []entities.OrderRecord {
	var active []entities.OrderRecord
	for _, record := range r.Orders() {
		if !record.Status.IsTerminal() {
			active = append(active, record)
		}
	}
	return active
}

func (r *Retailer) Info() HolderInfo {
	info := holderInfo(r.ID, RetailerRole, r.Name, r.Location, r.ledger)
	info.Orders = len(r.Orders())
	info.Active = len(r.ActiveOrders())
	return info
}

func (r *Retailer) order(id entities.OrderID) (*entities.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, o := range r.orders {
		if o.ID() == id {
			return o, nil
		}
	}
	return nil, fmt.Errorf("retailer %s: %w: %s", r.ID, repositories.ErrOrderNotFound, id)
}
