// Package supplychain wires warehouses, distributors, retailers and
// manufacturers around a shared catalog and fulfillment coordinator.
package supplychain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/supplychain/pkg/application/services/fulfillment"
	"github.com/vsinha/supplychain/pkg/domain/entities"
	"github.com/vsinha/supplychain/pkg/domain/ledger"
	"github.com/vsinha/supplychain/pkg/domain/repositories"
	"github.com/vsinha/supplychain/pkg/domain/services"
	"github.com/vsinha/supplychain/pkg/infrastructure/events"
	"github.com/vsinha/supplychain/pkg/infrastructure/metrics"
)

// ErrHolderNotFound is returned when no role is registered under an id
var ErrHolderNotFound = errors.New("holder not found")

// Config holds the collaborators shared by every role. Only Catalog is
// required.
type Config struct {
	Catalog   repositories.ProductRepository
	Orders    repositories.OrderRepository
	Payments  repositories.PaymentService
	Publisher events.Publisher
	Recorder  metrics.Recorder
	Logger    *zap.Logger
	Clock     func() time.Time
}

// Status counts the registered roles and catalog products
type Status struct {
	Manufacturers int `json:"manufacturers"`
	Warehouses    int `json:"warehouses"`
	Distributors  int `json:"distributors"`
	Retailers     int `json:"retailers"`
	Products      int `json:"products"`
}

// SupplyChain is the registry of every role in the chain
type SupplyChain struct {
	catalog     repositories.ProductRepository
	orders      repositories.OrderRepository
	payments    repositories.PaymentService
	publisher   events.Publisher
	recorder    metrics.Recorder
	logger      *zap.Logger
	clock       func() time.Time
	coordinator *fulfillment.Coordinator
	expiry      *services.ExpiryPolicy
	sequence    *entities.OrderSequence
	transfers   *entities.OrderSequence

	mu            sync.RWMutex
	manufacturers map[string]*services.Manufacturer
	warehouses    map[string]*Warehouse
	distributors  map[string]*Distributor
	retailers     map[string]*Retailer
}

// New creates an empty supply chain
func New(cfg Config) (*SupplyChain, error) {
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("supply chain: catalog cannot be nil")
	}
	if cfg.Recorder == nil {
		cfg.Recorder = metrics.Nop{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	opts := []fulfillment.Option{
		fulfillment.WithRecorder(cfg.Recorder),
		fulfillment.WithLogger(cfg.Logger.Named("fulfillment")),
	}
	if cfg.Publisher != nil {
		opts = append(opts, fulfillment.WithPublisher(cfg.Publisher))
	}

	return &SupplyChain{
		catalog:       cfg.Catalog,
		orders:        cfg.Orders,
		payments:      cfg.Payments,
		publisher:     cfg.Publisher,
		recorder:      cfg.Recorder,
		logger:        cfg.Logger,
		clock:         cfg.Clock,
		coordinator:   fulfillment.NewCoordinator(opts...),
		expiry:        services.NewExpiryPolicy(cfg.Catalog, cfg.Logger.Named("expiry")),
		sequence:      entities.NewOrderSequence("ORD"),
		transfers:     entities.NewOrderSequence("TRF"),
		manufacturers: make(map[string]*services.Manufacturer),
		warehouses:    make(map[string]*Warehouse),
		distributors:  make(map[string]*Distributor),
		retailers:     make(map[string]*Retailer),
	}, nil
}

// Catalog returns the shared product catalog
func (sc *SupplyChain) Catalog() repositories.ProductRepository { return sc.catalog }

// AddManufacturer registers a manufacturer under the next MAN id
func (sc *SupplyChain) AddManufacturer(name string, location entities.Location, capacity int) (*services.Manufacturer, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	id := fmt.Sprintf("MAN%04d", len(sc.manufacturers)+1)
	m, err := services.NewManufacturer(id, name, location, capacity, sc.catalog, sc.clock)
	if err != nil {
		return nil, err
	}
	sc.manufacturers[id] = m
	return m, nil
}

// AddWarehouse registers a warehouse under the next WH id
func (sc *SupplyChain) AddWarehouse(location entities.Location, capacity entities.Quantity, manager string) (*Warehouse, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	id := fmt.Sprintf("WH%04d", len(sc.warehouses)+1)
	l, err := ledger.New(id, capacity)
	if err != nil {
		return nil, fmt.Errorf("warehouse %s: %w", id, err)
	}
	w := &Warehouse{ID: id, Manager: manager, Location: location, ledger: l}
	sc.warehouses[id] = w
	return w, nil
}

// AddDistributor registers a distributor under the next DIST id
func (sc *SupplyChain) AddDistributor(name string, location entities.Location, capacity entities.Quantity) (*Distributor, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	id := fmt.Sprintf("DIST%04d", len(sc.distributors)+1)
	l, err := ledger.New(id, capacity)
	if err != nil {
		return nil, fmt.Errorf("distributor %s: %w", id, err)
	}
	d := &Distributor{ID: id, Name: name, Location: location, ledger: l, chain: sc}
	sc.distributors[id] = d
	return d, nil
}

// AddRetailer registers a retailer under the next RET id
func (sc *SupplyChain) AddRetailer(name string, location entities.Location, capacity entities.Quantity) (*Retailer, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	id := fmt.Sprintf("RET%04d", len(sc.retailers)+1)
	l, err := ledger.New(id, capacity)
	if err != nil {
		return nil, fmt.Errorf("retailer %s: %w", id, err)
	}
	r := &Retailer{ID: id, Name: name, Location: location, ledger: l, chain: sc}
	sc.retailers[id] = r
	return r, nil
}

func (sc *SupplyChain) Manufacturer(id string) (*services.Manufacturer, error) {
	return lookup(sc, sc.manufacturers, id)
}

func (sc *SupplyChain) Warehouse(id string) (*Warehouse, error) {
	return lookup(sc, sc.warehouses, id)
}

func (sc *SupplyChain) Distributor(id string) (*Distributor, error) {
	return lookup(sc, sc.distributors, id)
}

func (sc *SupplyChain) Retailer(id string) (*Retailer, error) {
	return lookup(sc, sc.retailers, id)
}

func lookup[T any](sc *SupplyChain, m map[string]T, id string) (T, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	v, ok := m[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s", ErrHolderNotFound, id)
	}
	return v, nil
}

// Ledger returns the ledger of the warehouse, distributor or retailer
// registered under id
func (sc *SupplyChain) Ledger(id string) (*ledger.Ledger, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	if w, ok := sc.warehouses[id]; ok {
		return w.ledger, nil
	}
	if d, ok := sc.distributors[id]; ok {
		return d.ledger, nil
	}
	if r, ok := sc.retailers[id]; ok {
		return r.ledger, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrHolderNotFound, id)
}

// Holders describes every stock holder, warehouses first, each group in id
// order
func (sc *SupplyChain) Holders() []HolderInfo {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	var infos []HolderInfo
	for _, id := range sortedKeys(sc.warehouses) {
		infos = append(infos, sc.warehouses[id].Info())
	}
	for _, id := range sortedKeys(sc.distributors) {
		infos = append(infos, sc.distributors[id].Info())
	}
	for _, id := range sortedKeys(sc.retailers) {
		infos = append(infos, sc.retailers[id].Info())
	}
	return infos
}

// Status returns role counts and the catalog size
func (sc *SupplyChain) Status() (Status, error) {
	products, err := sc.catalog.GetAllProducts()
	if err != nil {
		return Status{}, fmt.Errorf("supply chain status: %w", err)
	}

	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return Status{
		Manufacturers: len(sc.manufacturers),
		Warehouses:    len(sc.warehouses),
		Distributors:  len(sc.distributors),
		Retailers:     len(sc.retailers),
		Products:      len(products),
	}, nil
}

// SweepExpired runs the expiry policy over every ledger in the chain.
// Ledgers that are not full are left alone.
func (sc *SupplyChain) SweepExpired(ctx context.Context, ref time.Time) ([]services.SweepReport, error) {
	sc.mu.RLock()
	ledgers := make([]*ledger.Ledger, 0, len(sc.warehouses)+len(sc.distributors)+len(sc.retailers))
	for _, id := range sortedKeys(sc.warehouses) {
		ledgers = append(ledgers, sc.warehouses[id].ledger)
	}
	for _, id := range sortedKeys(sc.distributors) {
		ledgers = append(ledgers, sc.distributors[id].ledger)
	}
	for _, id := range sortedKeys(sc.retailers) {
		ledgers = append(ledgers, sc.retailers[id].ledger)
	}
	sc.mu.RUnlock()

	var reports []services.SweepReport
	for _, l := range ledgers {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		report, err := sc.expiry.SweepIfFull(l, ref)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
		if len(report.RemovedIDs) == 0 {
			continue
		}
		sc.recorder.RecordExpired(report.Ledger, len(report.RemovedIDs))
		if err := sc.publish(report.Ledger,
			events.NewInventoryExpiredEvent(report.Ledger, report.RemovedIDs, report.RemovedUnits)); err != nil {
			return reports, err
		}
	}
	return reports, nil
}

// Orders returns the recorded history of every order, transfers included.
// Without an order repository it falls back to the retailers' own orders.
func (sc *SupplyChain) Orders(ctx context.Context) ([]entities.OrderRecord, error) {
	if sc.orders != nil {
		return sc.orders.ListOrders(ctx)
	}

	sc.mu.RLock()
	defer sc.mu.RUnlock()
	var records []entities.OrderRecord
	for _, id := range sortedKeys(sc.retailers) {
		records = append(records, sc.retailers[id].Orders()...)
	}
	return records, nil
}

func (sc *SupplyChain) save(ctx context.Context, order *entities.Order) error {
	if sc.orders == nil {
		return nil
	}
	if err := sc.orders.SaveOrder(ctx, order.Describe()); err != nil {
		return fmt.Errorf("save order %s: %w", order.ID(), err)
	}
	return nil
}

func (sc *SupplyChain) publish(streamID string, event events.Event) error {
	if sc.publisher == nil {
		return nil
	}
	if err := sc.publisher.AppendEvent(streamID, event); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type(), err)
	}
	return nil
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
