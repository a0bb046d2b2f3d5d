package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/vsinha/supplychain/pkg/application/dto"
	"github.com/vsinha/supplychain/pkg/application/services/fulfillment"
	"github.com/vsinha/supplychain/pkg/application/services/supplychain"
	"github.com/vsinha/supplychain/pkg/domain/entities"
	"github.com/vsinha/supplychain/pkg/domain/ledger"
	"github.com/vsinha/supplychain/pkg/domain/repositories"
	"github.com/vsinha/supplychain/pkg/domain/services"
	"github.com/vsinha/supplychain/pkg/infrastructure/events"
	"github.com/vsinha/supplychain/pkg/infrastructure/metrics"
	"github.com/vsinha/supplychain/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/supplychain/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/supplychain/pkg/infrastructure/repositories/sqlite"
	"github.com/vsinha/supplychain/pkg/interfaces/cli/output"
)

// Config holds configuration for the scenario command
type Config struct {
	ScenarioDir string
	OrderDB     string
	AsOf        string
	OutputDir   string
	Format      string
	Settle      bool
	Metrics     bool
	Verbose     bool
	Help        bool
}

// ScenarioCommand loads a supply chain from CSV files and runs its orders
type ScenarioCommand struct {
	config Config
	logger *zap.Logger
	out    io.Writer
}

// NewScenarioCommand creates a new scenario command with the given configuration
func NewScenarioCommand(config Config, logger *zap.Logger) *ScenarioCommand {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScenarioCommand{
		config: config,
		logger: logger,
		out:    os.Stdout,
	}
}

// holder is a scenario stock holder under its CSV id
type holder struct {
	role        supplychain.Role
	warehouse   *supplychain.Warehouse
	distributor *supplychain.Distributor
	retailer    *supplychain.Retailer
}

func (h holder) ledger() *ledger.Ledger {
	switch h.role {
	case supplychain.WarehouseRole:
		return h.warehouse.Ledger()
	case supplychain.DistributorRole:
		return h.distributor.Ledger()
	default:
		return h.retailer.Ledger()
	}
}

// Execute runs the scenario
func (c *ScenarioCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}

	start := time.Now()

	// Validate inputs
	if c.config.ScenarioDir == "" {
		return fmt.Errorf("validation error: must specify -scenario directory")
	}
	asOf, err := c.asOf()
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	files, err := c.resolveInputFiles()
	if err != nil {
		return fmt.Errorf("failed to resolve input files: %w", err)
	}
	if c.config.Verbose {
		c.printHeader(files)
	}

	csvLoader := csv.NewLoader()

	products, err := csvLoader.LoadProducts(files["Products"])
	if err != nil {
		return fmt.Errorf("error loading products: %w", err)
	}
	holderRows, err := csvLoader.LoadHolders(files["Holders"])
	if err != nil {
		return fmt.Errorf("error loading holders: %w", err)
	}
	var stockRows []csv.StockRow
	if path, ok := files["Stock"]; ok {
		if stockRows, err = csvLoader.LoadStock(path); err != nil {
			return fmt.Errorf("error loading stock: %w", err)
		}
	}
	var orderRows []csv.OrderRow
	if path, ok := files["Orders"]; ok {
		if orderRows, err = csvLoader.LoadOrders(path); err != nil {
			return fmt.Errorf("error loading orders: %w", err)
		}
	}

	c.logger.Info("scenario loaded",
		zap.String("scenario", c.config.ScenarioDir),
		zap.Int("products", len(products)),
		zap.Int("holders", len(holderRows)),
		zap.Int("stock_rows", len(stockRows)),
		zap.Int("orders", len(orderRows)))

	// Create repositories
	catalog := memory.NewProductRepository(len(products))
	if err := catalog.LoadProducts(products); err != nil {
		return fmt.Errorf("failed to load products into catalog: %w", err)
	}

	var orderRepo repositories.OrderRepository = memory.NewOrderRepository()
	if c.config.OrderDB != "" {
		sqliteRepo, err := sqlite.NewOrderRepository(ctx, c.config.OrderDB)
		if err != nil {
			return fmt.Errorf("failed to open order database: %w", err)
		}
		defer sqliteRepo.Close()
		orderRepo = sqliteRepo
	}

	eventStore := events.NewInMemoryEventStore(c.logger.Named("events"))
	if err := eventStore.Subscribe(events.SupplyChainEventTypes, &eventLogger{logger: c.logger.Named("events")}); err != nil {
		return fmt.Errorf("failed to subscribe event logger: %w", err)
	}

	registry := prometheus.NewRegistry()
	recorder, err := metrics.NewPrometheusRecorder(registry)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	payments := memory.NewPaymentProcessor(nil)
	chain, err := supplychain.New(supplychain.Config{
		Catalog:   catalog,
		Orders:    orderRepo,
		Payments:  payments,
		Publisher: eventStore,
		Recorder:  recorder,
		Logger:    c.logger,
	})
	if err != nil {
		return err
	}

	holders, err := registerHolders(chain, holderRows)
	if err != nil {
		return err
	}
	if err := loadStock(holders, stockRows); err != nil {
		return err
	}

	outcomes, err := c.runOrders(ctx, holders, orderRows)
	if err != nil {
		return err
	}

	sweeps, err := chain.SweepExpired(ctx, asOf)
	if err != nil {
		return fmt.Errorf("expiry sweep failed: %w", err)
	}

	eventStore.Wait()
	result, err := c.buildResult(ctx, chain, outcomes, sweeps, eventStore, registry, payments)
	if err != nil {
		return err
	}
	result.AsOf = asOf
	result.Duration = time.Since(start)

	return output.Generate(result, output.Config{
		Format:    c.config.Format,
		OutputDir: c.config.OutputDir,
		Verbose:   c.config.Verbose,
		Writer:    c.out,
	})
}

func registerHolders(chain *supplychain.SupplyChain, rows []csv.HolderRow) (map[string]holder, error) {
	holders := make(map[string]holder, len(rows))
	for _, row := range rows {
		if _, exists := holders[row.ID]; exists {
			return nil, fmt.Errorf("duplicate holder id %s", row.ID)
		}
		role, err := supplychain.ParseRole(row.Role)
		if err != nil {
			return nil, fmt.Errorf("holder %s: %w", row.ID, err)
		}

		h := holder{role: role}
		switch role {
		case supplychain.WarehouseRole:
			h.warehouse, err = chain.AddWarehouse(entities.Location{}, row.Capacity, row.Name)
		case supplychain.DistributorRole:
			h.distributor, err = chain.AddDistributor(row.Name, entities.Location{}, row.Capacity)
		case supplychain.RetailerRole:
			h.retailer, err = chain.AddRetailer(row.Name, entities.Location{}, row.Capacity)
		}
		if err != nil {
			return nil, fmt.Errorf("holder %s: %w", row.ID, err)
		}
		holders[row.ID] = h
	}
	return holders, nil
}

func loadStock(holders map[string]holder, rows []csv.StockRow) error {
	for _, row := range rows {
		h, ok := holders[row.Holder]
		if !ok {
			return fmt.Errorf("stock for unknown holder %s", row.Holder)
		}
		if err := h.ledger().Store(row.ProductID, row.Quantity); err != nil {
			return fmt.Errorf("opening stock for %s: %w", row.Holder, err)
		}
	}
	return nil
}

// runOrders executes the scenario orders in file order. A distributor buying
// from a warehouse is a stock transfer; a retailer buying from a distributor
// is a customer order, settled (delivered and paid) when configured.
func (c *ScenarioCommand) runOrders(ctx context.Context, holders map[string]holder, rows []csv.OrderRow) ([]dto.OrderOutcome, error) {
	var outcomes []dto.OrderOutcome
	for i, row := range rows {
		buyer, ok := holders[row.Buyer]
		if !ok {
			return nil, fmt.Errorf("order %d: unknown buyer %s", i+1, row.Buyer)
		}
		seller, ok := holders[row.Seller]
		if !ok {
			return nil, fmt.Errorf("order %d: unknown seller %s", i+1, row.Seller)
		}

		var (
			result fulfillment.Result
			err    error
		)
		switch {
		case buyer.role == supplychain.DistributorRole && seller.role == supplychain.WarehouseRole:
			result, err = buyer.distributor.ReceiveFromWarehouse(ctx, seller.warehouse, row.ProductID, row.Quantity)
		case buyer.role == supplychain.RetailerRole && seller.role == supplychain.DistributorRole:
			result, err = buyer.retailer.PlaceOrder(ctx, seller.distributor, row.ProductID, row.Quantity)
			if err == nil && result.Shipped() && c.config.Settle {
				err = settle(ctx, buyer.retailer, result.Order.ID)
			}
		default:
			return nil, fmt.Errorf("order %d: a %s cannot buy from a %s", i+1, buyer.role, seller.role)
		}
		if err != nil {
			return nil, fmt.Errorf("order %d: %w", i+1, err)
		}

		outcome := dto.OrderOutcome{Buyer: row.Buyer, Seller: row.Seller, Order: result.Order}
		if result.Reason != nil {
			outcome.Reason = result.Reason.Error()
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

func settle(ctx context.Context, retailer *supplychain.Retailer, id entities.OrderID) error {
	if err := retailer.ConfirmDelivery(ctx, id); err != nil {
		return err
	}
	_, err := retailer.Pay(ctx, id)
	return err
}

func (c *ScenarioCommand) buildResult(
	ctx context.Context,
	chain *supplychain.SupplyChain,
	outcomes []dto.OrderOutcome,
	sweeps []services.SweepReport,
	eventStore *events.InMemoryEventStore,
	registry *prometheus.Registry,
	payments repositories.PaymentService,
) (*dto.ScenarioResult, error) {
	status, err := chain.Status()
	if err != nil {
		return nil, err
	}

	// Outcomes hold the record as fulfillment left it; settling may have
	// moved it on since.
	records, err := chain.Orders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	latest := make(map[entities.OrderID]entities.OrderRecord, len(records))
	for _, r := range records {
		latest[r.ID] = r
	}
	for i := range outcomes {
		if r, ok := latest[outcomes[i].Order.ID]; ok {
			outcomes[i].Order = r
		}
	}

	published, err := eventStore.ReadAllEvents(0)
	if err != nil {
		return nil, err
	}

	result := &dto.ScenarioResult{
		Status:  status,
		Holders: chain.Holders(),
		Orders:  outcomes,
		Sweeps:  sweeps,
		Payments: dto.PaymentSummary{
			Count:   payments.TransactionCount(),
			Balance: payments.TotalBalance(),
		},
		Events: len(published),
	}

	if c.config.Metrics {
		samples, err := gatherCounters(registry)
		if err != nil {
			return nil, fmt.Errorf("failed to gather metrics: %w", err)
		}
		result.Metrics = samples
	}
	return result, nil
}

func gatherCounters(registry *prometheus.Registry) ([]dto.MetricSample, error) {
	families, err := registry.Gather()
	if err != nil {
		return nil, err
	}

	var samples []dto.MetricSample
	for _, family := range families {
		for _, m := range family.GetMetric() {
			sample := dto.MetricSample{Name: family.GetName(), Value: m.GetCounter().GetValue()}
			if pairs := m.GetLabel(); len(pairs) > 0 {
				sample.Labels = make(map[string]string, len(pairs))
				for _, p := range pairs {
					sample.Labels[p.GetName()] = p.GetValue()
				}
			}
			samples = append(samples, sample)
		}
	}
	return samples, nil
}

func (c *ScenarioCommand) asOf() (time.Time, error) {
	if c.config.AsOf == "" {
		return time.Now().UTC().Truncate(24 * time.Hour), nil
	}
	t, err := time.Parse("2006-01-02", c.config.AsOf)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid -as-of date %s (expected YYYY-MM-DD)", c.config.AsOf)
	}
	return t, nil
}

// resolveInputFiles determines the scenario file paths. Products and holders
// are required; stock and orders are optional.
func (c *ScenarioCommand) resolveInputFiles() (map[string]string, error) {
	files := map[string]string{
		"Products": filepath.Join(c.config.ScenarioDir, "products.csv"),
		"Holders":  filepath.Join(c.config.ScenarioDir, "holders.csv"),
	}
	for name, path := range files {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("%s file not found: %s", name, path)
		}
	}

	optional := map[string]string{
		"Stock":  filepath.Join(c.config.ScenarioDir, "stock.csv"),
		"Orders": filepath.Join(c.config.ScenarioDir, "orders.csv"),
	}
	for name, path := range optional {
		_, err := os.Stat(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		files[name] = path
	}
	return files, nil
}

// printHeader prints the command header information
func (c *ScenarioCommand) printHeader(files map[string]string) {
	fmt.Fprintf(c.out, "🚀 Supply Chain Scenario Runner\n")
	fmt.Fprintf(c.out, "Input files:\n")
	for _, name := range []string{"Products", "Holders", "Stock", "Orders"} {
		if path, ok := files[name]; ok {
			fmt.Fprintf(c.out, "  %s: %s\n", name, path)
		}
	}
	fmt.Fprintf(c.out, "Output format: %s\n", c.config.Format)
	if c.config.OrderDB != "" {
		fmt.Fprintf(c.out, "Order database: %s\n", c.config.OrderDB)
	}
	if c.config.OutputDir != "" {
		fmt.Fprintf(c.out, "Output directory: %s\n", c.config.OutputDir)
	}
	fmt.Fprintln(c.out)
}

// showHelp displays the help message
func (c *ScenarioCommand) showHelp() {
	fmt.Fprintf(c.out, `Supply Chain Scenario Runner - inventory ledgers and order fulfillment

USAGE:
    scm -scenario <directory> [OPTIONS]
    scm generate [OPTIONS]

OPTIONS:
    -scenario <dir>     Path to scenario directory containing CSV files
    -order-db <file>    SQLite database for order history (default: in memory)
    -as-of <date>       Reference date for expiry sweeps, YYYY-MM-DD (default: today)
    -output <dir>       Output directory for results (optional)
    -format <fmt>       Output format: text, json, csv (default: text)
    -settle             Deliver and pay every shipped retailer order
    -metrics            Include fulfillment counters in the report
    -log-level <lvl>    Log level: debug, info, warn, error (default: warn)
    -verbose            Enable verbose output
    -help               Show this help message

ENVIRONMENT (also read from .env):
    SCM_SCENARIO, SCM_ORDER_DB, SCM_LOG_LEVEL, SCM_METRICS

SCENARIO DIRECTORY STRUCTURE:
    scenario_name/
    ├── products.csv    # Product catalog
    ├── holders.csv     # Warehouses, distributors and retailers
    ├── stock.csv       # Opening stock (optional)
    └── orders.csv      # Orders to run, in order (optional)

CSV FILE FORMATS:

products.csv:
    id,name,category,unit_price,manufacture_date,expiry_date,warranty_years
    BRK0001,Brake Pad,Parts,12.50,2025-01-10,,2
    MLK0001,Milk,Dairy,1.25,2025-05-01,2025-05-15,0

holders.csv:
    id,role,name,capacity
    central,warehouse,Central Depot,1000
    north,distributor,North Logistics,300
    corner,retailer,Corner Shop,50

stock.csv:
    holder,product_id,quantity
    central,BRK0001,400

orders.csv:
    buyer,seller,product_id,quantity
    north,central,BRK0001,100
    corner,north,BRK0001,20

EXAMPLES:
    # Run a scenario and settle shipped orders
    scm -scenario examples/corner_shop -settle -verbose

    # Keep order history in SQLite and sweep expired stock as of a date
    scm -scenario examples/dairy -order-db orders.db -as-of 2025-06-01

    # Generate JSON output with metrics
    scm -scenario examples/dairy -format json -output results/ -metrics
`)
}
