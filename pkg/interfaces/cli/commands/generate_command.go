package commands

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// GenerateConfig holds configuration for scenario generation
type GenerateConfig struct {
	Products     int     // Number of catalog products
	Warehouses   int     // Number of warehouses
	Distributors int     // Number of distributors
	Retailers    int     // Number of retailers
	Orders       int     // Number of retailer orders
	Fill         float64 // Share of warehouse capacity stocked at the start (0-1)
	OutputDir    string  // Output directory for generated files
	Seed         int64   // Random seed for reproducible generation
	Help         bool    // Show help
	Verbose      bool    // Verbose output
}

// GenerateCommand writes a random supply chain scenario as CSV files
type GenerateCommand struct {
	config GenerateConfig
	rand   *rand.Rand
	out    io.Writer
}

// NewGenerateCommand creates a new generate command
func NewGenerateCommand(config GenerateConfig) *GenerateCommand {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &GenerateCommand{
		config: config,
		rand:   rand.New(rand.NewSource(seed)),
		out:    os.Stdout,
	}
}

type productTemplate struct {
	name        string
	category    string
	minPrice    int
	maxPrice    int
	shelfLife   int // days, 0 when the product does not expire
	warrantyYrs int
}

var productTemplates = []productTemplate{
	{"Brake Pad", "Parts", 8, 60, 0, 2},
	{"Oil Filter", "Parts", 4, 25, 0, 1},
	{"Spark Plug", "Parts", 2, 15, 0, 1},
	{"Car Battery", "Electrical", 60, 220, 0, 3},
	{"Tyre", "Parts", 40, 180, 0, 4},
	{"Sedan", "Vehicles", 18000, 45000, 0, 5},
	{"Milk", "Dairy", 1, 4, 14, 0},
	{"Yogurt", "Dairy", 1, 6, 30, 0},
	{"Cheese", "Dairy", 3, 20, 90, 0},
	{"Coolant", "Fluids", 6, 30, 720, 0},
}

type generatedHolder struct {
	id       string
	role     string
	capacity int
}

// Execute runs the generate command
func (cmd *GenerateCommand) Execute(ctx context.Context) error {
	if cmd.config.Help {
		cmd.printHelp()
		return nil
	}
	if err := cmd.validate(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if cmd.config.Verbose {
		fmt.Fprintf(cmd.out,
			"🔧 Generating scenario with %d products, %d warehouses, %d distributors, %d retailers, %d orders\n",
			cmd.config.Products,
			cmd.config.Warehouses,
			cmd.config.Distributors,
			cmd.config.Retailers,
			cmd.config.Orders,
		)
		fmt.Fprintf(cmd.out, "📁 Output directory: %s\n", cmd.config.OutputDir)
	}

	if err := os.MkdirAll(cmd.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	products := cmd.generateProducts()
	holders := cmd.generateHolders()

	steps := []struct {
		file string
		rows [][]string
	}{
		{"products.csv", products},
		{"holders.csv", holderRows(holders)},
		{"stock.csv", cmd.generateStock(products, holders)},
		{"orders.csv", cmd.generateOrders(products, holders)},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if cmd.config.Verbose {
			fmt.Fprintf(cmd.out, "📦 Generating %s...\n", step.file)
		}
		if err := writeRows(filepath.Join(cmd.config.OutputDir, step.file), step.rows); err != nil {
			return fmt.Errorf("failed to write %s: %w", step.file, err)
		}
	}

	if cmd.config.Verbose {
		fmt.Fprintln(cmd.out, "✅ Scenario generated")
	}
	return nil
}

func (cmd *GenerateCommand) validate() error {
	switch {
	case cmd.config.OutputDir == "":
		return fmt.Errorf("--output is required")
	case cmd.config.Products <= 0:
		return fmt.Errorf("--products must be positive, got %d", cmd.config.Products)
	case cmd.config.Warehouses <= 0 || cmd.config.Distributors <= 0 || cmd.config.Retailers <= 0:
		return fmt.Errorf("at least one warehouse, distributor and retailer is required")
	case cmd.config.Orders < 0:
		return fmt.Errorf("--orders cannot be negative, got %d", cmd.config.Orders)
	case cmd.config.Fill < 0 || cmd.config.Fill > 1:
		return fmt.Errorf("--fill must be between 0 and 1, got %.2f", cmd.config.Fill)
	}
	return nil
}

// generateProducts returns products.csv rows, header first
func (cmd *GenerateCommand) generateProducts() [][]string {
	rows := [][]string{{"id", "name", "category", "unit_price", "manufacture_date", "expiry_date", "warranty_years"}}
	baseDate := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	sequence := make(map[string]int)

	for i := 0; i < cmd.config.Products; i++ {
		tmpl := productTemplates[cmd.rand.Intn(len(productTemplates))]
		prefix := strings.ToUpper(strings.ReplaceAll(tmpl.name, " ", ""))[:3]
		sequence[prefix]++
		id := fmt.Sprintf("%s%04d", prefix, sequence[prefix])

		cents := tmpl.minPrice*100 + cmd.rand.Intn((tmpl.maxPrice-tmpl.minPrice)*100+1)
		if cents == 0 {
			cents = 1
		}
		manufactured := baseDate.AddDate(0, 0, cmd.rand.Intn(150))
		expiry := ""
		if tmpl.shelfLife > 0 {
			expiry = manufactured.AddDate(0, 0, tmpl.shelfLife).Format("2006-01-02")
		}

		rows = append(rows, []string{
			id,
			tmpl.name,
			tmpl.category,
			fmt.Sprintf("%d.%02d", cents/100, cents%100),
			manufactured.Format("2006-01-02"),
			expiry,
			strconv.Itoa(tmpl.warrantyYrs),
		})
	}
	return rows
}

func (cmd *GenerateCommand) generateHolders() []generatedHolder {
	var holders []generatedHolder
	add := func(prefix, role string, count, minCap, maxCap int) {
		for i := 1; i <= count; i++ {
			holders = append(holders, generatedHolder{
				id:       fmt.Sprintf("%s%d", prefix, i),
				role:     role,
				capacity: minCap + cmd.rand.Intn(maxCap-minCap+1),
			})
		}
	}
	add("wh", "warehouse", cmd.config.Warehouses, 1000, 5000)
	add("dist", "distributor", cmd.config.Distributors, 200, 1000)
	add("shop", "retailer", cmd.config.Retailers, 50, 200)
	return holders
}

func holderRows(holders []generatedHolder) [][]string {
	rows := [][]string{{"id", "role", "name", "capacity"}}
	for _, h := range holders {
		name := strings.ToUpper(h.id[:1]) + h.id[1:]
		rows = append(rows, []string{h.id, h.role, name, strconv.Itoa(h.capacity)})
	}
	return rows
}

// generateStock fills each warehouse to roughly the configured share of its
// capacity, spread over random products
func (cmd *GenerateCommand) generateStock(products [][]string, holders []generatedHolder) [][]string {
	rows := [][]string{{"holder", "product_id", "quantity"}}
	for _, h := range byRole(holders, "warehouse") {
		remaining := int(float64(h.capacity) * cmd.config.Fill)
		stocked := make(map[string]int)
		var order []string
		for remaining > 0 {
			id := products[1+cmd.rand.Intn(len(products)-1)][0]
			qty := 1 + cmd.rand.Intn(max(1, remaining/3))
			if qty > remaining {
				qty = remaining
			}
			if _, seen := stocked[id]; !seen {
				order = append(order, id)
			}
			stocked[id] += qty
			remaining -= qty
		}
		for _, id := range order {
			rows = append(rows, []string{h.id, id, strconv.Itoa(stocked[id])})
		}
	}
	return rows
}

// generateOrders starts with one transfer per distributor from a random
// warehouse, then adds the retailer orders
func (cmd *GenerateCommand) generateOrders(products [][]string, holders []generatedHolder) [][]string {
	rows := [][]string{{"buyer", "seller", "product_id", "quantity"}}
	warehouses := byRole(holders, "warehouse")
	distributors := byRole(holders, "distributor")
	retailers := byRole(holders, "retailer")

	pick := func() string { return products[1+cmd.rand.Intn(len(products)-1)][0] }

	for _, d := range distributors {
		wh := warehouses[cmd.rand.Intn(len(warehouses))]
		rows = append(rows, []string{d.id, wh.id, pick(), strconv.Itoa(1 + cmd.rand.Intn(max(1, d.capacity/4)))})
	}
	for i := 0; i < cmd.config.Orders; i++ {
		r := retailers[cmd.rand.Intn(len(retailers))]
		d := distributors[cmd.rand.Intn(len(distributors))]
		rows = append(rows, []string{r.id, d.id, pick(), strconv.Itoa(1 + cmd.rand.Intn(20))})
	}
	return rows
}

func byRole(holders []generatedHolder, role string) []generatedHolder {
	var out []generatedHolder
	for _, h := range holders {
		if h.role == role {
			out = append(out, h)
		}
	}
	return out
}

func writeRows(path string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return file.Close()
}

// printHelp shows usage information
func (cmd *GenerateCommand) printHelp() {
	fmt.Fprintln(cmd.out, `Supply Chain Scenario Generator

USAGE:
    scm generate [OPTIONS]

OPTIONS:
    -products <N>       Number of catalog products (default: 20)
    -warehouses <N>     Number of warehouses (default: 1)
    -distributors <N>   Number of distributors (default: 2)
    -retailers <N>      Number of retailers (default: 3)
    -orders <N>         Number of retailer orders (default: 25)
    -fill <F>           Share of warehouse capacity stocked at the start, 0-1 (default: 0.6)
    -output <DIR>       Output directory for generated files (required)
    -seed <N>           Random seed for reproducible generation (optional)
    -verbose            Enable verbose output
    -help               Show this help message

EXAMPLES:
    # Generate a small scenario and run it
    scm generate -output ./corner_shop -seed 7
    scm -scenario ./corner_shop -settle

    # Generate a busy scenario with full warehouses
    scm generate -products 200 -retailers 20 -orders 1000 -fill 1 -output ./busy`)
}
