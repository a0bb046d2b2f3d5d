package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/supplychain/pkg/domain/entities"
)

const dateLayout = "2006-01-02"

// HolderRow declares one stock holder of a scenario
type HolderRow struct {
	ID       string
	Role     string
	Name     string
	Capacity entities.Quantity
}

// StockRow is the opening quantity of a product at a holder
type StockRow struct {
	Holder    string
	ProductID entities.ProductID
	Quantity  entities.Quantity
}

// OrderRow asks seller to ship quantity of a product to buyer
type OrderRow struct {
	Buyer     string
	Seller    string
	ProductID entities.ProductID
	Quantity  entities.Quantity
}

// Loader handles loading scenario data from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadProducts loads catalog products from a CSV file
func (l *Loader) LoadProducts(filename string) ([]*entities.Product, error) {
	expectedHeader := []string{"id", "name", "category", "unit_price", "manufacture_date", "expiry_date", "warranty_years"}
	records, err := readRecords(filename, "products", expectedHeader)
	if err != nil {
		return nil, err
	}

	var products []*entities.Product
	for i, record := range records {
		product, err := parseProduct(record)
		if err != nil {
			return nil, fmt.Errorf("products CSV row %d: %w", i+2, err)
		}
		products = append(products, product)
	}
	return products, nil
}

// LoadHolders loads warehouses, distributors and retailers from a CSV file
func (l *Loader) LoadHolders(filename string) ([]HolderRow, error) {
	records, err := readRecords(filename, "holders", []string{"id", "role", "name", "capacity"})
	if err != nil {
		return nil, err
	}

	var holders []HolderRow
	for i, record := range records {
		capacity, err := strconv.ParseInt(record[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("holders CSV row %d: invalid capacity: %s", i+2, record[3])
		}
		holders = append(holders, HolderRow{
			ID:       strings.TrimSpace(record[0]),
			Role:     strings.ToLower(strings.TrimSpace(record[1])),
			Name:     record[2],
			Capacity: entities.Quantity(capacity),
		})
	}
	return holders, nil
}

// LoadStock loads opening stock levels from a CSV file
func (l *Loader) LoadStock(filename string) ([]StockRow, error) {
	records, err := readRecords(filename, "stock", []string{"holder", "product_id", "quantity"})
	if err != nil {
		return nil, err
	}

	var stock []StockRow
	for i, record := range records {
		quantity, err := strconv.ParseInt(record[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("stock CSV row %d: invalid quantity: %s", i+2, record[2])
		}
		stock = append(stock, StockRow{
			Holder:    strings.TrimSpace(record[0]),
			ProductID: entities.ProductID(strings.TrimSpace(record[1])),
			Quantity:  entities.Quantity(quantity),
		})
	}
	return stock, nil
}

// LoadOrders loads the orders to run from a CSV file, in file order
func (l *Loader) LoadOrders(filename string) ([]OrderRow, error) {
	records, err := readRecords(filename, "orders", []string{"buyer", "seller", "product_id", "quantity"})
	if err != nil {
		return nil, err
	}

	var orders []OrderRow
	for i, record := range records {
		quantity, err := strconv.ParseInt(record[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("orders CSV row %d: invalid quantity: %s", i+2, record[3])
		}
		orders = append(orders, OrderRow{
			Buyer:     strings.TrimSpace(record[0]),
			Seller:    strings.TrimSpace(record[1]),
			ProductID: entities.ProductID(strings.TrimSpace(record[2])),
			Quantity:  entities.Quantity(quantity),
		})
	}
	return orders, nil
}

// readRecords returns the data rows of a CSV file after checking its header
// and column counts
func readRecords(filename, kind string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", kind, filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", kind, err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("%s CSV must have header and at least one data row", kind)
	}

	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", kind, expectedHeader, header)
	}

	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", kind, i+2, len(expectedHeader), len(record))
		}
	}
	return records[1:], nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}

	return true
}

func parseProduct(record []string) (*entities.Product, error) {
	unitPrice, err := decimal.NewFromString(strings.TrimSpace(record[3]))
	if err != nil {
		return nil, fmt.Errorf("invalid unit_price: %s", record[3])
	}

	manufactured, err := time.Parse(dateLayout, strings.TrimSpace(record[4]))
	if err != nil {
		return nil, fmt.Errorf("invalid manufacture_date format: %s (expected YYYY-MM-DD)", record[4])
	}

	// Empty expiry_date means the product does not expire
	var expiry *time.Time
	if s := strings.TrimSpace(record[5]); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return nil, fmt.Errorf("invalid expiry_date format: %s (expected YYYY-MM-DD)", record[5])
		}
		expiry = &t
	}

	warrantyYears, err := strconv.Atoi(strings.TrimSpace(record[6]))
	if err != nil {
		return nil, fmt.Errorf("invalid warranty_years: %s", record[6])
	}

	return entities.NewProduct(
		entities.ProductID(strings.TrimSpace(record[0])),
		record[1],
		record[2],
		unitPrice,
		manufactured,
		expiry,
		warrantyYears,
	)
}
