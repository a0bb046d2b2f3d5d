package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/vsinha/supplychain/pkg/application/dto"
)

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
	Writer    io.Writer
}

// Generate creates output in the specified format
func Generate(result *dto.ScenarioResult, config Config) error {
	if config.Writer == nil {
		config.Writer = os.Stdout
	}

	switch config.Format {
	case "text":
		return generateTextOutput(result, config)
	case "json":
		return generateJSONOutput(result, config)
	case "csv":
		return generateCSVOutput(result, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// generateTextOutput creates human-readable text output
func generateTextOutput(result *dto.ScenarioResult, config Config) error {
	w := config.Writer

	fmt.Fprintf(w, "📊 Supply Chain Scenario Summary\n")
	fmt.Fprintf(w, "================================\n\n")

	fmt.Fprintf(w, "As Of: %s\n", result.AsOf.Format("2006-01-02"))
	fmt.Fprintf(w, "Products: %d\n", result.Status.Products)
	fmt.Fprintf(w, "Warehouses: %d  Distributors: %d  Retailers: %d\n",
		result.Status.Warehouses, result.Status.Distributors, result.Status.Retailers)
	fmt.Fprintf(w, "Orders: %d (shipped %d)\n", len(result.Orders), result.Shipped())
	fmt.Fprintf(w, "Payments: %d totalling %s\n", result.Payments.Count, result.Payments.Balance.StringFixed(2))
	fmt.Fprintf(w, "Expired Units Removed: %d\n", result.RemovedUnits())
	fmt.Fprintf(w, "Run Time: %v\n\n", result.Duration)

	if len(result.Orders) > 0 {
		fmt.Fprintf(w, "📋 Orders:\n")
		fmt.Fprintf(w, "%-12s %-10s %-10s %-12s %-8s %-12s %-10s\n",
			"Order", "Buyer", "Seller", "Product", "Qty", "Total", "Status")
		fmt.Fprintf(w, "%-12s %-10s %-10s %-12s %-8s %-12s %-10s\n",
			"------------", "----------", "----------", "------------", "--------", "------------", "----------")

		for _, o := range result.Orders {
			fmt.Fprintf(w, "%-12s %-10s %-10s %-12s %-8d %-12s %-10s\n",
				o.Order.ID,
				o.Buyer,
				o.Seller,
				o.Order.ProductID,
				o.Order.Quantity,
				o.Order.Total.StringFixed(2),
				o.Order.Status)
			if o.Reason != "" && config.Verbose {
				fmt.Fprintf(w, "    ↳ %s\n", o.Reason)
			}
		}
		fmt.Fprintln(w)
	}

	if len(result.Holders) > 0 {
		fmt.Fprintf(w, "📦 Stock Holders:\n")
		fmt.Fprintf(w, "%-10s %-12s %-16s %-10s %-10s %-10s\n",
			"ID", "Role", "Name", "Stock", "Capacity", "Products")
		fmt.Fprintf(w, "%-10s %-12s %-16s %-10s %-10s %-10s\n",
			"----------", "------------", "----------------", "----------", "----------", "----------")

		for _, h := range result.Holders {
			fmt.Fprintf(w, "%-10s %-12s %-16s %-10d %-10d %-10d\n",
				h.ID, h.Role, h.Name, h.Stock, h.Capacity, h.Products)
		}
		fmt.Fprintln(w)
	}

	var swept []string
	for _, s := range result.Sweeps {
		if len(s.RemovedIDs) > 0 {
			ids := make([]string, len(s.RemovedIDs))
			for i, id := range s.RemovedIDs {
				ids[i] = string(id)
			}
			swept = append(swept, fmt.Sprintf("  %s: removed %d units (%s)", s.Ledger, s.RemovedUnits, strings.Join(ids, ", ")))
		}
	}
	if len(swept) > 0 {
		fmt.Fprintf(w, "⚠️  Expired Stock:\n%s\n\n", strings.Join(swept, "\n"))
	}

	if len(result.Metrics) > 0 {
		fmt.Fprintf(w, "📈 Metrics:\n")
		for _, m := range result.Metrics {
			fmt.Fprintf(w, "  %s%s %g\n", m.Name, formatLabels(m.Labels), m.Value)
		}
		fmt.Fprintln(w)
	}

	if config.Verbose {
		fmt.Fprintf(w, "Events published: %d\n", result.Events)
	}
	return nil
}

func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = fmt.Sprintf("%s=%q", k, labels[k])
	}
	return "{" + strings.Join(pairs, ",") + "}"
}

// generateJSONOutput creates JSON output
func generateJSONOutput(result *dto.ScenarioResult, config Config) error {
	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		fmt.Fprintln(config.Writer, string(jsonData))
		return nil
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := filepath.Join(config.OutputDir, "scenario_results.json")
	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}

	if config.Verbose {
		fmt.Fprintf(config.Writer, "💾 JSON results saved to: %s\n", filename)
	}
	return nil
}

// generateCSVOutput writes order and holder tables as CSV files
func generateCSVOutput(result *dto.ScenarioResult, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ordersFile := filepath.Join(config.OutputDir, "order_results.csv")
	if err := writeOrdersCSV(result.Orders, ordersFile); err != nil {
		return fmt.Errorf("failed to write orders CSV: %w", err)
	}

	holdersFile := filepath.Join(config.OutputDir, "holders.csv")
	if err := writeHoldersCSV(result, holdersFile); err != nil {
		return fmt.Errorf("failed to write holders CSV: %w", err)
	}

	if config.Verbose {
		fmt.Fprintf(config.Writer, "💾 CSV results saved to:\n")
		fmt.Fprintf(config.Writer, "  Orders: %s\n", ordersFile)
		fmt.Fprintf(config.Writer, "  Holders: %s\n", holdersFile)
	}
	return nil
}

func writeOrdersCSV(orders []dto.OrderOutcome, filename string) error {
	rows := [][]string{{"order_id", "buyer", "seller", "product_id", "quantity", "unit_price", "total", "status", "reason"}}
	for _, o := range orders {
		rows = append(rows, []string{
			string(o.Order.ID),
			o.Buyer,
			o.Seller,
			string(o.Order.ProductID),
			strconv.FormatInt(int64(o.Order.Quantity), 10),
			o.Order.UnitPrice.String(),
			o.Order.Total.String(),
			o.Order.Status.String(),
			o.Reason,
		})
	}
	return writeCSV(filename, rows)
}

func writeHoldersCSV(result *dto.ScenarioResult, filename string) error {
	rows := [][]string{{"id", "role", "name", "stock", "capacity", "products"}}
	for _, h := range result.Holders {
		rows = append(rows, []string{
			h.ID,
			h.Role,
			h.Name,
			strconv.FormatInt(int64(h.Stock), 10),
			strconv.FormatInt(int64(h.Capacity), 10),
			strconv.Itoa(h.Products),
		})
	}
	return writeCSV(filename, rows)
}

func writeCSV(filename string, rows [][]string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return file.Close()
}
