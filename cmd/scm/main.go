package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vsinha/supplychain/pkg/interfaces/cli/commands"
)

func main() {
	// A missing .env file is fine; flags and the process environment still apply
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error: loading .env: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	if len(os.Args) > 1 && os.Args[1] == "generate" {
		err = runGenerate(ctx, os.Args[2:])
	} else {
		err = runScenario(ctx, os.Args[1:])
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runScenario(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("scm", flag.ExitOnError)

	// Command line flags, defaulting to the environment
	var (
		scenarioDir = fset.String(
			"scenario",
			getEnvOrDefault("SCM_SCENARIO", ""),
			"Path to scenario directory containing CSV files",
		)
		orderDB   = fset.String("order-db", getEnvOrDefault("SCM_ORDER_DB", ""), "SQLite database for order history (optional)")
		asOf      = fset.String("as-of", "", "Reference date for expiry sweeps, YYYY-MM-DD (default: today)")
		outputDir = fset.String("output", "", "Output directory for results (optional)")
		format    = fset.String("format", "text", "Output format: text, json, csv")
		settle    = fset.Bool("settle", false, "Deliver and pay every shipped retailer order")
		metrics   = fset.Bool("metrics", getEnvBool("SCM_METRICS", false), "Include fulfillment counters in the report")
		logLevel  = fset.String("log-level", getEnvOrDefault("SCM_LOG_LEVEL", "warn"), "Log level: debug, info, warn, error")
		verbose   = fset.Bool("verbose", false, "Enable verbose output")
		help      = fset.Bool("help", false, "Show help message")
	)
	if err := fset.Parse(args); err != nil {
		return err
	}

	logger, err := newLogger(*logLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	config := commands.Config{
		ScenarioDir: *scenarioDir,
		OrderDB:     *orderDB,
		AsOf:        *asOf,
		OutputDir:   *outputDir,
		Format:      *format,
		Settle:      *settle,
		Metrics:     *metrics,
		Verbose:     *verbose,
		Help:        *help,
	}

	return commands.NewScenarioCommand(config, logger).Execute(ctx)
}

func runGenerate(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("scm generate", flag.ExitOnError)

	var (
		products     = fset.Int("products", 20, "Number of catalog products")
		warehouses   = fset.Int("warehouses", 1, "Number of warehouses")
		distributors = fset.Int("distributors", 2, "Number of distributors")
		retailers    = fset.Int("retailers", 3, "Number of retailers")
		orders       = fset.Int("orders", 25, "Number of retailer orders")
		fill         = fset.Float64("fill", 0.6, "Share of warehouse capacity stocked at the start")
		outputDir    = fset.String("output", "", "Output directory for generated files")
		seed         = fset.Int64("seed", 0, "Random seed for reproducible generation")
		verbose      = fset.Bool("verbose", false, "Enable verbose output")
		help         = fset.Bool("help", false, "Show help message")
	)
	if err := fset.Parse(args); err != nil {
		return err
	}

	config := commands.GenerateConfig{
		Products:     *products,
		Warehouses:   *warehouses,
		Distributors: *distributors,
		Retailers:    *retailers,
		Orders:       *orders,
		Fill:         *fill,
		OutputDir:    *outputDir,
		Seed:         *seed,
		Help:         *help,
		Verbose:      *verbose,
	}

	return commands.NewGenerateCommand(config).Execute(ctx)
}

// newLogger builds a production zap logger writing to stderr at the given level
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}
