package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/vsinha/supplychain/pkg/application/dto"
	"github.com/vsinha/supplychain/pkg/domain/entities"
)

func writeScenario(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

var dairyScenario = map[string]string{
	"products.csv": `id,name,category,unit_price,manufacture_date,expiry_date,warranty_years
BRK0001,Brake Pad,Parts,12.50,2025-01-10,,2
MLK0001,Milk,Dairy,1.25,2025-05-01,2025-05-15,0
`,
	"holders.csv": `id,role,name,capacity
central,warehouse,Central Depot,100
north,distributor,North Logistics,60
corner,retailer,Corner Shop,10
`,
	"stock.csv": `holder,product_id,quantity
central,BRK0001,40
central,MLK0001,60
`,
	"orders.csv": `buyer,seller,product_id,quantity
north,central,BRK0001,30
corner,north,BRK0001,8
corner,north,BRK0001,50
`,
}

func runScenario(t *testing.T, config Config) (*dto.ScenarioResult, error) {
	t.Helper()
	var out bytes.Buffer
	config.Format = "json"
	cmd := NewScenarioCommand(config, zaptest.NewLogger(t))
	cmd.out = &out
	if err := cmd.Execute(context.Background()); err != nil {
		return nil, err
	}

	var result dto.ScenarioResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	return &result, nil
}

func TestScenarioCommand_RunsOrdersAndSweeps(t *testing.T) {
	dir := writeScenario(t, dairyScenario)

	result, err := runScenario(t, Config{ScenarioDir: dir, AsOf: "2025-06-01", Settle: true, Metrics: true})
	require.NoError(t, err)

	require.Len(t, result.Orders, 3)
	assert.Equal(t, entities.OrderID("TRF-000001"), result.Orders[0].Order.ID)
	assert.Equal(t, entities.Shipped, result.Orders[0].Order.Status)
	assert.Equal(t, entities.Delivered, result.Orders[1].Order.Status)
	assert.Equal(t, entities.Cancelled, result.Orders[2].Order.Status)
	assert.Contains(t, result.Orders[2].Reason, "insufficient stock")
	assert.Equal(t, 2, result.Shipped())

	assert.Equal(t, 1, result.Payments.Count)
	assert.Equal(t, "100", result.Payments.Balance.String())

	// The warehouse is at capacity after the opening stock arrives, but the
	// transfer frees room before the sweep runs, so the milk survives.
	assert.Equal(t, entities.Quantity(0), result.RemovedUnits())

	holders := map[string]entities.Quantity{}
	for _, h := range result.Holders {
		holders[h.ID] = h.Stock
	}
	assert.Equal(t, map[string]entities.Quantity{"WH0001": 70, "DIST0001": 22, "RET0001": 8}, holders)
	assert.NotEmpty(t, result.Metrics)
	assert.Greater(t, result.Events, 0)
}

func TestScenarioCommand_SweepsFullWarehouse(t *testing.T) {
	files := map[string]string{}
	for k, v := range dairyScenario {
		files[k] = v
	}
	delete(files, "orders.csv")
	dir := writeScenario(t, files)

	result, err := runScenario(t, Config{ScenarioDir: dir, AsOf: "2025-06-01"})
	require.NoError(t, err)

	assert.Empty(t, result.Orders)
	assert.Equal(t, entities.Quantity(60), result.RemovedUnits())
	require.NotEmpty(t, result.Sweeps)
	assert.Equal(t, []entities.ProductID{"MLK0001"}, result.Sweeps[0].RemovedIDs)
}

func TestScenarioCommand_PersistsOrdersToSQLite(t *testing.T) {
	dir := writeScenario(t, dairyScenario)
	db := filepath.Join(t.TempDir(), "orders.db")

	_, err := runScenario(t, Config{ScenarioDir: dir, OrderDB: db, AsOf: "2025-06-01"})
	require.NoError(t, err)

	info, err := os.Stat(db)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestScenarioCommand_Errors(t *testing.T) {
	tests := []struct {
		name   string
		files  map[string]string
		config Config
		want   string
	}{
		{
			name:   "missing directory flag",
			config: Config{},
			want:   "must specify -scenario",
		},
		{
			name:   "bad as-of",
			files:  dairyScenario,
			config: Config{AsOf: "June"},
			want:   "invalid -as-of",
		},
		{
			name:  "missing holders",
			files: map[string]string{"products.csv": dairyScenario["products.csv"]},
			want:  "Holders file not found",
		},
		{
			name: "unknown role",
			files: map[string]string{
				"products.csv": dairyScenario["products.csv"],
				"holders.csv":  "id,role,name,capacity\nx,supplier,X,10\n",
			},
			want: `unknown role "supplier"`,
		},
		{
			name: "retailer buying from warehouse",
			files: map[string]string{
				"products.csv": dairyScenario["products.csv"],
				"holders.csv":  dairyScenario["holders.csv"],
				"orders.csv":   "buyer,seller,product_id,quantity\ncorner,central,BRK0001,1\n",
			},
			want: "a retailer cannot buy from a warehouse",
		},
		{
			name: "opening stock over capacity",
			files: map[string]string{
				"products.csv": dairyScenario["products.csv"],
				"holders.csv":  dairyScenario["holders.csv"],
				"stock.csv":    "holder,product_id,quantity\ncorner,BRK0001,11\n",
			},
			want: "capacity exceeded",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := tt.config
			if tt.files != nil {
				config.ScenarioDir = writeScenario(t, tt.files)
			}
			_, err := runScenario(t, config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestGenerateCommand_ProducesRunnableScenario(t *testing.T) {
	dir := t.TempDir()
	gen := NewGenerateCommand(GenerateConfig{
		Products:     15,
		Warehouses:   2,
		Distributors: 2,
		Retailers:    3,
		Orders:       40,
		Fill:         1,
		OutputDir:    dir,
		Seed:         42,
	})
	gen.out = &bytes.Buffer{}
	require.NoError(t, gen.Execute(context.Background()))

	for _, name := range []string{"products.csv", "holders.csv", "stock.csv", "orders.csv"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	result, err := runScenario(t, Config{ScenarioDir: dir, AsOf: "2025-12-31", Settle: true})
	require.NoError(t, err)
	assert.Len(t, result.Orders, 42)
	assert.Len(t, result.Holders, 7)
}

func TestGenerateCommand_Validation(t *testing.T) {
	gen := NewGenerateCommand(GenerateConfig{Products: 5, Warehouses: 1, Distributors: 1, Retailers: 1, Fill: 2, OutputDir: t.TempDir()})
	err := gen.Execute(context.Background())
	assert.ErrorContains(t, err, "--fill must be between 0 and 1")
}
