package main

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/supplychain/pkg/application/services/supplychain"
	"github.com/vsinha/supplychain/pkg/domain/entities"
	"github.com/vsinha/supplychain/pkg/infrastructure/events"
	"github.com/vsinha/supplychain/pkg/infrastructure/repositories/memory"
)

func main() {
	ctx := context.Background()

	// Create repositories
	catalog := memory.NewProductRepository(8)
	payments := memory.NewPaymentProcessor(nil)
	eventStore := events.NewInMemoryEventStore(nil)

	chain, err := supplychain.New(supplychain.Config{
		Catalog:   catalog,
		Orders:    memory.NewOrderRepository(),
		Payments:  payments,
		Publisher: eventStore,
	})
	if err != nil {
		fmt.Printf("❌ Setup failed: %v\n", err)
		return
	}

	// Set up a small car parts chain
	pune := entities.Location{Address: "12 MG Road", City: "Pune", Country: "India", PostalCode: "411001"}
	factory, _ := chain.AddManufacturer("Sahyadri Motors", pune, 10)
	warehouse, _ := chain.AddWarehouse(pune, 500, "Asha Patil")
	distributor, _ := chain.AddDistributor("Deccan Logistics", pune, 200)
	retailer, _ := chain.AddRetailer("Corner Garage", pune, 40)

	brakes, err := factory.Manufacture("Brake Pad", "Parts", decimal.RequireFromString("12.50"), 0, 2)
	if err != nil {
		fmt.Printf("❌ Manufacturing failed: %v\n", err)
		return
	}
	coolant, _ := factory.Manufacture("Coolant", "Fluids", decimal.RequireFromString("7.99"), 365, 0)

	_ = warehouse.Store(brakes.ID, 300)
	_ = warehouse.Store(coolant.ID, 120)

	fmt.Println("🚚 Moving stock from warehouse to distributor...")
	transfer, err := distributor.ReceiveFromWarehouse(ctx, warehouse, brakes.ID, 150)
	if err != nil {
		fmt.Printf("❌ Transfer failed: %v\n", err)
		return
	}
	fmt.Printf("  %s: %d x %s -> %s\n", transfer.Order.ID, transfer.Order.Quantity, brakes.Name, transfer.Order.Status)
	fmt.Println()

	fmt.Println("🛒 Retailer orders:")
	for _, qty := range []entities.Quantity{20, 25, 500} {
		result, err := retailer.PlaceOrder(ctx, distributor, brakes.ID, qty)
		if err != nil {
			fmt.Printf("❌ Order failed: %v\n", err)
			return
		}
		fmt.Printf("  %s: %d units, %s (value %s)\n",
			result.Order.ID, qty, result.Order.Status, result.Order.Total.StringFixed(2))
		if result.Reason != nil {
			fmt.Printf("    ⚠️  %v\n", result.Reason)
			continue
		}
		if err := retailer.ConfirmDelivery(ctx, result.Order.ID); err != nil {
			fmt.Printf("❌ Delivery failed: %v\n", err)
			return
		}
		if _, err := retailer.Pay(ctx, result.Order.ID); err != nil {
			fmt.Printf("❌ Payment failed: %v\n", err)
			return
		}
	}
	fmt.Println()

	_ = retailer.Sell(brakes.ID, 8)

	// Nothing has expired yet, and no ledger is full
	reports, _ := chain.SweepExpired(ctx, time.Now())
	swept := 0
	for _, r := range reports {
		if r.Swept {
			swept++
		}
	}

	status, _ := chain.Status()
	published, _ := eventStore.ReadAllEvents(0)

	fmt.Println("📊 Supply Chain Status:")
	fmt.Printf("  Products: %d  Manufacturers: %d  Warehouses: %d  Distributors: %d  Retailers: %d\n",
		status.Products, status.Manufacturers, status.Warehouses, status.Distributors, status.Retailers)
	for _, h := range chain.Holders() {
		fmt.Printf("  %-9s %-12s %4d / %-4d units\n", h.ID, h.Role, h.Stock, h.Capacity)
	}
	fmt.Printf("  Payments: %d totalling %s\n", payments.TransactionCount(), payments.TotalBalance().StringFixed(2))
	fmt.Printf("  Ledgers swept: %d\n", swept)
	fmt.Printf("  Events published: %d\n", len(published))
}
