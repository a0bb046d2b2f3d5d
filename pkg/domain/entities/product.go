package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ProductID represents a unique product identifier
type ProductID string

// Quantity represents an integer quantity of discrete units
type Quantity int64

// Product is an immutable catalog definition. Updates go through the With*
// methods, which return a modified copy.
type Product struct {
	ID              ProductID
	Name            string
	Category        string
	UnitPrice       decimal.Decimal
	ManufactureDate time.Time
	ExpiryDate      *time.Time
	WarrantyYears   int
}

// NewProduct creates a validated Product
func NewProduct(
	id ProductID,
	name, category string,
	unitPrice decimal.Decimal,
	manufactureDate time.Time,
	expiryDate *time.Time,
	warrantyYears int,
) (*Product, error) {
	if string(id) == "" {
		return nil, fmt.Errorf("product id cannot be empty")
	}
	if name == "" {
		return nil, fmt.Errorf("product name cannot be empty")
	}
	if !unitPrice.IsPositive() {
		return nil, fmt.Errorf("unit price must be positive, got %s", unitPrice)
	}
	if warrantyYears < 0 {
		return nil, fmt.Errorf("warranty years cannot be negative, got %d", warrantyYears)
	}
	if expiryDate != nil && expiryDate.Before(manufactureDate) {
		return nil, fmt.Errorf("expiry date %s cannot be before manufacture date %s",
			expiryDate.Format(time.DateOnly), manufactureDate.Format(time.DateOnly))
	}

	p := &Product{
		ID:              id,
		Name:            name,
		Category:        category,
		UnitPrice:       unitPrice,
		ManufactureDate: manufactureDate,
		WarrantyYears:   warrantyYears,
	}
	if expiryDate != nil {
		expiry := *expiryDate
		p.ExpiryDate = &expiry
	}
	return p, nil
}

// HasExpiry reports whether the product carries an expiry date
func (p Product) HasExpiry() bool {
	return p.ExpiryDate != nil
}

// IsExpired reports whether the expiry date is strictly before ref.
// Products without an expiry date never expire.
func (p Product) IsExpired(ref time.Time) bool {
	return p.ExpiryDate != nil && p.ExpiryDate.Before(ref)
}

// WithPrice returns a copy of the product with a new unit price
func (p Product) WithPrice(price decimal.Decimal) (*Product, error) {
	return NewProduct(p.ID, p.Name, p.Category, price, p.ManufactureDate, p.ExpiryDate, p.WarrantyYears)
}

// WithExpiry returns a copy of the product with a new expiry date; nil clears it
func (p Product) WithExpiry(expiry *time.Time) (*Product, error) {
	return NewProduct(p.ID, p.Name, p.Category, p.UnitPrice, p.ManufactureDate, expiry, p.WarrantyYears)
}
