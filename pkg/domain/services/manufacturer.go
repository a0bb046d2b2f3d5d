package services

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/supplychain/pkg/domain/entities"
	"github.com/vsinha/supplychain/pkg/domain/repositories"
)

// ErrProductionCapacityReached is returned once a manufacturer has produced
// as many products as its capacity allows
var ErrProductionCapacityReached = errors.New("production capacity reached")

// Manufacturer creates product definitions and registers them in the catalog
type Manufacturer struct {
	ID       string
	Name     string
	Location entities.Location

	capacity int
	catalog  repositories.ProductRepository
	clock    func() time.Time

	mu       sync.Mutex
	produced []entities.ProductID
}

// NewManufacturer creates a manufacturer that may define up to capacity products
func NewManufacturer(
	id, name string,
	location entities.Location,
	capacity int,
	catalog repositories.ProductRepository,
	clock func() time.Time,
) (*Manufacturer, error) {
	if id == "" {
		return nil, fmt.Errorf("manufacturer id cannot be empty")
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("production capacity must be positive, got %d", capacity)
	}
	if catalog == nil {
		return nil, fmt.Errorf("manufacturer %s: catalog cannot be nil", id)
	}
	if clock == nil {
		clock = time.Now
	}
	return &Manufacturer{
		ID:       id,
		Name:     name,
		Location: location,
		capacity: capacity,
		catalog:  catalog,
		clock:    clock,
	}, nil
}

// Manufacture defines a new product dated today. The id is the first three
// letters of the name upper-cased plus a four digit sequence (SED0001).
// expiryDays of zero means the product does not expire.
func (m *Manufacturer) Manufacture(
	name, category string,
	unitPrice decimal.Decimal,
	expiryDays, warrantyYears int,
) (*entities.Product, error) {
	if expiryDays < 0 {
		return nil, fmt.Errorf("expiry days cannot be negative, got %d", expiryDays)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.produced) >= m.capacity {
		return nil, fmt.Errorf("%w: %s produced %d of %d", ErrProductionCapacityReached, m.ID, len(m.produced), m.capacity)
	}

	made := m.clock().Truncate(24 * time.Hour)
	var expiry *time.Time
	if expiryDays > 0 {
		e := made.AddDate(0, 0, expiryDays)
		expiry = &e
	}

	prefix := productPrefix(name)
	for seq := len(m.produced) + 1; ; seq++ {
		id := entities.ProductID(fmt.Sprintf("%s%04d", prefix, seq))
		product, err := entities.NewProduct(id, name, category, unitPrice, made, expiry, warrantyYears)
		if err != nil {
			return nil, err
		}
		err = m.catalog.SaveProduct(product)
		if errors.Is(err, repositories.ErrDuplicateProduct) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("register %s: %w", id, err)
		}
		m.produced = append(m.produced, id)
		return product, nil
	}
}

// Produced returns the ids this manufacturer has defined
func (m *Manufacturer) Produced() []entities.ProductID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entities.ProductID(nil), m.produced...)
}

func productPrefix(name string) string {
	letters := []rune(strings.ToUpper(strings.ReplaceAll(name, " ", "")))
	if len(letters) > 3 {
		letters = letters[:3]
	}
	if len(letters) == 0 {
		return "PRD"
	}
	return string(letters)
}
