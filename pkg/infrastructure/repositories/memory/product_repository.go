package memory

import (
	"fmt"
	"sync"

	"github.com/vsinha/supplychain/pkg/domain/entities"
	"github.com/vsinha/supplychain/pkg/domain/repositories"
)

// ProductRepository provides in-memory catalog storage
type ProductRepository struct {
	mu          sync.RWMutex
	products    []entities.Product
	productsMap map[entities.ProductID]int
}

// NewProductRepository creates a new in-memory product repository
func NewProductRepository(expectedProducts int) *ProductRepository {
	return &ProductRepository{
		products:    make([]entities.Product, 0, expectedProducts),
		productsMap: make(map[entities.ProductID]int, expectedProducts),
	}
}

// Verify interface compliance
var _ repositories.ProductRepository = (*ProductRepository)(nil)

// LoadProducts loads products into the repository, stopping at the first duplicate
func (r *ProductRepository) LoadProducts(products []*entities.Product) error {
	for _, product := range products {
		if err := r.SaveProduct(product); err != nil {
			return err
		}
	}
	return nil
}

// GetProduct returns the catalog entry for a product id
func (r *ProductRepository) GetProduct(id entities.ProductID) (*entities.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	index, exists := r.productsMap[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", entities.ErrProductNotFound, id)
	}
	product := r.products[index]
	return &product, nil
}

// GetAllProducts returns all products in insertion order
func (r *ProductRepository) GetAllProducts() ([]*entities.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]*entities.Product, 0, len(r.products))
	for i := range r.products {
		product := r.products[i]
		products = append(products, &product)
	}
	return products, nil
}

// SaveProduct adds a new product to the catalog
func (r *ProductRepository) SaveProduct(product *entities.Product) error {
	if product == nil {
		return fmt.Errorf("product cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.productsMap[product.ID]; exists {
		return fmt.Errorf("%w: %s", repositories.ErrDuplicateProduct, product.ID)
	}
	r.productsMap[product.ID] = len(r.products)
	r.products = append(r.products, *product)
	return nil
}

// UpdateProduct replaces an existing catalog entry
func (r *ProductRepository) UpdateProduct(product *entities.Product) error {
	if product == nil {
		return fmt.Errorf("product cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	index, exists := r.productsMap[product.ID]
	if !exists {
		return fmt.Errorf("%w: %s", entities.ErrProductNotFound, product.ID)
	}
	r.products[index] = *product
	return nil
}

// Count returns the number of catalog entries
func (r *ProductRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.products)
}
