package repositories

import (
	"errors"

	"github.com/vsinha/supplychain/pkg/domain/entities"
)

// ErrDuplicateProduct is returned when saving a product id that already exists
var ErrDuplicateProduct = errors.New("duplicate product")

// ProductRepository is the product catalog. Products are shared read-only
// definitions; changes go through UpdateProduct.
type ProductRepository interface {
	GetProduct(id entities.ProductID) (*entities.Product, error)
	GetAllProducts() ([]*entities.Product, error)
	SaveProduct(product *entities.Product) error
	UpdateProduct(product *entities.Product) error
	LoadProducts(products []*entities.Product) error
}
