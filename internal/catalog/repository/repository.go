package repository

import (
	"context"
	"errors"

	"github.com/itik-it/grindstack/internal/catalog/domain"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrDuplicateProductID = errors.New("product id already exists")
	ErrInsufficientStock  = errors.New("insufficient stock")
)

// ProductRepository defines the interface for product data operations
// Consumers define this interface, not the MongoDB implementation
type ProductRepository interface {
	GetAll(ctx context.Context) ([]*domain.Product, error)
	GetByCategory(ctx context.Context, category string) ([]*domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetByProductID(ctx context.Context, productID string) (*domain.Product, error)
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, id string, update domain.ProductUpdate) (*domain.Product, error)
	UpdateStock(ctx context.Context, id string, stock int) (*domain.Product, error)
	// DecrementStock atomically subtracts quantity from the product's stock,
	// failing with ErrInsufficientStock when stock < quantity. This is the
	// only stock mutation checkout is allowed to use.
	DecrementStock(ctx context.Context, productID string, quantity int) (*domain.Product, error)
	Delete(ctx context.Context, id string) (*domain.Product, error)
}
