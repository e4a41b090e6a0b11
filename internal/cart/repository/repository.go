package repository

import (
	"context"
	"errors"

	"github.com/itik-it/grindstack/internal/cart/domain"
)

var ErrCartNotFound = errors.New("cart not found")

// CartRepository defines the interface for cart data operations
// Consumers define this interface, not the MongoDB implementation
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	// AddItem increments the product's quantity by delta, creating the cart
	// or the entry as needed.
	AddItem(ctx context.Context, userID, productID string, delta int) error
	// RemoveItem deletes the entry; a missing cart or entry is a no-op.
	RemoveItem(ctx context.Context, userID, productID string) error
	// ClearCart empties the cart without deleting the record. Idempotent.
	ClearCart(ctx context.Context, userID string) error
}
