package service

import (
	"errors"
	"fmt"

	"github.com/itik-it/grindstack/internal/checkout/domain"
)

var (
	ErrEmptyCart             = errors.New("cart is empty, nothing to checkout")
	ErrIllegalTransition     = errors.New("illegal transition of checkout status")
	ErrMissingIdempotencyKey = errors.New("idempotency key is required")
	ErrCheckoutInProgress    = errors.New("checkout for this key is already in progress")
)

// UnknownProductError means a cart entry references a product that no
// longer resolves in the catalog. Surfaced to the caller, never dropped.
type UnknownProductError struct {
	ProductID string
}

func (e *UnknownProductError) Error() string {
	return fmt.Sprintf("product %s referenced by cart no longer exists", e.ProductID)
}

// InsufficientStockError reports the offending product and what is
// actually available so the client can adjust the cart.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// PartialCommitError means the commit failed after at least one mutation
// already happened. There is no rollback; the completed step log is the
// input for external reconciliation.
type PartialCommitError struct {
	Completed []domain.CommitStep
	Err       error
}

func (e *PartialCommitError) Error() string {
	return fmt.Sprintf("checkout commit failed after %d completed step(s): %v", len(e.Completed), e.Err)
}

func (e *PartialCommitError) Unwrap() error {
	return e.Err
}
