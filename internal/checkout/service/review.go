package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	catalogrepo "github.com/itik-it/grindstack/internal/catalog/repository"
	d "github.com/itik-it/grindstack/internal/checkout/domain"
)

// Review merges the user's cart with live catalog data into line items
// with name and unit price captured now. A cart entry whose product no
// longer resolves is a data-consistency error, not something to drop.
func (s *CheckoutService) Review(ctx context.Context, userID string) (*d.Review, error) {
	cart, err := s.cart.GetCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	review := &d.Review{
		UserID:     userID,
		Items:      make([]d.LineItem, 0, len(cart.Items)),
		CapturedAt: time.Now(),
	}

	var total float64
	for _, item := range cart.Items {
		product, err := s.catalog.GetByProductID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, catalogrepo.ErrProductNotFound) {
				return nil, &UnknownProductError{ProductID: item.ProductID}
			}
			return nil, fmt.Errorf("failed to get product %s: %w", item.ProductID, err)
		}

		subtotal := product.Price * float64(item.Quantity)
		review.Items = append(review.Items, d.LineItem{
			ProductID: product.ProductID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  item.Quantity,
			Subtotal:  subtotal,
		})
		total += subtotal
	}

	review.Total = total
	return review, nil
}

// checkStock re-reads live stock for every line item and fails the whole
// checkout on the first shortfall. Read-only: nothing is mutated here.
func (s *CheckoutService) checkStock(ctx context.Context, review *d.Review) error {
	for _, item := range review.Items {
		product, err := s.catalog.GetByProductID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, catalogrepo.ErrProductNotFound) {
				return &UnknownProductError{ProductID: item.ProductID}
			}
			return fmt.Errorf("failed to re-check product %s: %w", item.ProductID, err)
		}
		if product.Stock < item.Quantity {
			return &InsufficientStockError{
				ProductID: item.ProductID,
				Requested: item.Quantity,
				Available: product.Stock,
			}
		}
	}
	return nil
}
