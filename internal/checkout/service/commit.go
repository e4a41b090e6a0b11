package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	catalogrepo "github.com/itik-it/grindstack/internal/catalog/repository"
	d "github.com/itik-it/grindstack/internal/checkout/domain"
	ordersdomain "github.com/itik-it/grindstack/internal/orders/domain"
	ordersrepo "github.com/itik-it/grindstack/internal/orders/repository"
)

type ConfirmResult struct {
	Order    *ordersdomain.Order
	Status   d.CheckoutStatus
	Replayed bool
}

// Confirm drives the full commit: replay detection, a fresh review, the
// read-only stock pre-check, then the mutation sequence of conditional
// stock decrements, cart clear and order write. Pre-commit failures leave
// no side effects; mutation-phase failures surface as PartialCommitError.
func (s *CheckoutService) Confirm(ctx context.Context, userID, idempotencyKey string) (*ConfirmResult, error) {
	if idempotencyKey == "" {
		return nil, ErrMissingIdempotencyKey
	}

	// A replayed submission returns the order it already created. The
	// cached key-to-order mapping answers without touching Postgres;
	// the order store's unique key covers expired mappings below.
	if existing := s.recallOrder(ctx, idempotencyKey); existing != nil {
		s.logger.Info("duplicate checkout submission detected",
			"idempotency_key", idempotencyKey, "order_id", existing.ID)
		return &ConfirmResult{Order: existing, Status: d.CheckoutStatusCompleted, Replayed: true}, nil
	}

	existing, err := s.orders.GetOrderByIdempotencyKey(ctx, idempotencyKey)
	if err == nil {
		s.logger.Info("duplicate checkout submission detected",
			"idempotency_key", idempotencyKey, "order_id", existing.ID)
		return &ConfirmResult{Order: existing, Status: d.CheckoutStatusCompleted, Replayed: true}, nil
	}
	if !errors.Is(err, ordersrepo.ErrOrderNotFound) {
		return nil, fmt.Errorf("failed to check idempotency: %w", err)
	}

	locked, err := s.idem.TryLock(ctx, idempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire idempotency lock: %w", err)
	}
	if !locked {
		return nil, ErrCheckoutInProgress
	}

	status := d.CheckoutStatusBuilding

	// Building -> Reviewing
	status, err = s.advance(status, d.CheckoutStatusReviewing)
	if err != nil {
		return nil, err
	}

	review, err := s.Review(ctx, userID)
	if err != nil {
		s.unlock(idempotencyKey)
		return nil, err
	}

	if err := s.checkStock(ctx, review); err != nil {
		s.unlock(idempotencyKey)
		return nil, err
	}

	// Reviewing -> Committing
	status, err = s.advance(status, d.CheckoutStatusCommitting)
	if err != nil {
		return nil, err
	}

	order, steps, commitErr := s.commit(ctx, userID, idempotencyKey, review)
	if commitErr != nil {
		if len(steps) == 0 {
			// Nothing was mutated; retrying with the same key is safe.
			s.unlock(idempotencyKey)
			return nil, commitErr
		}
		// The lock is left in place so a blind retry cannot decrement
		// stock a second time while the state awaits reconciliation.
		s.logger.Error("checkout commit failed partway",
			"user_id", userID,
			"idempotency_key", idempotencyKey,
			"completed_steps", steps,
			"error", commitErr)
		return nil, &PartialCommitError{Completed: steps, Err: commitErr}
	}

	// Committing -> Completed
	status, err = s.advance(status, d.CheckoutStatusCompleted)
	if err != nil {
		return nil, err
	}

	if err := s.idem.Remember(ctx, idempotencyKey, order.ID.String()); err != nil {
		s.logger.Warn("failed to remember idempotency mapping", "error", err)
	}

	if err := s.events.PublishOrderPlaced(ctx, order); err != nil {
		s.logger.Warn("failed to publish order placed event",
			"order_id", order.ID, "error", err)
	}

	return &ConfirmResult{Order: order, Status: status}, nil
}

// commit runs the mutation sequence, returning the ordered log of steps
// that completed before any failure.
func (s *CheckoutService) commit(ctx context.Context, userID, idempotencyKey string, review *d.Review) (*ordersdomain.Order, []d.CommitStep, error) {
	var steps []d.CommitStep

	for _, item := range review.Items {
		if _, err := s.catalog.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			return nil, steps, s.translateDecrementError(ctx, item, err)
		}
		steps = append(steps, d.CommitStep{
			Kind:      d.StepDecrementStock,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	if err := s.cart.ClearCart(ctx, userID); err != nil {
		return nil, steps, fmt.Errorf("failed to clear cart: %w", err)
	}
	steps = append(steps, d.CommitStep{Kind: d.StepClearCart})

	order := &ordersdomain.Order{
		ID:             uuid.New(),
		UserID:         userID,
		Items:          toOrderItems(review.Items),
		Total:          review.Total,
		Status:         ordersdomain.OrderStatusPending,
		IdempotencyKey: idempotencyKey,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, steps, fmt.Errorf("failed to create order: %w", err)
	}
	steps = append(steps, d.CommitStep{Kind: d.StepCreateOrder})

	return order, steps, nil
}

// translateDecrementError turns a lost conditional-decrement race into the
// itemized InsufficientStockError the client reports from.
func (s *CheckoutService) translateDecrementError(ctx context.Context, item d.LineItem, err error) error {
	switch {
	case errors.Is(err, catalogrepo.ErrInsufficientStock):
		available := 0
		if product, readErr := s.catalog.GetByProductID(ctx, item.ProductID); readErr == nil {
			available = product.Stock
		}
		return &InsufficientStockError{
			ProductID: item.ProductID,
			Requested: item.Quantity,
			Available: available,
		}
	case errors.Is(err, catalogrepo.ErrProductNotFound):
		return &UnknownProductError{ProductID: item.ProductID}
	default:
		return fmt.Errorf("failed to decrement stock for %s: %w", item.ProductID, err)
	}
}

func (s *CheckoutService) advance(from, to d.CheckoutStatus) (d.CheckoutStatus, error) {
	if !d.CanTransitionTo(from, to) {
		return from, ErrIllegalTransition
	}
	s.logger.Debug("checkout status transition", "from", from, "to", to)
	return to, nil
}

// recallOrder resolves a replayed key through the idempotency store's
// mapping. Any miss or error falls back to the durable lookup.
func (s *CheckoutService) recallOrder(ctx context.Context, idempotencyKey string) *ordersdomain.Order {
	orderID, ok, err := s.idem.Recall(ctx, idempotencyKey)
	if err != nil {
		s.logger.Warn("failed to recall idempotency mapping", "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	id, err := uuid.Parse(orderID)
	if err != nil {
		return nil
	}
	order, err := s.orders.GetOrderByID(ctx, id)
	if err != nil {
		return nil
	}
	return order
}

func (s *CheckoutService) unlock(idempotencyKey string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.idem.Unlock(ctx, idempotencyKey); err != nil {
		s.logger.Warn("failed to release idempotency lock", "error", err)
	}
}

func toOrderItems(items []d.LineItem) []ordersdomain.OrderItem {
	orderItems := make([]ordersdomain.OrderItem, len(items))
	for i, item := range items {
		orderItems[i] = ordersdomain.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.UnitPrice,
			Quantity:  item.Quantity,
		}
	}
	return orderItems
}
