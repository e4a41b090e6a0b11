package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	catalogdomain "github.com/itik-it/grindstack/internal/catalog/domain"
	cartdomain "github.com/itik-it/grindstack/internal/cart/domain"
	ordersdomain "github.com/itik-it/grindstack/internal/orders/domain"
)

// CatalogStore is the orchestrator's view of the product catalog. The
// catalog owns product records; checkout only reads them and issues
// conditional stock decrements.
type CatalogStore interface {
	GetByProductID(ctx context.Context, productID string) (*catalogdomain.Product, error)
	DecrementStock(ctx context.Context, productID string, quantity int) (*catalogdomain.Product, error)
}

// CartStore is the orchestrator's view of the cart. The cart is referenced,
// never owned: checkout holds only request-scoped merges of cart + catalog.
type CartStore interface {
	GetCart(ctx context.Context, userID string) (*cartdomain.Cart, error)
	ClearCart(ctx context.Context, userID string) error
}

type OrderStore interface {
	CreateOrder(ctx context.Context, order *ordersdomain.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*ordersdomain.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, key string) (*ordersdomain.Order, error)
}

// IdempotencyStore short-circuits replayed confirm submissions before they
// reach the order store's unique-key backstop. Recall serves the fast
// replay path; the key-to-order mapping may have expired, in which case
// the order store's unique key still catches the replay.
type IdempotencyStore interface {
	TryLock(ctx context.Context, key string) (bool, error)
	Unlock(ctx context.Context, key string) error
	Remember(ctx context.Context, key, orderID string) error
	Recall(ctx context.Context, key string) (string, bool, error)
}

// EventPublisher broadcasts a completed checkout. Publishing is best
// effort and never fails an already committed checkout.
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, order *ordersdomain.Order) error
}

type CheckoutService struct {
	catalog CatalogStore
	cart    CartStore
	orders  OrderStore
	idem    IdempotencyStore
	events  EventPublisher
	logger  *slog.Logger
}

func NewCheckoutService(
	catalog CatalogStore,
	cart CartStore,
	orders OrderStore,
	idem IdempotencyStore,
	events EventPublisher,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		catalog: catalog,
		cart:    cart,
		orders:  orders,
		idem:    idem,
		events:  events,
		logger:  logger,
	}
}
