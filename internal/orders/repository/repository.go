package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/itik-it/grindstack/internal/orders/domain"
)

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrDuplicateCheckout   = errors.New("order for this checkout already exists")
	ErrInvalidStatusChange = errors.New("order status change not allowed")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// ListFilter narrows List to orders created inside the half-open interval
// [From, To). Zero values leave that bound open.
type ListFilter struct {
	From time.Time
	To   time.Time
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error)
	ListOrders(ctx context.Context, filter ListFilter) ([]*domain.Order, error)
	ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error)
	RunMigrations(*Credentials) error
	Close() error
}
