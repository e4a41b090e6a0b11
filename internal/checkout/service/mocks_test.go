package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	cartdomain "github.com/itik-it/grindstack/internal/cart/domain"
	catalogdomain "github.com/itik-it/grindstack/internal/catalog/domain"
	catalogrepo "github.com/itik-it/grindstack/internal/catalog/repository"
	ordersdomain "github.com/itik-it/grindstack/internal/orders/domain"
	ordersrepo "github.com/itik-it/grindstack/internal/orders/repository"
)

// MockCatalog implements CatalogStore. DecrementStock is conditional and
// atomic under the mutex, mirroring the real repository's findAndModify.
type MockCatalog struct {
	mu       sync.Mutex
	Products map[string]*catalogdomain.Product

	GetErr        error
	DecrementErrs map[string]error
	Decrements    int
}

func (m *MockCatalog) GetByProductID(_ context.Context, productID string) (*catalogdomain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	product, ok := m.Products[productID]
	if !ok {
		return nil, catalogrepo.ErrProductNotFound
	}
	copied := *product
	return &copied, nil
}

func (m *MockCatalog) DecrementStock(_ context.Context, productID string, quantity int) (*catalogdomain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.DecrementErrs[productID]; ok {
		return nil, err
	}
	product, ok := m.Products[productID]
	if !ok {
		return nil, catalogrepo.ErrProductNotFound
	}
	if product.Stock < quantity {
		return nil, catalogrepo.ErrInsufficientStock
	}
	product.Stock -= quantity
	m.Decrements++
	copied := *product
	return &copied, nil
}

func (m *MockCatalog) Stock(productID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Products[productID].Stock
}

// MockCart implements CartStore with one cart per user.
type MockCart struct {
	mu    sync.Mutex
	Carts map[string]*cartdomain.Cart

	GetErr   error
	ClearErr error
	Cleared  []string
}

func (m *MockCart) GetCart(_ context.Context, userID string) (*cartdomain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	cart, ok := m.Carts[userID]
	if !ok {
		return &cartdomain.Cart{UserID: userID}, nil
	}
	copied := *cart
	copied.Items = append([]cartdomain.CartItem(nil), cart.Items...)
	return &copied, nil
}

func (m *MockCart) ClearCart(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ClearErr != nil {
		return m.ClearErr
	}
	if cart, ok := m.Carts[userID]; ok {
		cart.Items = nil
	}
	m.Cleared = append(m.Cleared, userID)
	return nil
}

// MockOrders implements OrderStore, enforcing the unique idempotency key
// the way the Postgres constraint does.
type MockOrders struct {
	mu     sync.Mutex
	Orders []*ordersdomain.Order

	CreateErr  error
	KeyLookups int
}

func (m *MockOrders) CreateOrder(_ context.Context, order *ordersdomain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	for _, existing := range m.Orders {
		if order.IdempotencyKey != "" && existing.IdempotencyKey == order.IdempotencyKey {
			return ordersrepo.ErrDuplicateCheckout
		}
	}
	m.Orders = append(m.Orders, order)
	return nil
}

func (m *MockOrders) GetOrderByID(_ context.Context, id uuid.UUID) (*ordersdomain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.Orders {
		if existing.ID == id {
			return existing, nil
		}
	}
	return nil, ordersrepo.ErrOrderNotFound
}

func (m *MockOrders) GetOrderByIdempotencyKey(_ context.Context, key string) (*ordersdomain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.KeyLookups++
	for _, existing := range m.Orders {
		if existing.IdempotencyKey == key {
			return existing, nil
		}
	}
	return nil, ordersrepo.ErrOrderNotFound
}

func (m *MockOrders) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Orders)
}

// MockIdempotency implements IdempotencyStore with an in-memory lock set.
type MockIdempotency struct {
	mu         sync.Mutex
	locks      map[string]bool
	Remembered map[string]string

	LockErr error
}

func NewMockIdempotency() *MockIdempotency {
	return &MockIdempotency{
		locks:      make(map[string]bool),
		Remembered: make(map[string]string),
	}
}

func (m *MockIdempotency) TryLock(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LockErr != nil {
		return false, m.LockErr
	}
	if m.locks[key] {
		return false, nil
	}
	m.locks[key] = true
	return true, nil
}

func (m *MockIdempotency) Unlock(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, key)
	return nil
}

func (m *MockIdempotency) Remember(_ context.Context, key, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Remembered[key] = orderID
	return nil
}

func (m *MockIdempotency) Recall(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	orderID, ok := m.Remembered[key]
	return orderID, ok, nil
}

func (m *MockIdempotency) Locked(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locks[key]
}

// MockPublisher implements EventPublisher, recording published orders.
type MockPublisher struct {
	mu        sync.Mutex
	Published []*ordersdomain.Order

	Err error
}

func (m *MockPublisher) PublishOrderPlaced(_ context.Context, order *ordersdomain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Published = append(m.Published, order)
	return nil
}
