package http

import (
	"context"
	"sync"

	"github.com/google/uuid"

	cartcache "github.com/itik-it/grindstack/internal/cart/cache"
	cartdomain "github.com/itik-it/grindstack/internal/cart/domain"
	catalogdomain "github.com/itik-it/grindstack/internal/catalog/domain"
	catalogrepo "github.com/itik-it/grindstack/internal/catalog/repository"
	ordersdomain "github.com/itik-it/grindstack/internal/orders/domain"
	ordersrepo "github.com/itik-it/grindstack/internal/orders/repository"
)

// memProductRepo is an in-memory catalogrepo.ProductRepository.
type memProductRepo struct {
	mu       sync.Mutex
	products map[string]*catalogdomain.Product // keyed by business product id
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{products: make(map[string]*catalogdomain.Product)}
}

func (m *memProductRepo) GetAll(_ context.Context) ([]*catalogdomain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*catalogdomain.Product, 0, len(m.products))
	for _, p := range m.products {
		copied := *p
		out = append(out, &copied)
	}
	return out, nil
}

func (m *memProductRepo) GetByCategory(_ context.Context, category string) ([]*catalogdomain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*catalogdomain.Product
	for _, p := range m.products {
		if p.Category == category {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memProductRepo) GetByID(_ context.Context, id string) (*catalogdomain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.ID == id {
			copied := *p
			return &copied, nil
		}
	}
	return nil, catalogrepo.ErrProductNotFound
}

func (m *memProductRepo) GetByProductID(_ context.Context, productID string) (*catalogdomain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return nil, catalogrepo.ErrProductNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *memProductRepo) Create(_ context.Context, product *catalogdomain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.products[product.ProductID]; exists {
		return catalogrepo.ErrDuplicateProductID
	}
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	copied := *product
	m.products[product.ProductID] = &copied
	return nil
}

func (m *memProductRepo) Update(_ context.Context, id string, update catalogdomain.ProductUpdate) (*catalogdomain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.ID != id {
			continue
		}
		if update.Name != nil {
			p.Name = *update.Name
		}
		if update.Price != nil {
			p.Price = *update.Price
		}
		if update.Stock != nil {
			p.Stock = *update.Stock
		}
		if update.Category != nil {
			p.Category = *update.Category
		}
		if update.Description != nil {
			p.Description = *update.Description
		}
		if update.Images != nil {
			p.Images = *update.Images
		}
		copied := *p
		return &copied, nil
	}
	return nil, catalogrepo.ErrProductNotFound
}

func (m *memProductRepo) UpdateStock(_ context.Context, id string, stock int) (*catalogdomain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.ID == id {
			p.Stock = stock
			copied := *p
			return &copied, nil
		}
	}
	return nil, catalogrepo.ErrProductNotFound
}

func (m *memProductRepo) DecrementStock(_ context.Context, productID string, quantity int) (*catalogdomain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return nil, catalogrepo.ErrProductNotFound
	}
	if p.Stock < quantity {
		return nil, catalogrepo.ErrInsufficientStock
	}
	p.Stock -= quantity
	copied := *p
	return &copied, nil
}

func (m *memProductRepo) Delete(_ context.Context, id string) (*catalogdomain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, p := range m.products {
		if p.ID == id {
			delete(m.products, key)
			return p, nil
		}
	}
	return nil, catalogrepo.ErrProductNotFound
}

// memCartRepo is an in-memory cartrepo.CartRepository.
type memCartRepo struct {
	mu    sync.Mutex
	carts map[string]*cartdomain.Cart
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{carts: make(map[string]*cartdomain.Cart)}
}

func (m *memCartRepo) GetCart(_ context.Context, userID string) (*cartdomain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[userID]
	if !ok {
		return &cartdomain.Cart{UserID: userID}, nil
	}
	copied := *cart
	copied.Items = append([]cartdomain.CartItem(nil), cart.Items...)
	return &copied, nil
}

func (m *memCartRepo) AddItem(_ context.Context, userID, productID string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[userID]
	if !ok {
		cart = &cartdomain.Cart{UserID: userID}
		m.carts[userID] = cart
	}
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity += delta
			return nil
		}
	}
	cart.Items = append(cart.Items, cartdomain.CartItem{ProductID: productID, Quantity: delta})
	return nil
}

func (m *memCartRepo) RemoveItem(_ context.Context, userID, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[userID]
	if !ok {
		return nil
	}
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memCartRepo) ClearCart(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cart, ok := m.carts[userID]; ok {
		cart.Items = nil
	}
	return nil
}

// nopCache is a pass-through cartcache.CartCache.
type nopCache struct{}

func (nopCache) Get(_ context.Context, _ string) (*cartdomain.Cart, error) {
	return nil, cartcache.ErrCacheMiss
}
func (nopCache) Set(_ context.Context, _ string, _ *cartdomain.Cart) error { return nil }
func (nopCache) Delete(_ context.Context, _ string) error                  { return nil }

// memOrderRepo is an in-memory ordersrepo.OrderRepository.
type memOrderRepo struct {
	mu     sync.Mutex
	orders []*ordersdomain.Order
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{}
}

func (m *memOrderRepo) CreateOrder(_ context.Context, order *ordersdomain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.orders {
		if order.IdempotencyKey != "" && existing.IdempotencyKey == order.IdempotencyKey {
			return ordersrepo.ErrDuplicateCheckout
		}
	}
	m.orders = append(m.orders, order)
	return nil
}

func (m *memOrderRepo) GetOrderByID(_ context.Context, id uuid.UUID) (*ordersdomain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, ordersrepo.ErrOrderNotFound
}

func (m *memOrderRepo) GetOrderByIdempotencyKey(_ context.Context, key string) (*ordersdomain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.IdempotencyKey == key {
			return o, nil
		}
	}
	return nil, ordersrepo.ErrOrderNotFound
}

func (m *memOrderRepo) ListOrders(_ context.Context, filter ordersrepo.ListFilter) ([]*ordersdomain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*ordersdomain.Order
	for _, o := range m.orders {
		if !filter.From.IsZero() && o.CreatedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !o.CreatedAt.Before(filter.To) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (m *memOrderRepo) ListOrdersByUserID(_ context.Context, userID string) ([]*ordersdomain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*ordersdomain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status ordersdomain.OrderStatus) (*ordersdomain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID != id {
			continue
		}
		if !o.Status.CanTransitionTo(status) {
			return nil, ordersrepo.ErrInvalidStatusChange
		}
		o.Status = status
		return o, nil
	}
	return nil, ordersrepo.ErrOrderNotFound
}

func (m *memOrderRepo) RunMigrations(*ordersrepo.Credentials) error { return nil }
func (m *memOrderRepo) Close() error                                { return nil }

// memIdempotency implements the checkout lock with a plain map.
type memIdempotency struct {
	mu    sync.Mutex
	locks map[string]bool
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{locks: make(map[string]bool)}
}

func (m *memIdempotency) TryLock(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[key] {
		return false, nil
	}
	m.locks[key] = true
	return true, nil
}

func (m *memIdempotency) Unlock(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, key)
	return nil
}

func (m *memIdempotency) Remember(_ context.Context, _, _ string) error { return nil }

func (m *memIdempotency) Recall(_ context.Context, _ string) (string, bool, error) {
	return "", false, nil
}

// nopPublisher drops events.
type nopPublisher struct{}

func (nopPublisher) PublishOrderPlaced(_ context.Context, _ *ordersdomain.Order) error { return nil }
