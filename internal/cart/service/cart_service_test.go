package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itik-it/grindstack/internal/cart/cache"
	"github.com/itik-it/grindstack/internal/cart/domain"
	"github.com/itik-it/grindstack/internal/cart/repository"
)

// MockRepository implements repository.CartRepository for testing
type MockRepository struct {
	mu       sync.Mutex
	Cart     *domain.Cart
	GetErr   error
	AddErr   error
	GetDelay time.Duration
	GetCalls int32

	AddedProduct string
	AddedDelta   int
	Removed      string
	Cleared      bool
}

func (m *MockRepository) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	atomic.AddInt32(&m.GetCalls, 1)
	if m.GetDelay > 0 {
		time.Sleep(m.GetDelay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return m.Cart, nil
}

func (m *MockRepository) AddItem(_ context.Context, userID, productID string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AddErr != nil {
		return m.AddErr
	}
	m.AddedProduct = productID
	m.AddedDelta = delta
	return nil
}

func (m *MockRepository) RemoveItem(_ context.Context, userID, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Removed = productID
	return nil
}

func (m *MockRepository) ClearCart(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Cleared = true
	return nil
}

// MockCache implements cache.CartCache for testing
type MockCache struct {
	mu      sync.Mutex
	Entries map[string]*domain.Cart
	GetErr  error

	Deleted []string
}

func NewMockCache() *MockCache {
	return &MockCache{Entries: make(map[string]*domain.Cart)}
}

func (m *MockCache) Get(_ context.Context, userID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	cart, ok := m.Entries[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return cart, nil
}

func (m *MockCache) Set(_ context.Context, userID string, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries[userID] = cart
	return nil
}

func (m *MockCache) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Entries, userID)
	m.Deleted = append(m.Deleted, userID)
	return nil
}

func newTestService(repo *MockRepository, c cache.CartCache) *CartService {
	return NewCartService(repo, c, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGetCart_CacheHitSkipsRepository(t *testing.T) {
	repo := &MockRepository{}
	mc := NewMockCache()
	mc.Entries["user-1"] = &domain.Cart{
		UserID: "user-1",
		Items:  []domain.CartItem{{ProductID: "ELEC1001", Quantity: 2}},
	}
	svc := newTestService(repo, mc)

	cart, err := svc.GetCart(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, int32(0), atomic.LoadInt32(&repo.GetCalls))
}

func TestGetCart_CacheMissFallsBackToRepository(t *testing.T) {
	repo := &MockRepository{Cart: &domain.Cart{
		UserID: "user-1",
		Items:  []domain.CartItem{{ProductID: "BOOK2002", Quantity: 1}},
	}}
	svc := newTestService(repo, NewMockCache())

	cart, err := svc.GetCart(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, "BOOK2002", cart.Items[0].ProductID)
	assert.Equal(t, int32(1), atomic.LoadInt32(&repo.GetCalls))
}

func TestGetCart_NoCartReturnsEmptyCart(t *testing.T) {
	repo := &MockRepository{GetErr: repository.ErrCartNotFound}
	svc := newTestService(repo, NewMockCache())

	cart, err := svc.GetCart(context.Background(), "new-user")

	require.NoError(t, err)
	assert.Equal(t, "new-user", cart.UserID)
	assert.Empty(t, cart.Items)
}

func TestGetCart_RepositoryErrorPropagates(t *testing.T) {
	repoErr := errors.New("mongo: server selection timeout")
	repo := &MockRepository{GetErr: repoErr}
	svc := newTestService(repo, NewMockCache())

	_, err := svc.GetCart(context.Background(), "user-1")

	assert.ErrorIs(t, err, repoErr)
}

func TestGetCart_ConcurrentMissesCollapse(t *testing.T) {
	repo := &MockRepository{
		Cart:     &domain.Cart{UserID: "user-1"},
		GetDelay: 50 * time.Millisecond,
	}
	svc := newTestService(repo, NewMockCache())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.GetCart(context.Background(), "user-1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Singleflight collapses the stampede into far fewer repo reads
	assert.Less(t, atomic.LoadInt32(&repo.GetCalls), int32(20))
}

func TestAddItem_InvalidatesCache(t *testing.T) {
	repo := &MockRepository{}
	mc := NewMockCache()
	mc.Entries["user-1"] = &domain.Cart{UserID: "user-1"}
	svc := newTestService(repo, mc)

	err := svc.AddItem(context.Background(), "user-1", "ELEC1001", 3)

	require.NoError(t, err)
	assert.Equal(t, "ELEC1001", repo.AddedProduct)
	assert.Equal(t, 3, repo.AddedDelta)
	assert.Contains(t, mc.Deleted, "user-1")
}

func TestAddItem_RepositoryErrorPropagates(t *testing.T) {
	addErr := errors.New("write conflict")
	repo := &MockRepository{AddErr: addErr}
	mc := NewMockCache()
	svc := newTestService(repo, mc)

	err := svc.AddItem(context.Background(), "user-1", "ELEC1001", 1)

	assert.ErrorIs(t, err, addErr)
	assert.Empty(t, mc.Deleted)
}

func TestRemoveItem_InvalidatesCache(t *testing.T) {
	repo := &MockRepository{}
	mc := NewMockCache()
	svc := newTestService(repo, mc)

	require.NoError(t, svc.RemoveItem(context.Background(), "user-1", "ELEC1001"))
	assert.Equal(t, "ELEC1001", repo.Removed)
	assert.Contains(t, mc.Deleted, "user-1")
}

func TestClearCart_InvalidatesCache(t *testing.T) {
	repo := &MockRepository{}
	mc := NewMockCache()
	svc := newTestService(repo, mc)

	require.NoError(t, svc.ClearCart(context.Background(), "user-1"))
	assert.True(t, repo.Cleared)
	assert.Contains(t, mc.Deleted, "user-1")

	// Clearing an already empty cart stays a no-op success
	require.NoError(t, svc.ClearCart(context.Background(), "user-1"))
}

func TestGetCart_AsyncCacheFill(t *testing.T) {
	repo := &MockRepository{Cart: &domain.Cart{UserID: "user-1"}}
	mc := NewMockCache()
	svc := newTestService(repo, mc)

	_, err := svc.GetCart(context.Background(), "user-1")
	require.NoError(t, err)

	// The fill happens off the request path
	assert.Eventually(t, func() bool {
		mc.mu.Lock()
		defer mc.mu.Unlock()
		_, ok := mc.Entries["user-1"]
		return ok
	}, time.Second, 10*time.Millisecond)
}
