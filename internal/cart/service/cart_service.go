package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/itik-it/grindstack/internal/cart/cache"
	"github.com/itik-it/grindstack/internal/cart/domain"
	"github.com/itik-it/grindstack/internal/cart/repository"
	"golang.org/x/sync/singleflight"
)

type CartService struct {
	repo   repository.CartRepository
	cache  cache.CartCache
	logger *slog.Logger
	sfg    singleflight.Group // Prevents cache stampede
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache, logger *slog.Logger) *CartService {
	return &CartService{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// GetCart returns the user's cart. A user without a cart gets an empty
// cart value, not an error.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {

		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil // cart is in cache
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("cache get error", "error", err) // log cache error but continue
		}

		cart, errGet := s.repo.GetCart(ctx, userID)
		if errors.Is(errGet, repository.ErrCartNotFound) {
			return &domain.Cart{
				UserID:    userID,
				Items:     nil,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}, nil
		}
		if errGet != nil {
			return nil, errGet
		}

		// fill the cache off the request path
		go func() {
			if errSet := s.cache.Set(context.Background(), userID, cart); errSet != nil {
				s.logger.Warn("cache set error", "error", errSet)
			}
		}()

		return cart, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

func (s *CartService) AddItem(ctx context.Context, userID, productID string, delta int) error {
	if err := s.repo.AddItem(ctx, userID, productID, delta); err != nil {
		s.logger.Error("repo add item error", "error", err)
		return err
	}

	s.invalidateCache(userID)
	return nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) error {
	if err := s.repo.RemoveItem(ctx, userID, productID); err != nil {
		s.logger.Error("repo remove item error", "error", err)
		return err
	}

	s.invalidateCache(userID)
	return nil
}

func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	if err := s.repo.ClearCart(ctx, userID); err != nil {
		s.logger.Error("repo clear cart error", "error", err)
		return err
	}

	s.invalidateCache(userID)
	return nil
}

func (s *CartService) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.logger.Warn("cache invalidate error", "error", err)
	}
}
