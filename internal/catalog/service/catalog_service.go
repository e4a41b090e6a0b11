package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strings"

	"github.com/itik-it/grindstack/internal/catalog/domain"
	"github.com/itik-it/grindstack/internal/catalog/repository"
)

var (
	dataURIPattern   = regexp.MustCompile(`^data:image/(png|jpeg|jpg);base64,`)
	rawBase64Pattern = regexp.MustCompile(`^[A-Za-z0-9+/]+={0,2}$`)
)

// maxIDGenerationAttempts bounds regeneration when a generated product id
// collides with an existing one.
const maxIDGenerationAttempts = 5

// ValidationError reports a malformed product payload. No persistence
// happens when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

type CatalogService struct {
	repo repository.ProductRepository
}

func NewCatalogService(repo repository.ProductRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

func (s *CatalogService) GetAll(ctx context.Context) ([]*domain.Product, error) {
	return s.repo.GetAll(ctx)
}

// GetByCategory treats "all" as a request for the full catalog.
func (s *CatalogService) GetByCategory(ctx context.Context, category string) ([]*domain.Product, error) {
	if category == "all" {
		return s.repo.GetAll(ctx)
	}
	return s.repo.GetByCategory(ctx, category)
}

func (s *CatalogService) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *CatalogService) GetByProductID(ctx context.Context, productID string) (*domain.Product, error) {
	return s.repo.GetByProductID(ctx, productID)
}

// DecrementStock is the conditional decrement checkout commits through;
// it fails instead of driving stock below zero.
func (s *CatalogService) DecrementStock(ctx context.Context, productID string, quantity int) (*domain.Product, error) {
	if quantity <= 0 {
		return nil, &ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	return s.repo.DecrementStock(ctx, productID, quantity)
}

func (s *CatalogService) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	if product.ProductID != "" {
		if err := s.repo.Create(ctx, product); err != nil {
			return nil, err
		}
		return product, nil
	}

	// Generated ids can collide with existing ones; the unique index
	// catches that and we regenerate a bounded number of times.
	for attempt := 0; attempt < maxIDGenerationAttempts; attempt++ {
		product.ProductID = generateProductID(product.Category)
		err := s.repo.Create(ctx, product)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, repository.ErrDuplicateProductID) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("could not generate a unique product id after %d attempts", maxIDGenerationAttempts)
}

func (s *CatalogService) Update(ctx context.Context, id string, update domain.ProductUpdate) (*domain.Product, error) {
	if update.Images != nil {
		if err := validateImages(*update.Images); err != nil {
			return nil, err
		}
	}
	if update.Price != nil && *update.Price <= 0 {
		return nil, &ValidationError{Field: "price", Reason: "must be positive"}
	}
	if update.Stock != nil && *update.Stock < 0 {
		return nil, &ValidationError{Field: "stock", Reason: "must not be negative"}
	}
	return s.repo.Update(ctx, id, update)
}

func (s *CatalogService) UpdateStock(ctx context.Context, id string, stock int) (*domain.Product, error) {
	if stock < 0 {
		return nil, &ValidationError{Field: "stock", Reason: "must not be negative"}
	}
	return s.repo.UpdateStock(ctx, id, stock)
}

func (s *CatalogService) Delete(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.Delete(ctx, id)
}

func validateProduct(product *domain.Product) error {
	if product.Name == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	if product.Price <= 0 {
		return &ValidationError{Field: "price", Reason: "must be positive"}
	}
	if product.Stock < 0 {
		return &ValidationError{Field: "stock", Reason: "must not be negative"}
	}
	if product.Category == "" {
		return &ValidationError{Field: "category", Reason: "is required"}
	}
	return validateImages(product.Images)
}

func validateImages(images []string) error {
	for _, img := range images {
		if !dataURIPattern.MatchString(img) && !rawBase64Pattern.MatchString(img) {
			return &ValidationError{Field: "images", Reason: "must be a base64 data URI or raw base64 string"}
		}
	}
	return nil
}

// generateProductID derives a business key from the category: the first four
// letters uppercased plus a four digit suffix, e.g. "COFF0042".
func generateProductID(category string) string {
	prefix := "PROD"
	if category != "" {
		// Slice runes, not bytes, so a multi-byte category cannot
		// split a character mid-sequence.
		p := []rune(strings.ToUpper(category))
		if len(p) > 4 {
			p = p[:4]
		}
		prefix = string(p)
	}
	return fmt.Sprintf("%s%04d", prefix, rand.Intn(10000))
}
