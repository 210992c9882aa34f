package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/webshoplabs/catalog/internal/cache"
	"github.com/webshoplabs/catalog/internal/domain"
	"github.com/webshoplabs/catalog/internal/event"
	"github.com/webshoplabs/catalog/internal/repository"
	apperrors "github.com/webshoplabs/catalog/pkg/errors"
)

// TagProduct tags every cached product entry; writes to any product
// invalidate the whole tag.
const TagProduct = "Product"

// ProductCache is the cache type the catalog stores product lookups in.
// A nil value is a cached "no such product".
type ProductCache = cache.Cache[*domain.Product]

// productCacheKey builds the cache key for a single product lookup.
func productCacheKey(id int64) string {
	return fmt.Sprintf("getProductById:%d", id)
}

// CatalogService implements the business logic for product operations.
//
// Read operations degrade instead of failing: GetProductByID returns nil and
// ListProducts returns an empty page when the store or cache is unavailable.
// Write operations report their outcome: CreateProduct returns an error,
// UpdateProduct returns nil, and DeleteProduct returns false.
type CatalogService struct {
	repo         repository.ProductRepository
	cache        ProductCache
	producer     *event.Producer
	logger       *slog.Logger
	cacheTTL     time.Duration
	storeTimeout time.Duration
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(
	repo repository.ProductRepository,
	productCache ProductCache,
	producer *event.Producer,
	logger *slog.Logger,
	cacheTTL time.Duration,
	storeTimeout time.Duration,
) *CatalogService {
	return &CatalogService{
		repo:         repo,
		cache:        productCache,
		producer:     producer,
		logger:       logger,
		cacheTTL:     cacheTTL,
		storeTimeout: storeTimeout,
	}
}

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	ImageURLs   []string
}

// UpdateProductInput holds the parameters for updating a product. The update
// is a full replacement: every field, including the image set, is rewritten.
type UpdateProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	ImageURLs   []string
}

func (in *CreateProductInput) validate() error {
	if in.Name == "" {
		return apperrors.InvalidInput("product name is required")
	}
	if in.Category == "" || in.Category == domain.CategoryAll {
		return apperrors.InvalidInput("product category is required")
	}
	if in.Price.IsNegative() {
		return apperrors.InvalidInput("price must not be negative")
	}
	return nil
}

func (in *UpdateProductInput) validate() error {
	// Same rules as create: the update rewrites every field.
	return (*CreateProductInput)(in).validate()
}

func imagesFromURLs(urls []string) []domain.Image {
	images := make([]domain.Image, len(urls))
	for i, u := range urls {
		images[i] = domain.Image{URL: u, Position: i}
	}
	return images
}

// CreateProduct creates a product with its images.
func (s *CatalogService) CreateProduct(ctx context.Context, input *CreateProductInput) (*domain.Product, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	product := &domain.Product{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Category:    input.Category,
		Images:      imagesFromURLs(input.ImageURLs),
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.repo.Create(storeCtx, product); err != nil {
		return nil, apperrors.Store(err)
	}

	if err := s.producer.PublishProductCreated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.created event",
			slog.Int64("product_id", product.ID),
			slog.String("error", err.Error()),
		)
		// Event publishing failures do not fail the operation.
	}

	s.logger.InfoContext(ctx, "product created",
		slog.Int64("product_id", product.ID),
		slog.String("category", product.Category),
	)
	return product, nil
}

// GetProductByID retrieves a product through the cache. The cached entry is
// tagged so any later write invalidates it; the TTL bounds staleness from
// out-of-band database changes. Returns nil when the product does not exist
// or the lookup fails.
func (s *CatalogService) GetProductByID(ctx context.Context, id int64) *domain.Product {
	product, err := s.cache.Get(ctx, productCacheKey(id), s.cacheTTL, []string{TagProduct},
		func(ctx context.Context) (*domain.Product, error) {
			storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
			defer cancel()

			p, err := s.repo.GetByID(storeCtx, id)
			if err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					// Absence is a valid, cacheable answer.
					return nil, nil
				}
				return nil, err
			}
			return p, nil
		})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to get product",
			slog.Int64("product_id", id),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return product
}

// ListProducts returns a page of products matching the filter, with each
// product's derived rating and primary image, plus the total match count.
// Returns an empty page when the store is unavailable.
func (s *CatalogService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]domain.ProductListItem, int) {
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	products, total, err := s.repo.List(storeCtx, filter)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list products",
			slog.String("error", err.Error()),
		)
		return []domain.ProductListItem{}, 0
	}

	items := make([]domain.ProductListItem, len(products))
	for i := range products {
		items[i] = products[i].ListItem()
	}
	return items, total
}

// UpdateProduct replaces the product's fields and image set. Every cached
// product entry is invalidated before this returns, so a read issued after
// UpdateProduct never sees the old version. Returns nil when the product
// does not exist or the update fails.
func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, input *UpdateProductInput) *domain.Product {
	if err := input.validate(); err != nil {
		s.logger.WarnContext(ctx, "rejected product update",
			slog.Int64("product_id", id),
			slog.String("error", err.Error()),
		)
		return nil
	}

	product := &domain.Product{
		ID:          id,
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Category:    input.Category,
		Images:      imagesFromURLs(input.ImageURLs),
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.repo.Update(storeCtx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to update product",
			slog.Int64("product_id", id),
			slog.String("error", err.Error()),
		)
		return nil
	}

	if !s.invalidateProducts(ctx) {
		return nil
	}

	if err := s.producer.PublishProductUpdated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.updated event",
			slog.Int64("product_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product updated", slog.Int64("product_id", id))
	return product
}

// DeleteProduct removes a product with its images and reviews, invalidating
// cached product entries before returning. Returns false when the product
// does not exist or the delete fails.
func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) bool {
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.repo.Delete(storeCtx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete product",
			slog.Int64("product_id", id),
			slog.String("error", err.Error()),
		)
		return false
	}

	if !s.invalidateProducts(ctx) {
		// The row is gone but stale entries may linger until their TTL.
		return false
	}

	if err := s.producer.PublishProductDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.deleted event",
			slog.Int64("product_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product deleted", slog.Int64("product_id", id))
	return true
}

// invalidateProducts drops every cached product entry. The write has already
// happened when this runs; a failure here is a coherence failure and the
// caller must report the operation as failed.
func (s *CatalogService) invalidateProducts(ctx context.Context) bool {
	if err := s.cache.Invalidate(ctx, TagProduct); err != nil {
		s.logger.ErrorContext(ctx, "failed to invalidate product cache",
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}
