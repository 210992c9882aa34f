package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/webshoplabs/catalog/internal/domain"
)

// DefaultPageSize is the fixed page size for product listings.
const DefaultPageSize = 5

// ProductFilter defines filter criteria for listing products. Nil fields
// are not applied.
type ProductFilter struct {
	// Name matches products whose name contains the value, case-insensitively.
	Name *string

	// Category matches products in the given category. The value
	// domain.CategoryAll is treated as no filter.
	Category *string

	// MinPrice matches products priced at or above the value.
	MinPrice *decimal.Decimal

	// Page is the 1-based page number. Values below 1 are treated as 1.
	Page int
}

// ProductRepository defines the interface for product persistence operations.
type ProductRepository interface {
	// Create inserts a product and its images in one transaction, filling
	// in the generated IDs and timestamps.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product with its images and reviews.
	// Returns a NotFound error when no product has the given ID.
	GetByID(ctx context.Context, id int64) (*domain.Product, error)

	// List returns a page of products matching the filter, each with its
	// images and reviews loaded, along with the total match count.
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)

	// Update rewrites the product row and replaces its image set in one
	// transaction. Returns a NotFound error when the product does not exist.
	Update(ctx context.Context, product *domain.Product) error

	// Delete removes a product; its images and reviews go with it.
	// Returns a NotFound error when the product does not exist.
	Delete(ctx context.Context, id int64) error

	// Exists reports whether a product with the given ID exists.
	Exists(ctx context.Context, id int64) (bool, error)
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// Create inserts a review, filling in the generated ID and timestamp.
	// Returns a NotFound error when the referenced product does not exist.
	Create(ctx context.Context, review *domain.Review) error
}
