package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryAll is the filter value that matches every category.
const CategoryAll = "all"

// Product represents a catalog product with its images and reviews.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Images      []Image         `json:"images"`
	Reviews     []Review        `json:"reviews"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Image is a product image. Position orders images within a product;
// the image at the lowest position is the primary one.
type Image struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	URL       string `json:"url"`
	Position  int    `json:"position"`
}

// Rating returns the product's aggregate rating: the arithmetic mean of all
// review ratings rounded down. A product without reviews has rating 0.
func (p *Product) Rating() int {
	if len(p.Reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range p.Reviews {
		sum += r.Rating
	}
	return sum / len(p.Reviews)
}

// PrimaryImageURL returns the URL of the first image, or nil when the
// product has no images.
func (p *Product) PrimaryImageURL() *string {
	if len(p.Images) == 0 {
		return nil
	}
	return &p.Images[0].URL
}

// ProductListItem is the flattened shape returned by listings: the product
// row plus its derived rating and primary image.
type ProductListItem struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Category  string          `json:"category"`
	Rating    int             `json:"rating"`
	Image     *string         `json:"image,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// ListItem projects the product into its listing shape.
func (p *Product) ListItem() ProductListItem {
	return ProductListItem{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Category:  p.Category,
		Rating:    p.Rating(),
		Image:     p.PrimaryImageURL(),
		CreatedAt: p.CreatedAt,
	}
}
