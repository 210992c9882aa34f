package domain

import "time"

// Rating bounds for product reviews.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a customer review attached to a product.
type Review struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	Name      string    `json:"name"`
	Rating    int       `json:"rating"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
