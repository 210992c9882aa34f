package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/webshoplabs/catalog/internal/domain"
	"github.com/webshoplabs/catalog/pkg/database"
	apperrors "github.com/webshoplabs/catalog/pkg/errors"
)

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	db database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(db database.DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a review for a product.
func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) (err error) {
	query := `
		INSERT INTO product_reviews (product_id, name, rating, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	ctx, end := database.TraceQuery(ctx, "CreateReview", query)
	defer func() { end(err) }()

	err = r.db.QueryRow(ctx, query,
		rv.ProductID,
		rv.Name,
		rv.Rating,
		rv.Content,
	).Scan(&rv.ID, &rv.CreatedAt)
	if err != nil {
		// The FK backstops the service-level existence check against a
		// product deleted between check and insert.
		if isForeignKeyViolation(err) {
			return apperrors.NotFound("product", rv.ProductID)
		}
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// isForeignKeyViolation checks for a PostgreSQL foreign key violation (SQLSTATE 23503).
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23503")
}
