package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/webshoplabs/catalog/internal/domain"
	"github.com/webshoplabs/catalog/internal/event"
	"github.com/webshoplabs/catalog/internal/repository"
	apperrors "github.com/webshoplabs/catalog/pkg/errors"
)

// ReviewService implements the business logic for review operations.
type ReviewService struct {
	reviews      repository.ReviewRepository
	products     repository.ProductRepository
	cache        ProductCache
	producer     *event.Producer
	logger       *slog.Logger
	storeTimeout time.Duration
}

// NewReviewService creates a new review service.
func NewReviewService(
	reviews repository.ReviewRepository,
	products repository.ProductRepository,
	productCache ProductCache,
	producer *event.Producer,
	logger *slog.Logger,
	storeTimeout time.Duration,
) *ReviewService {
	return &ReviewService{
		reviews:      reviews,
		products:     products,
		cache:        productCache,
		producer:     producer,
		logger:       logger,
		storeTimeout: storeTimeout,
	}
}

// CreateReviewInput holds the parameters for creating a review.
type CreateReviewInput struct {
	ProductID int64
	Name      string
	Rating    int
	Content   string
}

// CreateReview adds a review to a product. Cached product entries are
// invalidated before this returns, so the product's aggregate rating is
// recomputed on the next read.
func (s *ReviewService) CreateReview(ctx context.Context, input *CreateReviewInput) (*domain.Review, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("reviewer name is required")
	}
	if input.Rating < domain.MinRating || input.Rating > domain.MaxRating {
		return nil, apperrors.InvalidInput(
			fmt.Sprintf("rating must be between %d and %d", domain.MinRating, domain.MaxRating))
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	exists, err := s.products.Exists(storeCtx, input.ProductID)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	if !exists {
		return nil, apperrors.NotFound("product", input.ProductID)
	}

	review := &domain.Review{
		ProductID: input.ProductID,
		Name:      input.Name,
		Rating:    input.Rating,
		Content:   input.Content,
	}
	if err := s.reviews.Create(storeCtx, review); err != nil {
		// The insert's FK check catches a product deleted after Exists.
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, apperrors.Store(err)
	}

	if err := s.cache.Invalidate(ctx, TagProduct); err != nil {
		s.logger.ErrorContext(ctx, "failed to invalidate product cache",
			slog.String("error", err.Error()),
		)
		return nil, apperrors.Internal(err)
	}

	if err := s.producer.PublishReviewCreated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.created event",
			slog.Int64("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review created",
		slog.Int64("review_id", review.ID),
		slog.Int64("product_id", review.ProductID),
		slog.Int("rating", review.Rating),
	)
	return review, nil
}
