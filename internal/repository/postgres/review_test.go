package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webshoplabs/catalog/internal/domain"
	"github.com/webshoplabs/catalog/pkg/database"
	apperrors "github.com/webshoplabs/catalog/pkg/errors"
)

func setupReviewRepo(t *testing.T) (*ReviewRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	repo := NewReviewRepository(mock)
	return repo, mock
}

func TestReviewRepository_Create_Success(t *testing.T) {
	repo, mock := setupReviewRepo(t)
	defer mock.Close()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rv := &domain.Review{
		ProductID: 1,
		Name:      "Ana",
		Rating:    5,
		Content:   "Sturdy and well finished",
	}

	mock.ExpectQuery("INSERT INTO product_reviews").
		WithArgs(rv.ProductID, rv.Name, rv.Rating, rv.Content).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(42), now))

	err := repo.Create(context.Background(), rv)
	require.NoError(t, err)

	assert.Equal(t, int64(42), rv.ID)
	assert.Equal(t, now, rv.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Create_MissingProduct(t *testing.T) {
	repo, mock := setupReviewRepo(t)
	defer mock.Close()

	rv := &domain.Review{ProductID: 999, Name: "Ana", Rating: 4}

	mock.ExpectQuery("INSERT INTO product_reviews").
		WithArgs(rv.ProductID, rv.Name, rv.Rating, rv.Content).
		WillReturnError(errors.New(`ERROR: insert or update on table "product_reviews" violates foreign key constraint (SQLSTATE 23503)`))

	err := repo.Create(context.Background(), rv)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Create_QueryError(t *testing.T) {
	repo, mock := setupReviewRepo(t)
	defer mock.Close()

	rv := &domain.Review{ProductID: 1, Name: "Ana", Rating: 4}

	mock.ExpectQuery("INSERT INTO product_reviews").
		WithArgs(rv.ProductID, rv.Name, rv.Rating, rv.Content).
		WillReturnError(errors.New("connection refused"))

	err := repo.Create(context.Background(), rv)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "insert review")
	assert.NoError(t, mock.ExpectationsWereMet())
}
