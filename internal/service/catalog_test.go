package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/webshoplabs/catalog/internal/cache/memory"
	"github.com/webshoplabs/catalog/internal/domain"
	"github.com/webshoplabs/catalog/internal/event"
	"github.com/webshoplabs/catalog/internal/repository"
	apperrors "github.com/webshoplabs/catalog/pkg/errors"
	pkgkafka "github.com/webshoplabs/catalog/pkg/kafka"
)

// --- Mock Repositories ---

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockProductRepository) Exists(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

// noopPublisher satisfies event.Publisher without a broker.
type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, *pkgkafka.Event) error { return nil }

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestCatalog(repo *mockProductRepository) (*CatalogService, ProductCache) {
	logger := newTestLogger()
	productCache := memory.New[*domain.Product]()
	producer := event.NewProducer(noopPublisher{}, logger)
	svc := NewCatalogService(repo, productCache, producer, logger, time.Minute, 5*time.Second)
	return svc, productCache
}

func testProduct(id int64) *domain.Product {
	return &domain.Product{
		ID:          id,
		Name:        "Walnut Desk",
		Description: "Solid walnut standing desk",
		Price:       decimal.RequireFromString("249.99"),
		Category:    "furniture",
		Images:      []domain.Image{{ID: 10, ProductID: id, URL: "https://cdn.example.com/desk.jpg"}},
		Reviews:     []domain.Review{{ID: 100, ProductID: id, Rating: 4}},
	}
}

// --- CreateProduct ---

func TestCatalogService_CreateProduct_Success(t *testing.T) {
	repo := new(mockProductRepository)
	svc, _ := newTestCatalog(repo)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Product")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Product).ID = 7
		}).
		Return(nil)

	product, err := svc.CreateProduct(context.Background(), &CreateProductInput{
		Name:      "Walnut Desk",
		Price:     decimal.RequireFromString("249.99"),
		Category:  "furniture",
		ImageURLs: []string{"https://cdn.example.com/desk.jpg"},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(7), product.ID)
	assert.Len(t, product.Images, 1)
	repo.AssertExpectations(t)
}

func TestCatalogService_CreateProduct_Validation(t *testing.T) {
	repo := new(mockProductRepository)
	svc, _ := newTestCatalog(repo)

	tests := []struct {
		name  string
		input CreateProductInput
	}{
		{"empty name", CreateProductInput{Category: "furniture", Price: decimal.NewFromInt(1)}},
		{"empty category", CreateProductInput{Name: "Desk", Price: decimal.NewFromInt(1)}},
		{"reserved category", CreateProductInput{Name: "Desk", Category: domain.CategoryAll, Price: decimal.NewFromInt(1)}},
		{"negative price", CreateProductInput{Name: "Desk", Category: "furniture", Price: decimal.NewFromInt(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateProduct(context.Background(), &tt.input)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
	repo.AssertNotCalled(t, "Create")
}

func TestCatalogService_CreateProduct_StoreError(t *testing.T) {
	repo := new(mockProductRepository)
	svc, _ := newTestCatalog(repo)

	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	_, err := svc.CreateProduct(context.Background(), &CreateProductInput{
		Name:     "Desk",
		Category: "furniture",
		Price:    decimal.NewFromInt(10),
	})
	assert.ErrorIs(t, err, apperrors.ErrStore)
}

// --- GetProductByID ---

func TestCatalogService_GetProductByID_CachesResult(t *testing.T) {
	repo := new(mockProductRepository)
	svc, _ := newTestCatalog(repo)

	repo.On("GetByID", mock.Anything, int64(1)).Return(testProduct(1), nil).Once()

	first := svc.GetProductByID(context.Background(), 1)
	require.NotNil(t, first)

	second := svc.GetProductByID(context.Background(), 1)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)

	repo.AssertExpectations(t)
}

func TestCatalogService_GetProductByID_NotFoundCached(t *testing.T) {
	repo := new(mockProductRepository)
	svc, _ := newTestCatalog(repo)

	repo.On("GetByID", mock.Anything, int64(999)).
		Return(nil, apperrors.NotFound("product", 999)).Once()

	assert.Nil(t, svc.GetProductByID(context.Background(), 999))

	// Absence is cached: the second read must not hit the repository.
	assert.Nil(t, svc.GetProductByID(context.Background(), 999))
	repo.AssertExpectations(t)
}

func TestCatalogService_GetProductByID_StoreErrorNotCached(t *testing.T) {
	repo := new(mockProductRepository)
	svc, _ := newTestCatalog(repo)

	repo.On("GetByID", mock.Anything, int64(1)).
		Return(nil, errors.New("connection refused")).Once()
	repo.On("GetByID", mock.Anything, int64(1)).
		Return(testProduct(1), nil).Once()

	assert.Nil(t, svc.GetProductByID(context.Background(), 1))

	// The failed lookup must not be cached; the retry reaches the store.
	recovered := svc.GetProductByID(context.Background(), 1)
	require.NotNil(t, recovered)
	repo.AssertExpectations(t)
}

// --- ListProducts ---

func TestCatalogService_ListProducts_Success(t *testing.T) {
	repo := new(mockProductRepository)
	svc, _ := newTestCatalog(repo)

	name := "desk"
	filter := repository.ProductFilter{Name: &name, Page: 1}
	repo.On("List", mock.Anything, filter).Return([]domain.Product{*testProduct(1)}, 9, nil)

	items, total := svc.ListProducts(context.Background(), filter)

	require.Len(t, items, 1)
	assert.Equal(t, 9, total)
	assert.Equal(t, 4, items[0].Rating)
	require.NotNil(t, items[0].Image)
	assert.Equal(t, "https://cdn.example.com/desk.jpg", *items[0].Image)
}

func TestCatalogService_ListProducts_StoreErrorReturnsEmptyPage(t *testing.T) {
	repo := new(mockProductRepository)
	svc, _ := newTestCatalog(repo)

	repo.On("List", mock.Anything, mock.Anything).Return(nil, 0, errors.New("connection refused"))

	items, total := svc.ListProducts(context.Background(), repository.ProductFilter{Page: 1})
	assert.NotNil(t, items)
	assert.Empty(t, items)
	assert.Equal(t, 0, total)
}

// --- UpdateProduct ---

func TestCatalogService_UpdateProduct_InvalidatesCache(t *testing.T) {
	repo := new(mockProductRepository)
	svc, _ := newTestCatalog(repo)

	stale := testProduct(1)
	repo.On("GetByID", mock.Anything, int64(1)).Return(stale, nil).Once()
	require.NotNil(t, svc.GetProductByID(context.Background(), 1))

	repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil)

	updated := svc.UpdateProduct(context.Background(), 1, &UpdateProductInput{
		Name:     "Oak Desk",
		Price:    decimal.RequireFromString("199.99"),
		Category: "furniture",
	})
	require.NotNil(t, updated)
	assert.Equal(t, "Oak Desk", updated.Name)

	// The next read must recompute from the store, not serve the stale entry.
	fresh := testProduct(1)
	fresh.Name = "Oak Desk"
	repo.On("GetByID", mock.Anything, int64(1)).Return(fresh, nil).Once()

	got := svc.GetProductByID(context.Background(), 1)
	require.NotNil(t, got)
	assert.Equal(t, "Oak Desk", got.Name)
	repo.AssertExpectations(t)
}

func TestCatalogService_UpdateProduct_NotFoundReturnsNil(t *testing.T) {
	repo := new(mockProductRepository)
	svc, _ := newTestCatalog(repo)

	repo.On("Update", mock.Anything, mock.Anything).Return(apperrors.NotFound("product", 999))

	result := svc.UpdateProduct(context.Background(), 999, &UpdateProductInput{
		Name:     "Ghost",
		Price:    decimal.NewFromInt(1),
		Category: "furniture",
	})
	assert.Nil(t, result)
}

func TestCatalogService_UpdateProduct_InvalidInputReturnsNil(t *testing.T) {
	repo := new(mockProductRepository)
	svc, _ := newTestCatalog(repo)

	result := svc.UpdateProduct(context.Background(), 1, &UpdateProductInput{
		Name:     "",
		Price:    decimal.NewFromInt(1),
		Category: "furniture",
	})
	assert.Nil(t, result)
	repo.AssertNotCalled(t, "Update")
}

// --- DeleteProduct ---

func TestCatalogService_DeleteProduct_Success(t *testing.T) {
	repo := new(mockProductRepository)
	svc, _ := newTestCatalog(repo)

	stale := testProduct(1)
	repo.On("GetByID", mock.Anything, int64(1)).Return(stale, nil).Once()
	require.NotNil(t, svc.GetProductByID(context.Background(), 1))

	repo.On("Delete", mock.Anything, int64(1)).Return(nil)

	assert.True(t, svc.DeleteProduct(context.Background(), 1))

	// The cached entry is gone: the next read sees the deletion.
	repo.On("GetByID", mock.Anything, int64(1)).
		Return(nil, apperrors.NotFound("product", 1)).Once()
	assert.Nil(t, svc.GetProductByID(context.Background(), 1))
	repo.AssertExpectations(t)
}

func TestCatalogService_DeleteProduct_NotFoundReturnsFalse(t *testing.T) {
	repo := new(mockProductRepository)
	svc, _ := newTestCatalog(repo)

	repo.On("Delete", mock.Anything, int64(999)).Return(apperrors.NotFound("product", 999))

	assert.False(t, svc.DeleteProduct(context.Background(), 999))
}

func TestCatalogService_DeleteProduct_StoreErrorReturnsFalse(t *testing.T) {
	repo := new(mockProductRepository)
	svc, _ := newTestCatalog(repo)

	repo.On("Delete", mock.Anything, int64(1)).Return(errors.New("connection refused"))

	assert.False(t, svc.DeleteProduct(context.Background(), 1))
}
