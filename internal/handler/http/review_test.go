package http

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/webshoplabs/catalog/internal/domain"
)

func TestCreateReview_Success(t *testing.T) {
	products := new(mockProductRepository)
	reviews := new(mockReviewRepository)
	router := newTestRouter(t, products, reviews)

	products.On("Exists", mock.Anything, int64(1)).Return(true, nil)
	reviews.On("Create", mock.Anything, mock.AnythingOfType("*domain.Review")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Review).ID = 42
		}).
		Return(nil)

	body := `{"name":"Ana","rating":5,"content":"Sturdy and well finished"}`
	rec := doRequest(t, router, http.MethodPost, "/api/v1/products/1/reviews", body)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data domain.Review `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(42), resp.Data.ID)
	assert.Equal(t, int64(1), resp.Data.ProductID)
}

func TestCreateReview_MissingProduct(t *testing.T) {
	products := new(mockProductRepository)
	reviews := new(mockReviewRepository)
	router := newTestRouter(t, products, reviews)

	products.On("Exists", mock.Anything, int64(999)).Return(false, nil)

	body := `{"name":"Ana","rating":5}`
	rec := doRequest(t, router, http.MethodPost, "/api/v1/products/999/reviews", body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	reviews.AssertNotCalled(t, "Create")
}

func TestCreateReview_ValidationFailure(t *testing.T) {
	products := new(mockProductRepository)
	reviews := new(mockReviewRepository)
	router := newTestRouter(t, products, reviews)

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"rating":5}`},
		{"rating too low", `{"name":"Ana","rating":0}`},
		{"rating too high", `{"name":"Ana","rating":6}`},
		{"malformed json", `{"name":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/api/v1/products/1/reviews", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	reviews.AssertNotCalled(t, "Create")
}

func TestCreateReview_StoreDown(t *testing.T) {
	products := new(mockProductRepository)
	reviews := new(mockReviewRepository)
	router := newTestRouter(t, products, reviews)

	products.On("Exists", mock.Anything, int64(1)).Return(true, nil)
	reviews.On("Create", mock.Anything, mock.Anything).Return(assert.AnError)

	body := `{"name":"Ana","rating":4}`
	rec := doRequest(t, router, http.MethodPost, "/api/v1/products/1/reviews", body)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
