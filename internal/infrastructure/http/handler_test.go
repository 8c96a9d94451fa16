package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	appcart "github.com/Zhima-Mochi/minishop-checkout/app/internal/application/cart"
	appcheckout "github.com/Zhima-Mochi/minishop-checkout/app/internal/application/checkout"
	apporder "github.com/Zhima-Mochi/minishop-checkout/app/internal/application/order"
	apprating "github.com/Zhima-Mochi/minishop-checkout/app/internal/application/rating"
	"github.com/Zhima-Mochi/minishop-checkout/app/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-checkout/app/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-checkout/app/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	products := memory.NewProductRepository()
	carts := memory.NewCartRepository()
	orders := memory.NewOrderRepository()
	ratings := memory.NewRatingRepository()
	allocator := memory.NewSequenceAllocator()

	p, err := catalog.New(1, "beans", decimal.RequireFromString("10.00"), 5)
	require.NoError(t, err)
	require.NoError(t, products.Create(context.Background(), p))

	h := NewHandler(
		appcheckout.NewPlaceOrderUseCase(orders, carts, products, allocator, id.NewUUIDGenerator(), nil, nil),
		apporder.NewService(orders, nil, nil),
		appcart.NewService(carts, products),
		apprating.NewMaintainer(ratings, products, allocator, nil, nil),
		products,
	)
	return h.Router()
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCheckoutEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/cart/items", map[string]any{
		"user_id": "u1", "product_id": 1, "quantity": 2,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/checkout", map[string]any{
		"user_id": "u1", "payment_method": "card",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		OrderID int64  `json:"order_id"`
		Total   string `json:"total"`
		Status  string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, int64(1), resp.OrderID)
	require.Equal(t, "20.00", resp.Total)
	require.Equal(t, "pending", resp.Status)

	rec = doJSON(t, router, http.MethodGet, "/products/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var product struct {
		Stock int `json:"stock"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &product))
	require.Equal(t, 3, product.Stock)
}

func TestCheckoutInsufficientStock(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/checkout", map[string]any{
		"guest_email": "g@example.com",
		"items":       []map[string]any{{"product_id": 1, "quantity": 100}},
	})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestCheckoutEmptyCart(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/checkout", map[string]any{
		"user_id": "u1",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateOrderStatusEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/checkout", map[string]any{
		"guest_email": "g@example.com",
		"items":       []map[string]any{{"product_id": 1, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/orders/1/status", map[string]any{
		"status": "processing",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/orders/1/status", map[string]any{
		"status": "delivered",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestRatingEndpoints(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/ratings", map[string]any{
		"user_id": "u1", "product_id": 1, "value": 5,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/ratings", map[string]any{
		"user_id": "u2", "product_id": 1, "value": 4,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/products/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var product struct {
		AverageRating float64 `json:"average_rating"`
		RatingCount   int64   `json:"rating_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &product))
	require.Equal(t, 4.5, product.AverageRating)
	require.Equal(t, int64(2), product.RatingCount)

	rec = doJSON(t, router, http.MethodDelete, "/ratings", map[string]any{
		"user_id": "u2", "product_id": 1,
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/products/1", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &product))
	require.Equal(t, 5.0, product.AverageRating)
	require.Equal(t, int64(1), product.RatingCount)
}

func TestRatingValidation(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/ratings", map[string]any{
		"user_id": "u1", "product_id": 1, "value": 9,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/ratings", map[string]any{
		"user_id": "u1", "product_id": 99, "value": 3,
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetUnknownOrder(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/orders/42", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
