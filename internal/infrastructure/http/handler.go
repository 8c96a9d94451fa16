package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	appcart "github.com/Zhima-Mochi/minishop-checkout/app/internal/application/cart"
	appcheckout "github.com/Zhima-Mochi/minishop-checkout/app/internal/application/checkout"
	apporder "github.com/Zhima-Mochi/minishop-checkout/app/internal/application/order"
	apprating "github.com/Zhima-Mochi/minishop-checkout/app/internal/application/rating"
	domaincart "github.com/Zhima-Mochi/minishop-checkout/app/internal/domain/cart"
	domaincatalog "github.com/Zhima-Mochi/minishop-checkout/app/internal/domain/catalog"
	domainorder "github.com/Zhima-Mochi/minishop-checkout/app/internal/domain/order"
	domainrating "github.com/Zhima-Mochi/minishop-checkout/app/internal/domain/rating"
)

type Handler struct {
	checkout *appcheckout.PlaceOrderUseCase
	orders   *apporder.Service
	carts    *appcart.Service
	ratings  *apprating.Maintainer
	products domaincatalog.Repository
}

func NewHandler(
	checkout *appcheckout.PlaceOrderUseCase,
	orders *apporder.Service,
	carts *appcart.Service,
	ratings *apprating.Maintainer,
	products domaincatalog.Repository,
) *Handler {
	return &Handler{
		checkout: checkout,
		orders:   orders,
		carts:    carts,
		ratings:  ratings,
		products: products,
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /checkout", h.handleCheckout)
	mux.HandleFunc("GET /orders/{id}", h.handleGetOrder)
	mux.HandleFunc("POST /orders/{id}/status", h.handleUpdateOrderStatus)
	mux.HandleFunc("GET /products/{id}", h.handleGetProduct)
	mux.HandleFunc("POST /cart/items", h.handleAddCartItem)
	mux.HandleFunc("GET /cart", h.handleGetCart)
	mux.HandleFunc("POST /ratings", h.handleSubmitRating)
	mux.HandleFunc("DELETE /ratings", h.handleDeleteRating)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return mux
}

type checkoutItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type checkoutRequest struct {
	UserID         string         `json:"user_id"`
	GuestEmail     string         `json:"guest_email"`
	Items          []checkoutItem `json:"items"`
	ShippingInfo   string         `json:"shipping_info"`
	PaymentMethod  string         `json:"payment_method"`
	IdempotencyKey string         `json:"idempotency_key"`
}

type orderLineResponse struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	UnitPrice   string `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	Subtotal    string `json:"subtotal"`
}

type orderResponse struct {
	OrderID   int64               `json:"order_id"`
	Reference string              `json:"reference"`
	Owner     string              `json:"owner"`
	Lines     []orderLineResponse `json:"lines"`
	Total     string              `json:"total"`
	Status    domainorder.Status  `json:"status"`
	CreatedAt string              `json:"created_at"`
}

func toOrderResponse(o *domainorder.Order) orderResponse {
	lines := make([]orderLineResponse, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, orderLineResponse{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			UnitPrice:   l.UnitPrice.StringFixed(2),
			Quantity:    l.Quantity,
			Subtotal:    l.Subtotal.StringFixed(2),
		})
	}
	return orderResponse{
		OrderID:   o.ID,
		Reference: o.Reference,
		Owner:     o.Owner(),
		Lines:     lines,
		Total:     o.Total.StringFixed(2),
		Status:    o.Status,
		CreatedAt: o.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(r.Context(), r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	items := make([]appcheckout.ItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, appcheckout.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	result, err := h.checkout.Execute(r.Context(), appcheckout.PlaceOrderInput{
		UserID:         req.UserID,
		GuestEmail:     req.GuestEmail,
		Items:          items,
		ShippingInfo:   req.ShippingInfo,
		PaymentMethod:  req.PaymentMethod,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(result.Order))
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	order, err := h.orders.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

type updateStatusRequest struct {
	Status   string `json:"status"`
	Override bool   `json:"override"`
}

func (h *Handler) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var req updateStatusRequest
	if err := decodeJSON(r.Context(), r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	status, err := domainorder.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), apporder.UpdateStatusInput{
		OrderID:  id,
		Status:   status,
		Override: req.Override,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

type productResponse struct {
	ProductID     int64   `json:"product_id"`
	Name          string  `json:"name"`
	Price         string  `json:"price"`
	Stock         int     `json:"stock"`
	AverageRating float64 `json:"average_rating"`
	RatingCount   int64   `json:"rating_count"`
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p, err := h.products.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, productResponse{
		ProductID:     p.ID,
		Name:          p.Name,
		Price:         p.Price.StringFixed(2),
		Stock:         p.Stock,
		AverageRating: p.AverageRating(),
		RatingCount:   p.RatingCount,
	})
}

type addCartItemRequest struct {
	UserID    string `json:"user_id"`
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type cartResponse struct {
	UserID string         `json:"user_id"`
	Items  []checkoutItem `json:"items"`
}

func toCartResponse(c *domaincart.Cart) cartResponse {
	items := make([]checkoutItem, 0, len(c.Lines))
	for _, l := range c.Lines {
		items = append(items, checkoutItem{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return cartResponse{UserID: c.UserID, Items: items}
}

func (h *Handler) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if err := decodeJSON(r.Context(), r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	c, err := h.carts.AddItem(r.Context(), req.UserID, req.ProductID, req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	c, err := h.carts.Get(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

type submitRatingRequest struct {
	UserID    string `json:"user_id"`
	ProductID int64  `json:"product_id"`
	Value     int    `json:"value"`
	Text      string `json:"text"`
}

type ratingResponse struct {
	RatingID  int64  `json:"rating_id"`
	UserID    string `json:"user_id"`
	ProductID int64  `json:"product_id"`
	Value     int    `json:"value"`
	Text      string `json:"text,omitempty"`
}

func (h *Handler) handleSubmitRating(w http.ResponseWriter, r *http.Request) {
	var req submitRatingRequest
	if err := decodeJSON(r.Context(), r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rt, err := h.ratings.Submit(r.Context(), apprating.SubmitInput{
		UserID:    req.UserID,
		ProductID: req.ProductID,
		Value:     req.Value,
		Text:      req.Text,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ratingResponse{
		RatingID:  rt.ID,
		UserID:    rt.UserID,
		ProductID: rt.ProductID,
		Value:     rt.Value,
		Text:      rt.Text,
	})
}

type deleteRatingRequest struct {
	UserID    string `json:"user_id"`
	ProductID int64  `json:"product_id"`
}

func (h *Handler) handleDeleteRating(w http.ResponseWriter, r *http.Request) {
	var req deleteRatingRequest
	if err := decodeJSON(r.Context(), r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.ratings.Remove(r.Context(), req.UserID, req.ProductID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request, key string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(key), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

func decodeJSON(ctx context.Context, r *http.Request, dst any) error {
	_ = ctx
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeDomainError(w http.ResponseWriter, err error) {
	var stockErr *appcheckout.InsufficientStockError
	switch {
	case errors.As(err, &stockErr),
		errors.Is(err, domainorder.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, domaincatalog.ErrNotFound),
		errors.Is(err, domainorder.ErrNotFound),
		errors.Is(err, domainrating.ErrNotFound),
		errors.Is(err, domaincart.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, appcheckout.ErrValidation),
		errors.Is(err, appcheckout.ErrEmptyCart),
		errors.Is(err, domaincatalog.ErrInvalidQuantity),
		errors.Is(err, domaincart.ErrInvalidQuantity),
		errors.Is(err, domainorder.ErrInvalidQuantity),
		errors.Is(err, domainorder.ErrInvalidStatus),
		errors.Is(err, domainrating.ErrInvalidValue),
		errors.Is(err, domainrating.ErrUserRequired),
		errors.Is(err, domainrating.ErrInvalidProduct):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
