package checkout

import (
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minishop-checkout/app/internal/domain/catalog"
)

var (
	// ErrValidation marks malformed input; the caller must fix the request.
	ErrValidation = errors.New("checkout: validation")
	// ErrEmptyCart rejects a checkout with nothing to order.
	ErrEmptyCart = errors.New("checkout: cart is empty")
	// ErrRepository marks a persistence failure; safe to retry the whole checkout.
	ErrRepository = errors.New("checkout: repository failure")
)

func newValidation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// ProductNotFoundError names the cart line whose product no longer exists.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("checkout: product %d not found", e.ProductID)
}

func (e *ProductNotFoundError) Unwrap() error { return catalog.ErrNotFound }

// InsufficientStockError names the offending product so the caller can act.
type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("checkout: insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return catalog.ErrInsufficientStock }

func wrapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrRepository, err)
}
