package cart

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/Zhima-Mochi/minishop-checkout/app/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-checkout/app/internal/domain/catalog"
)

// Service covers the cart write path. Carts are created on first add and only
// ever cleared, never deleted.
type Service struct {
	carts    domain.Repository
	products catalog.Repository
}

func NewService(carts domain.Repository, products catalog.Repository) *Service {
	return &Service{carts: carts, products: products}
}

// AddItem merges quantity into the user's cart, creating the cart if needed.
// The product must exist; stock is not checked here because checkout's
// reservation step is the source of truth for availability.
func (s *Service) AddItem(ctx context.Context, userID string, productID int64, quantity int) (*domain.Cart, error) {
	if userID == "" {
		return nil, errors.New("cart: user id is required")
	}

	if _, err := s.products.Get(ctx, productID); err != nil {
		return nil, err
	}

	c, err := s.carts.GetByUser(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		c = domain.New(userID)
	} else if err != nil {
		return nil, fmt.Errorf("cart: load: %w", err)
	}

	if err := c.Add(productID, quantity); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("cart: save: %w", err)
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, errors.New("cart: user id is required")
	}
	c, err := s.carts.GetByUser(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.New(userID), nil
	}
	return c, err
}
