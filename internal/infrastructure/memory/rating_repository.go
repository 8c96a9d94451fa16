package memory

import (
	"context"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-checkout/app/internal/domain/rating"
)

type ratingKey struct {
	userID    string
	productID int64
}

type RatingRepository struct {
	mu      sync.RWMutex
	ratings map[ratingKey]*domain.Rating
}

func NewRatingRepository() *RatingRepository {
	return &RatingRepository{
		ratings: make(map[ratingKey]*domain.Rating),
	}
}

func (r *RatingRepository) Get(ctx context.Context, userID string, productID int64) (*domain.Rating, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	rt, ok := r.ratings[ratingKey{userID: userID, productID: productID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rt.Clone(), nil
}

// Swap atomically replaces the (user, product) rating and hands back the prior
// one, so the caller can derive the exact aggregate delta under concurrency.
func (r *RatingRepository) Swap(ctx context.Context, rt *domain.Rating) (*domain.Rating, error) {
	_ = ctx
	if rt == nil {
		return nil, domain.ErrNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := ratingKey{userID: rt.UserID, productID: rt.ProductID}
	prev := r.ratings[key]
	stored := rt.Clone()
	if prev != nil {
		stored.ID = prev.ID
		stored.CreatedAt = prev.CreatedAt
	}
	r.ratings[key] = stored
	return prev.Clone(), nil
}

func (r *RatingRepository) Remove(ctx context.Context, userID string, productID int64) (*domain.Rating, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	key := ratingKey{userID: userID, productID: productID}
	rt, ok := r.ratings[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	delete(r.ratings, key)
	return rt.Clone(), nil
}

func (r *RatingRepository) ListByProduct(ctx context.Context, productID int64) ([]*domain.Rating, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Rating
	for key, rt := range r.ratings {
		if key.productID == productID {
			out = append(out, rt.Clone())
		}
	}
	return out, nil
}
