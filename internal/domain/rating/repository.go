package rating

import "context"

// Repository persists ratings keyed by (userID, productID). Swap and Remove are
// atomic and return the prior state so the caller can compute the exact
// aggregate delta even under concurrent submissions.
type Repository interface {
	Get(ctx context.Context, userID string, productID int64) (*Rating, error)
	// Swap inserts the rating or replaces an existing one for the same
	// (user, product) pair, returning the replaced rating or nil on insert.
	Swap(ctx context.Context, r *Rating) (*Rating, error)
	// Remove deletes and returns the rating, or ErrNotFound.
	Remove(ctx context.Context, userID string, productID int64) (*Rating, error)
	ListByProduct(ctx context.Context, productID int64) ([]*Rating, error)
}
