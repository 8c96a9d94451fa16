package catalog

import "context"

// Repository persists products. Reserve, Release, and AdjustRating must each be
// a single atomic conditional operation: concurrent callers never observe a
// partially applied stock or aggregate mutation, and stock never goes negative.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	Get(ctx context.Context, id int64) (*Product, error)
	Reserve(ctx context.Context, productID int64, quantity int) error
	Release(ctx context.Context, productID int64, quantity int) error
	AdjustRating(ctx context.Context, productID int64, deltaSum, deltaCount int64) error
}
