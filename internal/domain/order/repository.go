package order

import "context"

type Repository interface {
	Insert(ctx context.Context, order *Order) error
	Get(ctx context.Context, id int64) (*Order, error)
	Update(ctx context.Context, order *Order) error
	FindByIdempotency(ctx context.Context, owner, key string) (*Order, error)
}
