package cart

import "context"

type Repository interface {
	GetByUser(ctx context.Context, userID string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
}
