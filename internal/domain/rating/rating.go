package rating

import (
	"errors"
	"time"
)

var (
	ErrNotFound       = errors.New("rating: not found")
	ErrInvalidValue   = errors.New("rating: value must be between 1 and 5")
	ErrUserRequired   = errors.New("rating: user id is required")
	ErrInvalidProduct = errors.New("rating: product id is required")
)

const (
	MinValue = 1
	MaxValue = 5
)

// Rating is one user's review of one product. The (UserID, ProductID) pair is
// unique: submitting again replaces the previous value.
type Rating struct {
	ID        int64
	UserID    string
	ProductID int64
	Value     int
	Text      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func New(id int64, userID string, productID int64, value int, text string) (*Rating, error) {
	if userID == "" {
		return nil, ErrUserRequired
	}
	if productID <= 0 {
		return nil, ErrInvalidProduct
	}
	if value < MinValue || value > MaxValue {
		return nil, ErrInvalidValue
	}

	now := time.Now().UTC()
	return &Rating{
		ID:        id,
		UserID:    userID,
		ProductID: productID,
		Value:     value,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (r *Rating) Clone() *Rating {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}
