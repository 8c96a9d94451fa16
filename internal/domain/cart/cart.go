package cart

import (
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("cart: not found")
	ErrEmpty           = errors.New("cart: cart is empty")
	ErrInvalidQuantity = errors.New("cart: quantity must be greater than zero")
)

// Line is one product entry in a cart. Lines are keyed by product: adding a
// product already present merges into the existing line.
type Line struct {
	ProductID int64
	Quantity  int
}

type Cart struct {
	UserID    string
	Lines     []Line
	UpdatedAt time.Time
}

func New(userID string) *Cart {
	return &Cart{
		UserID:    userID,
		UpdatedAt: time.Now().UTC(),
	}
}

// Add puts quantity units of a product into the cart, merging with an existing
// line for the same product.
func (c *Cart) Add(productID int64, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Quantity += quantity
			c.touch()
			return nil
		}
	}
	c.Lines = append(c.Lines, Line{ProductID: productID, Quantity: quantity})
	c.touch()
	return nil
}

// Remove drops the line for the given product if present.
func (c *Cart) Remove(productID int64) {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			c.touch()
			return
		}
	}
}

// Clear empties the cart without deleting it. Used after a successful checkout.
func (c *Cart) Clear() {
	c.Lines = nil
	c.touch()
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Lines = append([]Line(nil), c.Lines...)
	return &clone
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now().UTC()
}
