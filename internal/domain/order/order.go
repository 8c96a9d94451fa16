package order

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("order: not found")
	ErrConflict          = errors.New("order: conflict")
	ErrNoLines           = errors.New("order: at least one line is required")
	ErrOwnerRequired     = errors.New("order: user id or guest email is required")
	ErrInvalidQuantity   = errors.New("order: quantity must be greater than zero")
	ErrInvalidStatus     = errors.New("order: unknown status")
	ErrInvalidTransition = errors.New("order: invalid status transition")
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// ParseStatus validates a caller-supplied status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return Status(s), nil
	}
	return "", ErrInvalidStatus
}

// Line is an immutable snapshot of a product at order time. Later catalog price
// changes never affect a persisted line.
type Line struct {
	ProductID   int64
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
	Subtotal    decimal.Decimal
}

// NewLine captures name and price into a snapshot line.
func NewLine(productID int64, productName string, unitPrice decimal.Decimal, quantity int) (Line, error) {
	if quantity <= 0 {
		return Line{}, ErrInvalidQuantity
	}
	return Line{
		ProductID:   productID,
		ProductName: productName,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
		Subtotal:    unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
	}, nil
}

type Order struct {
	ID             int64
	Reference      string
	UserID         string
	GuestEmail     string
	IdempotencyKey string
	Lines          []Line
	Total          decimal.Decimal
	Status         Status
	ShippingInfo   string
	PaymentMethod  string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func New(id int64, reference, userID, guestEmail, idempotencyKey string, lines []Line, shippingInfo, paymentMethod string) (*Order, error) {
	if userID == "" && guestEmail == "" {
		return nil, ErrOwnerRequired
	}
	if len(lines) == 0 {
		return nil, ErrNoLines
	}

	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal)
	}

	now := time.Now().UTC()
	return &Order{
		ID:             id,
		Reference:      reference,
		UserID:         userID,
		GuestEmail:     guestEmail,
		IdempotencyKey: idempotencyKey,
		Lines:          append([]Line(nil), lines...),
		Total:          total,
		Status:         StatusPending,
		ShippingInfo:   shippingInfo,
		PaymentMethod:  paymentMethod,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Owner returns the user id for authenticated orders, otherwise the guest email.
func (o *Order) Owner() string {
	if o.UserID != "" {
		return o.UserID
	}
	return o.GuestEmail
}

var forward = map[Status]Status{
	StatusPending:    StatusProcessing,
	StatusProcessing: StatusShipped,
	StatusShipped:    StatusDelivered,
}

// TransitionTo advances the lifecycle. The progression is linear
// (pending → processing → shipped → delivered); cancellation is allowed until
// the order has shipped. Backward moves require the administrative override.
func (o *Order) TransitionTo(next Status, override bool) error {
	if _, err := ParseStatus(string(next)); err != nil {
		return err
	}
	if next == o.Status {
		return ErrInvalidTransition
	}
	if override {
		o.Status = next
		o.touch()
		return nil
	}
	if next == StatusCancelled {
		if o.Status == StatusPending || o.Status == StatusProcessing {
			o.Status = next
			o.touch()
			return nil
		}
		return ErrInvalidTransition
	}
	if forward[o.Status] != next {
		return ErrInvalidTransition
	}
	o.Status = next
	o.touch()
	return nil
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Lines = append([]Line(nil), o.Lines...)
	return &clone
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
