package order

import "time"

// OrderPlacedEvent is a domain event emitted after a checkout persists an order.
type OrderPlacedEvent struct {
	OrderID    int64
	Reference  string
	Owner      string
	LineCount  int
	Total      string
	OccurredAt time.Time
}

func (OrderPlacedEvent) EventName() string { return "order.placed" }

func NewOrderPlacedEvent(o *Order) OrderPlacedEvent {
	return OrderPlacedEvent{
		OrderID:    o.ID,
		Reference:  o.Reference,
		Owner:      o.Owner(),
		LineCount:  len(o.Lines),
		Total:      o.Total.StringFixed(2),
		OccurredAt: time.Now().UTC(),
	}
}

// OrderStatusChangedEvent is emitted on every lifecycle transition.
type OrderStatusChangedEvent struct {
	OrderID    int64
	From       Status
	To         Status
	OccurredAt time.Time
}

func (OrderStatusChangedEvent) EventName() string { return "order.status_changed" }

func NewOrderStatusChangedEvent(o *Order, from Status) OrderStatusChangedEvent {
	return OrderStatusChangedEvent{
		OrderID:    o.ID,
		From:       from,
		To:         o.Status,
		OccurredAt: time.Now().UTC(),
	}
}
