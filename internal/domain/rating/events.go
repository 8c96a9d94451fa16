package rating

import "time"

// RatingSubmittedEvent is emitted after a rating insert or update has been
// applied together with its product aggregate adjustment.
type RatingSubmittedEvent struct {
	RatingID   int64
	UserID     string
	ProductID  int64
	Value      int
	Replaced   bool
	OccurredAt time.Time
}

func (RatingSubmittedEvent) EventName() string { return "rating.submitted" }

func NewRatingSubmittedEvent(r *Rating, replaced bool) RatingSubmittedEvent {
	return RatingSubmittedEvent{
		RatingID:   r.ID,
		UserID:     r.UserID,
		ProductID:  r.ProductID,
		Value:      r.Value,
		Replaced:   replaced,
		OccurredAt: time.Now().UTC(),
	}
}

// RatingRemovedEvent is emitted after a rating delete.
type RatingRemovedEvent struct {
	RatingID   int64
	UserID     string
	ProductID  int64
	OccurredAt time.Time
}

func (RatingRemovedEvent) EventName() string { return "rating.removed" }

func NewRatingRemovedEvent(r *Rating) RatingRemovedEvent {
	return RatingRemovedEvent{
		RatingID:   r.ID,
		UserID:     r.UserID,
		ProductID:  r.ProductID,
		OccurredAt: time.Now().UTC(),
	}
}
