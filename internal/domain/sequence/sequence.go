package sequence

import "context"

// Kind identifies the entity type a counter belongs to. Each kind has its own
// independent, strictly increasing sequence.
type Kind string

const (
	KindProduct  Kind = "product"
	KindOrder    Kind = "order"
	KindCategory Kind = "category"
	KindUser     Kind = "user"
	KindRating   Kind = "rating"
)

// Allocator issues unique, monotonically increasing identifiers per kind. The
// increment and read must be one atomic operation: two concurrent calls for the
// same kind never return the same value, and issued values are never reused
// even across process restarts (for durable implementations).
type Allocator interface {
	Next(ctx context.Context, kind Kind) (int64, error)
}
