package memory

import (
	"context"
	"sync"

	"github.com/Zhima-Mochi/minishop-checkout/app/internal/domain/sequence"
)

// SequenceAllocator issues per-kind monotonic identifiers. The mutex makes
// increment-and-read a single step; it is not durable across restarts, which is
// fine for tests and local wiring. The sqlite allocator covers durability.
type SequenceAllocator struct {
	mu   sync.Mutex
	last map[sequence.Kind]int64
}

func NewSequenceAllocator() *SequenceAllocator {
	return &SequenceAllocator{
		last: make(map[sequence.Kind]int64),
	}
}

func (a *SequenceAllocator) Next(ctx context.Context, kind sequence.Kind) (int64, error) {
	_ = ctx

	a.mu.Lock()
	defer a.mu.Unlock()

	a.last[kind]++
	return a.last[kind], nil
}
