package writepolicy

import "context"

/*
This file implements the "invalidate-through" policy.

Whenever a record write succeeds, the cache is cleared before the write call
returns. So the flow is: API write → cache cleared (synchronous) → caller continues.

The next listing after a write is therefore always a miss and always reflects it.
*/
type InvalidateThrough struct {
	cache Invalidator
}

func NewInvalidateThrough(cache Invalidator) *InvalidateThrough {
	return &InvalidateThrough{cache: cache}
}

func (w *InvalidateThrough) OnWrite(ctx context.Context, op Op, id int) {
	w.cache.InvalidateAll()
}

// Nop leaves the cache alone. Useful for writes to records no cache lists.
type Nop struct{}

func (Nop) OnWrite(context.Context, Op, int) {}
