// This file defines how cached pages go stale over time.

package expiration

import (
	"time"

	"github.com/krisalay/paginated-query-cache/types"
)

/*
Strategy is the interface that all expiration rules must follow. Instead of hard-coding
expiration logic into the cache, we define a strategy so expiration behavior can be swapped easily.

There is deliberately no OnAccess: reading a page never makes it younger.
*/
type Strategy interface {

	// IsExpired checks if the entry is stale at the given moment.
	IsExpired(*types.CacheEntry, time.Time) bool

	// OnWrite is called once, right before a new entry is stored.
	OnWrite(*types.CacheEntry, time.Time)
}
