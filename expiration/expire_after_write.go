package expiration

import (
	"time"

	"github.com/krisalay/paginated-query-cache/types"
)

/*
ExpireAfterWrite implements a fixed TTL counted from the moment a page was written.

A listing of clinical records must not be served older than TTL, no matter how
often it is read, so the clock starts at the write and nothing moves it.
*/
type ExpireAfterWrite struct {
	TTL time.Duration
}

// IsExpired reports whether now - WrittenAt >= TTL.
// An entry exactly TTL old is already stale.
func (e *ExpireAfterWrite) IsExpired(ent *types.CacheEntry, now time.Time) bool {
	return now.Sub(ent.WrittenAt) >= e.TTL
}

// OnWrite stamps the write time.
func (e *ExpireAfterWrite) OnWrite(ent *types.CacheEntry, now time.Time) {
	ent.WrittenAt = now
}

// SweepInterval is how often a background sweep should run for this TTL.
// With half the window, no entry outlives 1.5 x TTL.
func (e *ExpireAfterWrite) SweepInterval() time.Duration {
	return e.TTL / 2
}
