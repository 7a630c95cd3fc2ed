package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/krisalay/paginated-query-cache/expiration"
	"github.com/krisalay/paginated-query-cache/types"
)

/*
CacheEngine is the "brain" of the cache system.
It is responsible for the "behavior" of the cache, NOT storage.
This acts as the policy layer.

It decides:
- When a page is stale
- How a new entry is stamped before it is stored
- How pages are loaded on a miss
- How metrics and logs are recorded

It does NOT:
- Store data
- Handle locking
- Decide eviction order
*/
type CacheEngine struct {

	// Expiration controls when a cached page is considered too old to serve.
	// If this is nil, pages never expire based on time.
	Expiration expiration.Strategy

	// Loader is how the cache talks to the record API when it does NOT have the page.
	Loader types.Loader

	// Metrics is how we keep track of what the cache is doing.
	Metrics types.Metrics

	// Logger receives hit/miss and sweep diagnostics.
	Logger *zap.Logger

	// Now is the clock every expiry decision is made against.
	Now func() time.Time
}

/*
NewCacheEngine creates a CacheEngine.
*/
func NewCacheEngine(
	exp expiration.Strategy,
	loader types.Loader,
	metrics types.Metrics,
	logger *zap.Logger,
) *CacheEngine {

	// Metrics and Logger are never nil after construction.
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CacheEngine{
		Expiration: exp,
		Loader:     loader,
		Metrics:    metrics,
		Logger:     logger,
		Now:        time.Now,
	}
}

/*
IsExpired checks whether a cached page is stale right now.
Returns false if no expiration strategy is configured.
*/
func (e *CacheEngine) IsExpired(ent *types.CacheEntry) bool {
	return e.IsExpiredAt(ent, e.Now())
}

// IsExpiredAt is IsExpired against an explicit moment, used by sweeps.
func (e *CacheEngine) IsExpiredAt(ent *types.CacheEntry, now time.Time) bool {
	return e.Expiration != nil &&
		e.Expiration.IsExpired(ent, now)
}

/*
NewEntry builds the entry for a freshly loaded page.

The entry takes over the result's record slice and is never changed again,
so it must be built completely here, before anyone can see it.
*/
func (e *CacheEngine) NewEntry(key string, res types.PaginatedResult) *types.CacheEntry {
	now := e.Now()

	ent := &types.CacheEntry{
		Key:       key,
		Items:     res.Data,
		Meta:      res.Meta,
		WrittenAt: now,
	}

	if e.Expiration != nil {
		e.Expiration.OnWrite(ent, now)
	}
	return ent
}

/*
Load is used when the cache does NOT have a fresh page.
This is a network request to the record API.
*/
func (e *CacheEngine) Load(ctx context.Context, q types.Query) (types.PaginatedResult, error) {
	return e.Loader.Load(ctx, q)
}
