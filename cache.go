package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	api "github.com/krisalay/paginated-query-cache/api"
	"github.com/krisalay/paginated-query-cache/engine"
	evict "github.com/krisalay/paginated-query-cache/eviction"
	"github.com/krisalay/paginated-query-cache/keys"
	"github.com/krisalay/paginated-query-cache/store"
	"github.com/krisalay/paginated-query-cache/sweeper"
	"github.com/krisalay/paginated-query-cache/types"
)

/*
PageCache is the main cache implementation.
This struct is the orchestrator that connects:
- key derivation
- the page store
- expiration and loading (through the engine)
- the background sweeper
- metrics

One PageCache is created per session and handed to whoever lists records.
There is no package-level instance.
*/
type PageCache struct {
	// store holds the cached pages, keyed by the derived query key.
	store store.Store

	// engine contains the "rules" of the cache: TTL, loader, metrics, logger, clock.
	engine *engine.CacheEngine

	// sweeper prunes the store in the background and on overflow.
	sweeper *sweeper.Sweeper

	// capacity is the maximum number of RECORDS (not pages) kept after a write or sweep.
	capacity int64

	// dedupe makes concurrent misses on one key share a single load.
	dedupe bool
	sf     singleflight.Group

	// gen counts invalidations. A load that started in an older generation
	// must not write its page: it may predate the record write that caused
	// the invalidation.
	gen atomic.Uint64

	// wmu orders the generation check and write in fill against InvalidateAll.
	wmu sync.Mutex
}

var _ api.Cache = (*PageCache)(nil)

type options struct {
	policy   evict.PolicyType
	interval time.Duration
	dedupe   bool
}

// Option configures a PageCache.
type Option func(*options)

// WithEvictionPolicy picks the capacity policy. The default is recency.
func WithEvictionPolicy(t evict.PolicyType) Option {
	return func(o *options) { o.policy = t }
}

// WithSweepInterval overrides how often the background sweep runs.
func WithSweepInterval(d time.Duration) Option {
	return func(o *options) { o.interval = d }
}

/*
WithDeduplication turns on in-flight deduplication.

Without it, two callers that miss on the same key at the same time both call
the Loader and both write an entry (the last write wins). With it, only the
first caller loads; the others wait for and share its result or its error.
*/
func WithDeduplication() Option {
	return func(o *options) { o.dedupe = true }
}

// sweepIntervaler is implemented by expiration strategies that know how often
// they should be swept.
type sweepIntervaler interface {
	SweepInterval() time.Duration
}

func NewPageCache(
	capacity int,
	engine *engine.CacheEngine,
	opts ...Option,
) *PageCache {

	o := options{policy: evict.Recency}
	for _, opt := range opts {
		opt(&o)
	}

	// By default sweep at half the TTL window, so no page outlives 1.5 x TTL.
	if o.interval <= 0 {
		if si, ok := engine.Expiration.(sweepIntervaler); ok {
			o.interval = si.SweepInterval()
		}
	}

	st := store.NewCOWStore()

	return &PageCache{
		store:    st,
		engine:   engine,
		sweeper:  sweeper.New(st, engine, evict.NewEvictionPolicy(o.policy), int64(capacity), o.interval),
		capacity: int64(capacity),
		dedupe:   o.dedupe,
	}
}

/*
FetchWithCache returns the page for a query.

1. Derive the key
2. If a page is stored for it and is not stale, return it (cache hit)
3. Otherwise call the Loader exactly once
4. If the Loader fails, return its error untouched. Nothing is written and a
   stale page, if any, stays where it is until a sweep removes it
5. If it succeeds, store a new entry and return the fresh page
*/
func (c *PageCache) FetchWithCache(ctx context.Context, q types.Query) (types.PaginatedResult, error) {
	key := keys.Derive(q)

	if ent, ok := c.store.Get(key); ok && !c.engine.IsExpired(ent) {
		c.engine.Metrics.Hit()
		c.engine.Logger.Debug("cache hit", zap.String("key", key))
		return ent.Result(), nil
	}

	c.engine.Metrics.Miss()
	c.engine.Logger.Debug("cache miss", zap.String("key", key))

	if !c.dedupe {
		return c.fill(ctx, key, q)
	}

	/*
		singleflight ensures that:
		- If many goroutines miss on the same page at once,
		  only ONE of them calls the record API.
		- Others wait for the result, or the error.
	*/
	v, err, _ := c.sf.Do(key, func() (any, error) {
		return c.fill(ctx, key, q)
	})
	if err != nil {
		return types.PaginatedResult{}, err
	}
	return v.(types.PaginatedResult), nil
}

// fill loads a page and writes it through to the store.
func (c *PageCache) fill(ctx context.Context, key string, q types.Query) (types.PaginatedResult, error) {
	gen := c.gen.Load()

	res, err := c.engine.Load(ctx, q)
	if err != nil {
		c.engine.Metrics.LoadFailure()
		c.engine.Logger.Debug("cache load failed", zap.String("key", key), zap.Error(err))
		return types.PaginatedResult{}, err
	}

	c.wmu.Lock()
	if c.gen.Load() != gen {
		c.wmu.Unlock()
		c.engine.Logger.Debug("cache invalidated during load, not storing", zap.String("key", key))
		return res, nil
	}
	c.store.Put(key, c.engine.NewEntry(key, res))
	c.wmu.Unlock()

	// Don't wait for the timer when this write pushed us over capacity.
	if c.store.Size() > c.capacity {
		c.sweeper.Sweep()
	} else {
		c.engine.Metrics.CachedItems(c.store.Size())
	}

	return res, nil
}

/*
InvalidateAll drops every cached page.

Callers do this after creating, updating or deleting a record: the cache
cannot know which pages a write affects, so it forgets all of them. Loads
already in flight still return to their callers but are not stored.
*/
func (c *PageCache) InvalidateAll() {
	c.wmu.Lock()
	c.gen.Add(1)
	c.store.Clear()
	c.wmu.Unlock()

	c.engine.Metrics.Invalidate()
	c.engine.Metrics.CachedItems(0)
	c.engine.Logger.Info("cache invalidated")
}

// CurrentSize returns the total number of records currently cached.
func (c *PageCache) CurrentSize() int64 {
	return c.store.Size()
}

// Sweep runs one expiry + capacity pass right now.
func (c *PageCache) Sweep() sweeper.Result {
	return c.sweeper.Sweep()
}

// Start begins background sweeping. It stops when ctx is done or on Close.
func (c *PageCache) Start(ctx context.Context) {
	c.sweeper.Start(ctx)
}

/*
Close stops the background sweeper and waits for it.
Cached pages stay readable; the cache simply stops pruning itself.
*/
func (c *PageCache) Close() {
	c.sweeper.Close()
}
