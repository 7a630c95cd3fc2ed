// Package sweeper prunes a page store on a timer: first stale pages, then
// whatever is needed to bring the cached record count back under capacity.
package sweeper

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/krisalay/paginated-query-cache/engine"
	"github.com/krisalay/paginated-query-cache/eviction"
	"github.com/krisalay/paginated-query-cache/store"
	"github.com/krisalay/paginated-query-cache/types"
)

// DefaultInterval is used when no positive interval is given.
const DefaultInterval = time.Minute

// Result describes what one sweep did.
type Result struct {
	Expired   int
	Evicted   int
	Remaining int
	Size      int64
}

/*
Sweeper owns the background pruning of a store.

It never sits on the request path. A write that lands while a sweep is running
is either seen by that sweep or left for the next one; both are fine.
*/
type Sweeper struct {
	store  store.Store
	engine *engine.CacheEngine
	policy eviction.Policy

	// limit is the capacity in records, not entries.
	limit    int64
	interval time.Duration

	// mu makes each sweep a single step from the caller's point of view.
	mu sync.Mutex

	stop      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

func New(
	st store.Store,
	eng *engine.CacheEngine,
	policy eviction.Policy,
	limit int64,
	interval time.Duration,
) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Sweeper{
		store:    st,
		engine:   eng,
		policy:   policy,
		limit:    limit,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Interval is how often the background loop sweeps.
func (s *Sweeper) Interval() time.Duration {
	return s.interval
}

// Sweep runs one pass against the engine's clock.
func (s *Sweeper) Sweep() Result {
	return s.SweepAt(s.engine.Now())
}

/*
SweepAt runs one pass as if the time were now.

1. Expiry pass: every entry with now - WrittenAt >= TTL is dropped
2. Capacity pass: the policy picks, among the survivors, what fits in limit
3. Exactly the dropped entries are removed and the new size is published

Entries are removed by identity. If a key was rewritten while the pass was
deciding, the new entry is not the one that was judged, so it stays.
*/
func (s *Sweeper) SweepAt(now time.Time) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.store.Entries()
	if len(entries) == 0 {
		return Result{}
	}

	expired := make(map[*types.CacheEntry]struct{})
	live := make([]*types.CacheEntry, 0, len(entries))
	for _, ent := range entries {
		if s.engine.IsExpiredAt(ent, now) {
			expired[ent] = struct{}{}
			continue
		}
		live = append(live, ent)
	}

	_, drop := s.policy.Trim(live, s.limit)

	evicted := make(map[*types.CacheEntry]struct{}, len(drop))
	for _, ent := range drop {
		evicted[ent] = struct{}{}
	}

	removed := s.store.RemoveAll(func(ent *types.CacheEntry) bool {
		if _, ok := expired[ent]; ok {
			return true
		}
		_, ok := evicted[ent]
		return ok
	})

	var res Result
	for _, ent := range removed {
		if _, ok := expired[ent]; ok {
			res.Expired++
			s.engine.Metrics.Expire()
		} else {
			res.Evicted++
			s.engine.Metrics.Eviction()
		}
	}
	res.Remaining = s.store.Len()
	res.Size = s.store.Size()

	s.engine.Metrics.CachedItems(res.Size)

	if len(removed) > 0 {
		s.engine.Logger.Debug("cache sweep",
			zap.Int("expired", res.Expired),
			zap.Int("evicted", res.Evicted),
			zap.Int("remaining", res.Remaining),
			zap.Int64("size", res.Size),
		)
	}
	return res
}

/*
Start launches the background loop. It sweeps every interval until ctx is
cancelled or Close is called. Calling Start more than once has no effect.
*/
func (s *Sweeper) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		s.wg.Add(1)
		go s.run(ctx)
	})
}

func (s *Sweeper) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Close stops the background loop and waits for it to exit. Safe to call twice.
func (s *Sweeper) Close() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	s.wg.Wait()
}
