package store

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/krisalay/paginated-query-cache/types"
)

/*
This file defines how cached pages are actually stored. This is NOT a normal map.
- Reads (every FetchWithCache) should be very fast and should NOT take locks
- Writes (misses, sweeps, invalidation) are less frequent and can afford extra work

To achieve this, we use "Copy-On-Write" (COW): readers see an immutable snapshot,
writers build a new map and publish it atomically.
*/

// Store is the mapping from cache key to cached page.
type Store interface {

	// Get retrieves an entry by key. It does NOT check expiry.
	Get(string) (*types.CacheEntry, bool)

	// Put inserts or replaces an entry wholesale.
	Put(string, *types.CacheEntry)

	// RemoveAll removes every entry matching the predicate and returns them.
	RemoveAll(func(*types.CacheEntry) bool) []*types.CacheEntry

	// Clear removes everything.
	Clear()

	// Entries returns a snapshot of all entries, in no particular order.
	Entries() []*types.CacheEntry

	// Size returns the total number of records across all entries.
	Size() int64

	// Len returns how many entries are stored.
	Len() int
}

// snapshot is one immutable published state. The map and its item count
// are swapped together so a reader can never see one without the other.
type snapshot struct {
	entries map[string]*types.CacheEntry
	items   int64
}

/*
cowStore is a Copy-On-Write implementation of Store.

- Readers load the current snapshot without locking
- Writers serialize on mu, build a NEW snapshot, and publish it atomically
- The item count is maintained incrementally on every write
*/
type cowStore struct {
	data atomic.Pointer[snapshot]

	// mu serializes writers. Readers never take it.
	mu sync.Mutex
}

func NewCOWStore() *cowStore {
	s := &cowStore{}
	s.data.Store(&snapshot{entries: make(map[string]*types.CacheEntry)})
	return s
}

func (s *cowStore) Get(key string) (*types.CacheEntry, bool) {
	ent, ok := s.data.Load().entries[key]
	return ent, ok
}

/*
Put inserts or replaces an entry.

1. Load the current snapshot
2. Copy all existing entries into a new map
3. Add / replace the entry
4. Adjust the item count by the difference
5. Atomically publish the new snapshot
*/
func (s *cowStore) Put(key string, ent *types.CacheEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.data.Load()

	n := make(map[string]*types.CacheEntry, len(old.entries)+1)
	for k, v := range old.entries {
		n[k] = v
	}

	items := old.items + int64(ent.Len())
	if prev, ok := old.entries[key]; ok {
		items -= int64(prev.Len())
	}
	n[key] = ent

	s.publish(n, items)
}

// RemoveAll rebuilds the map without the matching entries.
func (s *cowStore) RemoveAll(match func(*types.CacheEntry) bool) []*types.CacheEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.data.Load()

	var removed []*types.CacheEntry
	n := make(map[string]*types.CacheEntry, len(old.entries))
	items := old.items

	for k, v := range old.entries {
		if match(v) {
			removed = append(removed, v)
			items -= int64(v.Len())
			continue
		}
		n[k] = v
	}

	if len(removed) == 0 {
		return nil
	}

	s.publish(n, items)
	return removed
}

func (s *cowStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.publish(make(map[string]*types.CacheEntry), 0)
}

func (s *cowStore) Entries() []*types.CacheEntry {
	m := s.data.Load().entries

	out := make([]*types.CacheEntry, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

func (s *cowStore) Size() int64 {
	return s.data.Load().items
}

func (s *cowStore) Len() int {
	return len(s.data.Load().entries)
}

// publish swaps in a new snapshot. A negative count means the bookkeeping is
// broken and nothing read from the store can be trusted any more.
func (s *cowStore) publish(entries map[string]*types.CacheEntry, items int64) {
	if items < 0 {
		panic(fmt.Sprintf("store: cached item count went negative (%d)", items))
	}
	s.data.Store(&snapshot{entries: entries, items: items})
}
