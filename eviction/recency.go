// This file implements recency eviction.

package eviction

import (
	"cmp"
	"slices"

	"github.com/krisalay/paginated-query-cache/types"
)

/*
recency orders pages by write time, newest first, and keeps taking them while
the running record count stays within the limit. The first page that would
overflow the limit is the cutoff: it and every older page are dropped, even if
a smaller, older page would still fit.

This is not LRU. WrittenAt is never refreshed by reads, so a page that is read
constantly but written long ago goes before a page nobody reads but that was
written a moment ago. TTL already bounds how long any page lives, which is
what makes the simpler rule acceptable.
*/
type recency struct{}

func newRecency() *recency {
	return &recency{}
}

func (recency) Trim(entries []*types.CacheEntry, limit int64) (keep, drop []*types.CacheEntry) {
	ordered := slices.Clone(entries)

	// Newest first. Equal write times fall back to the key so the result is
	// the same no matter what order the store handed the entries over in.
	slices.SortFunc(ordered, func(a, b *types.CacheEntry) int {
		if c := b.WrittenAt.Compare(a.WrittenAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})

	var count int64
	for i, ent := range ordered {
		if count+int64(ent.Len()) > limit {
			return ordered[:i], ordered[i:]
		}
		count += int64(ent.Len())
	}
	return ordered, nil
}
