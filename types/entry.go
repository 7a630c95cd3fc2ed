package types

import "time"

// CacheEntry is one cached page.
// It is never mutated after it is stored; an update replaces the whole entry.
type CacheEntry struct {
	Key       string
	Items     []Record
	Meta      Meta
	WrittenAt time.Time
}

// Len is the number of records the entry holds. Capacity is counted in records, not entries.
func (e *CacheEntry) Len() int {
	return len(e.Items)
}

// Result rebuilds the page the entry was created from. The record slice is shared, not copied.
func (e *CacheEntry) Result() PaginatedResult {
	return PaginatedResult{Data: e.Items, Meta: e.Meta}
}
