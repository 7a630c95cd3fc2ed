package eviction

import "github.com/krisalay/paginated-query-cache/types"

/*
This file defines how the cache decides what to remove when it holds too many records.
*/

/*
Policy is the interface that all capacity strategies must follow.

A sweep hands the policy every entry that survived the expiry pass, together with
the capacity in records. The policy decides which of them stay.
The cache does NOT care how the decision is made. It only removes what is dropped.
*/
type Policy interface {

	// Trim splits entries into those to keep and those to drop so that the
	// kept entries hold at most limit records in total.
	Trim(entries []*types.CacheEntry, limit int64) (keep, drop []*types.CacheEntry)
}

// PolicyType is a simple identifier for supported capacity strategies.
type PolicyType string

const (
	// Recency keeps the most recently WRITTEN pages. Reads do not count.
	Recency PolicyType = "recency"
)

// NewEvictionPolicy is a small factory function.
// Given a PolicyType, it creates the correct eviction policy.
func NewEvictionPolicy(t PolicyType) Policy {
	switch t {
	case Recency:
		return newRecency()
	default:
		panic("unknown eviction policy")
	}
}
