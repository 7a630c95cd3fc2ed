package writepolicy

import "context"

/*
This file defines what a "write policy" is: what happens to cached pages when
a record behind them is created, updated or deleted.

The cache cannot tell which pages a write touches (a new patient can shift
every page of every sort order), so policies work at the level of the
whole cache.
*/

// Op is the kind of record write that happened.
type Op string

const (
	Create Op = "create"
	Update Op = "update"
	Delete Op = "delete"
)

/*
WritePolicy is the contract that all write policies must follow.
The record client does not care which policy is used. It simply calls OnWrite
after the backing API has accepted a write.
*/
type WritePolicy interface {

	/*
		OnWrite is called after a successful record write.
		It is NOT called when the write failed.
	*/
	OnWrite(ctx context.Context, op Op, id int)
}

// Invalidator is the part of the cache a write policy needs.
type Invalidator interface {
	InvalidateAll()
}
