package cache

import (
	"context"

	"github.com/krisalay/paginated-query-cache/types"
)

/*
Cache defines the PUBLIC API of the paginated query cache.
This is the contract that listing screens and handlers depend on. All of the details
(key derivation, storage, expiry, capacity sweeps, loading) are hidden behind it.
*/
type Cache interface {

	/*
		FetchWithCache returns the page for a query.

		BEHAVIOR:
		-------------------
		1. If a page for the query is cached and is NOT stale:
		   - Return it immediately (cache hit), the backing API is not called

		2. If it is missing or stale:
		   - Call the backing API once
		   - On success, cache the page and return it (cache miss)
		   - On failure, return the API's error as is and cache nothing
	*/
	FetchWithCache(ctx context.Context, q types.Query) (types.PaginatedResult, error)

	/*
		InvalidateAll forgets every cached page.

		USE CASES:
		----------
		- After a record is created, updated or deleted
		- Administrative cleanup
	*/
	InvalidateAll()

	// CurrentSize returns how many records are cached across all pages.
	CurrentSize() int64

	/*
		Close stops background sweeping.

		WHEN TO CALL:
		-------------
		- Session / application shutdown
		- Tests cleanup
	*/
	Close()
}
