package types

import "context"

// Loader is the contract between the cache and the backing listing API.
type Loader interface {

	/*
		Load is called when the cache misses. The query was not found in memory
		(or the page found there is stale), so the cache asks the Loader to fetch it.
		1. Cache derives the key → page not found / expired
		2. Cache calls Load(query)
		3. Loader fetches from the record API
		4. Cache stores the page in memory, only if Load succeeded
		5. Cache returns the page

		Any error is returned to the caller of the cache exactly as the Loader produced it.
	*/
	Load(ctx context.Context, q Query) (PaginatedResult, error)
}

// LoaderFunc lets a plain function act as a Loader.
type LoaderFunc func(ctx context.Context, q Query) (PaginatedResult, error)

func (f LoaderFunc) Load(ctx context.Context, q Query) (PaginatedResult, error) {
	return f(ctx, q)
}
