package types

// This file defines how the cache reports what it is doing.

/*
Metrics is an interface that defines what the cache wants to measure.
Each method represents an event in the cache lifecycle. The cache will call these methods whenever something happens.
*/
type Metrics interface {

	// Hit is called when the cache returns a page without calling the Loader.
	Hit()

	// Miss is called when the page is absent or stale and the Loader has to be called.
	Miss()

	// Eviction is called for every entry dropped by a sweep only because the cache was over capacity.
	Eviction()

	// Expire is called for every entry dropped by a sweep because it passed its TTL.
	Expire()

	// Invalidate is called when the whole cache is cleared after a write to the records.
	Invalidate()

	// LoadFailure is called when the Loader returns an error.
	LoadFailure()

	// CachedItems reports the total number of records held after a mutation.
	CachedItems(n int64)
}

/*
NoopMetrics is a "do nothing" implementation of Metrics.

If someone does not care about metrics, we still want the cache to work
without nil checks everywhere, so this is the default.
*/
type NoopMetrics struct{}

func (NoopMetrics) Hit()              {}
func (NoopMetrics) Miss()             {}
func (NoopMetrics) Eviction()         {}
func (NoopMetrics) Expire()           {}
func (NoopMetrics) Invalidate()       {}
func (NoopMetrics) LoadFailure()      {}
func (NoopMetrics) CachedItems(int64) {}
