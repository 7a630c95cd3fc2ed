package cache_test

import (
	"context"
	"testing"
	"time"

	cache "github.com/krisalay/paginated-query-cache"
	"github.com/krisalay/paginated-query-cache/engine"
	"github.com/krisalay/paginated-query-cache/expiration"
	"github.com/krisalay/paginated-query-cache/types"
)

func newBenchmarkCache(capacity int, opts ...cache.Option) *cache.PageCache {
	engine := engine.NewCacheEngine(
		&expiration.ExpireAfterWrite{TTL: 10 * time.Minute},
		&TestSource{},
		nil,
		nil,
	)

	return cache.NewPageCache(capacity, engine, opts...)
}

//
// ================= SINGLE THREAD BENCH =================
//

func BenchmarkFetchHit(b *testing.B) {
	ctx := context.Background()
	c := newBenchmarkCache(100000)

	q := query(1, 10)
	_, _ = c.FetchWithCache(ctx, q)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.FetchWithCache(ctx, q)
	}
}

func BenchmarkFetchMiss(b *testing.B) {
	ctx := context.Background()
	c := newBenchmarkCache(100000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// every search term is a new page
		q := query(1, 10)
		q.Search = string(rune('a' + i%26))
		q.Page = i + 1
		_, _ = c.FetchWithCache(ctx, q)
	}
}

//
// ================= PARALLEL BENCH =================
//

func BenchmarkFetchParallelHit(b *testing.B) {
	ctx := context.Background()
	c := newBenchmarkCache(100000, cache.WithDeduplication())

	for i := 1; i <= 100; i++ {
		_, _ = c.FetchWithCache(ctx, query(i, 10))
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = c.FetchWithCache(ctx, query(42, 10))
		}
	})
}

//
// ================= SWEEP BENCH =================
//

func BenchmarkSweepFullStore(b *testing.B) {
	ctx := context.Background()

	for i := 0; i < b.N; i++ {
		b.StopTimer()
		c := newBenchmarkCache(1 << 30)
		for p := 1; p <= 500; p++ {
			_, _ = c.FetchWithCache(ctx, types.Query{Page: p, PageSize: 20, SortBy: "dni", SortOrder: types.Desc})
		}
		b.StartTimer()

		c.Sweep()
	}
}
