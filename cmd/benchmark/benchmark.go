package main

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	cache "github.com/krisalay/paginated-query-cache"
	"github.com/krisalay/paginated-query-cache/engine"
	"github.com/krisalay/paginated-query-cache/expiration"
	"github.com/krisalay/paginated-query-cache/types"
)

// ================= BACKING API =================

// SlowListing pretends to be the record API: every call costs latency.
type SlowListing struct {
	latency time.Duration
	calls   atomic.Int64
}

func (s *SlowListing) Load(ctx context.Context, q types.Query) (types.PaginatedResult, error) {
	s.calls.Add(1)

	select {
	case <-time.After(s.latency):
	case <-ctx.Done():
		return types.PaginatedResult{}, ctx.Err()
	}

	data := make([]types.Record, q.PageSize)
	for i := range data {
		data[i] = (q.Page-1)*q.PageSize + i
	}
	return types.PaginatedResult{Data: data, Meta: types.Meta{Total: 10000, TotalPages: 10000 / q.PageSize}}, nil
}

// ================= BENCHMARK =================

func run(dedupe bool) {
	ctx := context.Background()

	const (
		capacity   = 1000
		pageSize   = 20
		pages      = 100
		goroutines = 200
		opsPerG    = 2000
	)

	src := &SlowListing{latency: 2 * time.Millisecond}

	engine := engine.NewCacheEngine(
		&expiration.ExpireAfterWrite{TTL: time.Minute},
		src,
		nil,
		nil,
	)

	var opts []cache.Option
	if dedupe {
		opts = append(opts, cache.WithDeduplication())
	}
	c := cache.NewPageCache(capacity, engine, opts...)
	c.Start(ctx)
	defer c.Close()

	fmt.Println("\n---------------------------------")
	fmt.Println("Capacity     :", capacity, "records")
	fmt.Println("Distinct     :", pages, "pages of", pageSize)
	fmt.Println("Goroutines   :", goroutines)
	fmt.Println("Ops/Goroutine:", opsPerG)
	fmt.Println("Deduplicate  :", dedupe)
	fmt.Println("---------------------------------")

	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < goroutines; i++ {
		id := i
		g.Go(func() error {
			for j := 0; j < opsPerG; j++ {
				q := types.Query{
					Page:      (id+j)%pages + 1,
					PageSize:  pageSize,
					SortBy:    "nombre",
					SortOrder: types.Asc,
				}
				if _, err := c.FetchWithCache(gctx, q); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		fmt.Println("benchmark failed:", err)
		return
	}

	duration := time.Since(start)
	totalOps := goroutines * opsPerG

	fmt.Println("\n================ RESULTS =================")
	fmt.Printf("Total Operations : %d\n", totalOps)
	fmt.Printf("API Calls        : %d\n", src.calls.Load())
	fmt.Printf("Cached Records   : %d\n", c.CurrentSize())
	fmt.Printf("Total Time       : %v\n", duration)
	fmt.Printf("Throughput       : %.2f ops/sec\n", float64(totalOps)/duration.Seconds())
	fmt.Println("=========================================")
}

func main() {
	fmt.Println("\n================ PAGE CACHE LOAD BENCHMARK =================")

	run(false)
	run(true)
}
