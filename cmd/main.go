package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	cache "github.com/krisalay/paginated-query-cache"
	"github.com/krisalay/paginated-query-cache/engine"
	"github.com/krisalay/paginated-query-cache/expiration"
	"github.com/krisalay/paginated-query-cache/internal/logging"
	"github.com/krisalay/paginated-query-cache/recordapi"
	"github.com/krisalay/paginated-query-cache/types"
	"github.com/krisalay/paginated-query-cache/writepolicy"
)

// ================= BACKING API =================

// InMemoryRecords stands in for the remote record API.
type InMemoryRecords struct {
	mu       sync.RWMutex
	patients []recordapi.Patient
	down     bool
	policy   writepolicy.WritePolicy
}

func NewInMemoryRecords(n int) *InMemoryRecords {
	r := &InMemoryRecords{policy: writepolicy.Nop{}}
	for i := 1; i <= n; i++ {
		sexo := "F"
		if i%2 == 0 {
			sexo = "M"
		}
		r.patients = append(r.patients, recordapi.Patient{
			ID:     i,
			Nombre: fmt.Sprintf("Paciente %03d", i),
			DNI:    fmt.Sprintf("%08d", 40000000+i),
			Sexo:   sexo,
		})
	}
	return r
}

func (r *InMemoryRecords) Load(ctx context.Context, q types.Query) (types.PaginatedResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fmt.Printf("API    → list page=%d size=%d search=%q\n", q.Page, q.PageSize, q.Search)
	if r.down {
		return types.PaginatedResult{}, errors.New("record api unavailable")
	}

	var matched []types.Record
	for _, p := range r.patients {
		if q.Search == "" || strings.Contains(strings.ToLower(p.Nombre), strings.ToLower(q.Search)) {
			matched = append(matched, p)
		}
	}

	from := min((q.Page-1)*q.PageSize, len(matched))
	to := min(from+q.PageSize, len(matched))

	return types.PaginatedResult{
		Data: matched[from:to],
		Meta: types.Meta{Total: len(matched), TotalPages: (len(matched) + q.PageSize - 1) / q.PageSize},
	}, nil
}

func (r *InMemoryRecords) Create(ctx context.Context, p recordapi.Patient) {
	r.mu.Lock()
	p.ID = len(r.patients) + 1
	r.patients = append(r.patients, p)
	r.mu.Unlock()

	fmt.Println("API    → create patient", p.ID)
	r.policy.OnWrite(ctx, writepolicy.Create, p.ID)
}

func (r *InMemoryRecords) SetDown(down bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.down = down
}

// ================= METRICS =================
type Metrics struct {
	mu            sync.Mutex
	hits          int
	misses        int
	evictions     int
	expired       int
	invalidations int
	failures      int
}

func (m *Metrics) Hit()              { m.mu.Lock(); m.hits++; m.mu.Unlock() }
func (m *Metrics) Miss()             { m.mu.Lock(); m.misses++; m.mu.Unlock() }
func (m *Metrics) Eviction()         { m.mu.Lock(); m.evictions++; m.mu.Unlock() }
func (m *Metrics) Expire()           { m.mu.Lock(); m.expired++; m.mu.Unlock() }
func (m *Metrics) Invalidate()       { m.mu.Lock(); m.invalidations++; m.mu.Unlock() }
func (m *Metrics) LoadFailure()      { m.mu.Lock(); m.failures++; m.mu.Unlock() }
func (m *Metrics) CachedItems(int64) {}

func (m *Metrics) Print() {
	fmt.Println("\n==================== METRICS ====================")
	fmt.Printf("HITS          : %d\n", m.hits)
	fmt.Printf("MISSES        : %d\n", m.misses)
	fmt.Printf("EVICTIONS     : %d\n", m.evictions)
	fmt.Printf("EXPIRED       : %d\n", m.expired)
	fmt.Printf("INVALIDATIONS : %d\n", m.invalidations)
	fmt.Printf("LOAD FAILURES : %d\n", m.failures)
}

// ================= MAIN =================

func main() {
	ctx := context.Background()

	fmt.Println("\n==================== SYSTEM BOOT ====================")

	// ---------------- System Config ----------------
	fmt.Println("TTL STRATEGY    : ExpireAfterWrite (1s)")
	fmt.Println("EVICTION POLICY : Recency")
	fmt.Println("CAPACITY        : 25 records")
	fmt.Println("DEDUPLICATION   : on")

	// ---------------- Backing API ----------------
	records := NewInMemoryRecords(60)

	// ---------------- Metrics ----------------
	metrics := &Metrics{}

	// ---------------- Cache Engine ----------------
	engine := engine.NewCacheEngine(
		&expiration.ExpireAfterWrite{TTL: time.Second},
		records,
		metrics,
		logging.NewLogger(false, zapcore.DebugLevel).Named("cache"),
	)

	pages := cache.NewPageCache(25, engine, cache.WithDeduplication())
	records.policy = writepolicy.NewInvalidateThrough(pages)

	page := func(n int) types.Query {
		return types.Query{Page: n, PageSize: 10, SortBy: "nombre", SortOrder: types.Asc}
	}

	// ====================================================
	fmt.Println("\n==================== 1) CACHE MISS ====================")
	res, _ := pages.FetchWithCache(ctx, page(1))
	fmt.Println("CACHE  → page 1 rows =", len(res.Data), "total =", res.Meta.Total)

	// ====================================================
	fmt.Println("\n==================== 2) CACHE HIT ====================")
	res, _ = pages.FetchWithCache(ctx, page(1))
	fmt.Println("CACHE  → page 1 rows =", len(res.Data), "size =", pages.CurrentSize())

	// ====================================================
	fmt.Println("\n==================== 3) TTL EXPIRATION ====================")
	time.Sleep(1100 * time.Millisecond)
	res, _ = pages.FetchWithCache(ctx, page(1))
	fmt.Println("CACHE  → page 1 after TTL rows =", len(res.Data))

	// ====================================================
	fmt.Println("\n==================== 4) SINGLEFLIGHT ====================")
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < 5; i++ {
		id := i
		g.Go(func() error {
			res, err := pages.FetchWithCache(gctx, page(2))
			fmt.Printf("GOROUTINE-%d → page 2 rows = %d\n", id, len(res.Data))
			return err
		})
	}
	_ = g.Wait()

	// ====================================================
	fmt.Println("\n==================== 5) CAPACITY EVICTION ====================")
	_, _ = pages.FetchWithCache(ctx, page(3))
	fmt.Println("CACHE  → size after page 3 =", pages.CurrentSize())

	// ====================================================
	fmt.Println("\n==================== 6) FAILED REFRESH ====================")
	records.SetDown(true)
	_, err := pages.FetchWithCache(ctx, page(4))
	fmt.Println("CACHE  → page 4 error =", err, "size =", pages.CurrentSize())
	records.SetDown(false)

	// ====================================================
	fmt.Println("\n==================== 7) INVALIDATE ON WRITE ====================")
	records.Create(ctx, recordapi.Patient{Nombre: "Ana López", DNI: "12345678", Sexo: "F"})
	fmt.Println("CACHE  → size after create =", pages.CurrentSize())
	res, _ = pages.FetchWithCache(ctx, types.Query{Page: 1, PageSize: 10, SortBy: "nombre", SortOrder: types.Asc, Search: "lópez"})
	fmt.Println("CACHE  → search \"lópez\" rows =", len(res.Data))

	// ====================================================
	metrics.Print()

	// ====================================================
	fmt.Println("\n==================== SHUTDOWN ====================")
	pages.Close()
	fmt.Println("SYSTEM → cache closed cleanly")
}
