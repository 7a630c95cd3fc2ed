// Package metrics provides Prometheus metrics for the page cache.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/krisalay/paginated-query-cache/types"
)

// Prometheus reports cache events as Prometheus series. It implements types.Metrics.
type Prometheus struct {
	// Lookup metrics
	Hits         prometheus.Counter
	Misses       prometheus.Counter
	LoadFailures prometheus.Counter

	// Removal metrics
	Evictions     prometheus.Counter
	Expirations   prometheus.Counter
	Invalidations prometheus.Counter

	// Size
	Items prometheus.Gauge
}

var _ types.Metrics = (*Prometheus)(nil)

// NewPrometheus registers the cache series on reg under the given namespace.
func NewPrometheus(reg prometheus.Registerer, namespace string) *Prometheus {
	f := promauto.With(reg)

	return &Prometheus{
		Hits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "page_cache",
			Name:      "hits_total",
			Help:      "Listing requests answered from the cache",
		}),
		Misses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "page_cache",
			Name:      "misses_total",
			Help:      "Listing requests that had to call the record API",
		}),
		LoadFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "page_cache",
			Name:      "load_failures_total",
			Help:      "Record API calls that failed on a miss",
		}),
		Evictions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "page_cache",
			Name:      "evictions_total",
			Help:      "Pages dropped by a sweep to stay under capacity",
		}),
		Expirations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "page_cache",
			Name:      "expirations_total",
			Help:      "Pages dropped by a sweep because they passed their TTL",
		}),
		Invalidations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "page_cache",
			Name:      "invalidations_total",
			Help:      "Times the whole cache was cleared after a record write",
		}),
		Items: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "page_cache",
			Name:      "cached_items",
			Help:      "Records currently held across all cached pages",
		}),
	}
}

func (p *Prometheus) Hit()                { p.Hits.Inc() }
func (p *Prometheus) Miss()               { p.Misses.Inc() }
func (p *Prometheus) Eviction()           { p.Evictions.Inc() }
func (p *Prometheus) Expire()             { p.Expirations.Inc() }
func (p *Prometheus) Invalidate()         { p.Invalidations.Inc() }
func (p *Prometheus) LoadFailure()        { p.LoadFailures.Inc() }
func (p *Prometheus) CachedItems(n int64) { p.Items.Set(float64(n)) }
