package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHitsTotal tracks candle cache hits.
	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cryptotaxes_cache_hits_total",
		Help: "Total number of candle cache hits",
	})

	// CacheMissesTotal tracks candle cache misses.
	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cryptotaxes_cache_misses_total",
		Help: "Total number of candle cache misses",
	})

	// CacheSetsTotal tracks candle cache writes.
	CacheSetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cryptotaxes_cache_sets_total",
		Help: "Total number of candle cache writes",
	})
)
