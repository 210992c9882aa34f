package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Shared counters for all cache backends, labeled by backend name.
var (
	Hits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_hits_total",
			Help: "Cache reads served from a stored entry",
		},
		[]string{"backend"},
	)

	Misses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_misses_total",
			Help: "Cache reads that fell through to the compute function",
		},
		[]string{"backend"},
	)

	Invalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_invalidations_total",
			Help: "Tag invalidations applied",
		},
		[]string{"backend"},
	)
)
