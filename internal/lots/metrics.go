package lots

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DisposalsEmittedTotal tracks disposals reported for the requested year.
	DisposalsEmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cryptotaxes_disposals_emitted_total",
		Help: "Total number of disposal records emitted",
	})

	// UnmatchedDisposalsTotal tracks sells with no covering lot.
	UnmatchedDisposalsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cryptotaxes_unmatched_disposals_total",
		Help: "Total number of sells with no covering lot",
	})

	// LotsOpenedTotal tracks lots entering the pool.
	LotsOpenedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cryptotaxes_lots_opened_total",
		Help: "Total number of lots opened from buy legs",
	})

	// LotsClosedTotal tracks lots fully consumed and removed.
	LotsClosedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cryptotaxes_lots_closed_total",
		Help: "Total number of lots fully consumed",
	})

	// AllocationDurationSeconds tracks allocation run latency.
	AllocationDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cryptotaxes_allocation_duration_seconds",
		Help:    "Duration of a full lot allocation run",
		Buckets: prometheus.DefBuckets,
	})
)
