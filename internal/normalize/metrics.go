package normalize

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersNormalizedTotal tracks raw orders successfully normalized.
	OrdersNormalizedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cryptotaxes_orders_normalized_total",
		Help: "Total number of raw orders normalized to USD legs",
	})

	// OrdersDroppedTotal tracks raw orders dropped, by reason.
	OrdersDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptotaxes_orders_dropped_total",
			Help: "Total number of raw orders dropped during normalization",
		},
		[]string{"reason"},
	)

	// BalancingLegsTotal tracks synthetic quote-currency legs emitted.
	BalancingLegsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cryptotaxes_balancing_legs_total",
		Help: "Total number of balancing quote-currency legs emitted",
	})

	// FeesIgnoredTotal tracks fees not netted into cost basis.
	FeesIgnoredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cryptotaxes_fees_ignored_total",
		Help: "Total number of fees in a non-quote currency left out of cost basis",
	})

	// ZeroCostLegsTotal tracks legs priced at zero due to unresolved quotes.
	ZeroCostLegsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cryptotaxes_zero_cost_legs_total",
		Help: "Total number of legs emitted with zero cost due to an unpriced quote currency",
	})
)
