package pricing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CandleFetchesTotal tracks successful candle series fetches by timeframe.
	CandleFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptotaxes_candle_fetches_total",
			Help: "Total number of candle series fetched from the market data API",
		},
		[]string{"timeframe"},
	)

	// CandleFetchRetriesTotal tracks transient-failure retries.
	CandleFetchRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cryptotaxes_candle_fetch_retries_total",
		Help: "Total number of candle fetch retries",
	})

	// CandleFetchErrorsTotal tracks fetches that exhausted retries.
	CandleFetchErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cryptotaxes_candle_fetch_errors_total",
		Help: "Total number of candle fetches that failed after retries",
	})

	// PriceLookupsTotal tracks non-USD price resolutions requested.
	PriceLookupsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cryptotaxes_price_lookups_total",
		Help: "Total number of non-USD price lookups",
	})

	// PriceResolvedTotal tracks resolved lookups by fallback tier.
	PriceResolvedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptotaxes_price_resolved_total",
			Help: "Total number of price lookups resolved, by fallback tier",
		},
		[]string{"tier"},
	)

	// PriceUnresolvedTotal tracks lookups that exhausted every tier.
	PriceUnresolvedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cryptotaxes_price_unresolved_total",
		Help: "Total number of price lookups that could not be resolved",
	})

	// LiveQuoteFallbacksTotal tracks BTC pricings that fell back to the live quote.
	LiveQuoteFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cryptotaxes_live_quote_fallbacks_total",
		Help: "Total number of BTC pricings served from the live quote",
	})
)
