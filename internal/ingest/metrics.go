package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RowsReadTotal tracks trade-history rows read.
	RowsReadTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cryptotaxes_trade_rows_read_total",
		Help: "Total number of trade-history CSV rows read",
	})

	// RowsSkippedTotal tracks rows skipped during ingestion, by reason.
	RowsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptotaxes_trade_rows_skipped_total",
			Help: "Total number of trade-history CSV rows skipped",
		},
		[]string{"reason"},
	)
)
