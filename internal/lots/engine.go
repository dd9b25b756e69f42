package lots

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/klaxis/CryptoTaxes/pkg/types"
)

// epsilon below which a remaining amount is treated as fully consumed.
var epsilon = decimal.New(1, -9)

// longTermHolding is the minimum holding period for long-term treatment.
const longTermHolding = 365 * 24 * time.Hour

// Config holds lot matching configuration.
type Config struct {
	Strategy types.Strategy
	TaxYear  int // 0 reports all years
	Logger   *zap.Logger
}

// Engine allocates sells against previously acquired lots under the
// configured cost-basis strategy, emitting one disposal per lot
// consumed.
type Engine struct {
	config Config
	better lotOrdering
	logger *zap.Logger
}

// Totals aggregates the reported disposals for summary display.
type Totals struct {
	ProceedsUSD  decimal.Decimal
	CostBasisUSD decimal.Decimal
	GainUSD      decimal.Decimal
}

// Result is the output of one allocation run.
type Result struct {
	Disposals []types.Disposal
	Totals    Totals
	OpenLots  []types.Lot // pool remaining after the full history is allocated
	Warnings  []types.Warning
}

// New creates a lot matching engine.
func New(cfg Config) *Engine {
	return &Engine{
		config: cfg,
		better: orderingFor(cfg.Strategy),
		logger: cfg.Logger,
	}
}

// Allocate matches each sell against the open lot pool for its asset.
// Both inputs must be sorted ascending by time; buys include any
// externally supplied opening lots, which are subject to the same
// selection rules as ordinary buys.
//
// Allocation always runs over the full history; when TaxYear is set,
// only disposals whose sale falls in that calendar year are reported,
// but every sale still reduces the pool so later years see the correct
// remaining balance.
func (e *Engine) Allocate(sells, buys []types.NormalizedOrder) Result {
	start := time.Now()

	var res Result
	res.Totals = Totals{
		ProceedsUSD:  decimal.Zero,
		CostBasisUSD: decimal.Zero,
		GainUSD:      decimal.Zero,
	}

	pools := make(map[string][]*types.Lot)
	nextBuy := 0

	for _, sell := range sells {
		// Lots acquired up to and including the sale time are eligible.
		// Balancing legs share a timestamp with their primary leg, so
		// the bound is inclusive.
		for nextBuy < len(buys) && !buys[nextBuy].Time.After(sell.Time) {
			e.openLot(pools, buys[nextBuy])
			nextBuy++
		}

		e.allocateSell(pools, sell, &res)
	}

	for nextBuy < len(buys) {
		e.openLot(pools, buys[nextBuy])
		nextBuy++
	}

	for _, pool := range pools {
		for _, lot := range pool {
			res.OpenLots = append(res.OpenLots, *lot)
		}
	}

	AllocationDurationSeconds.Observe(time.Since(start).Seconds())
	e.logger.Info("allocation-complete",
		zap.String("strategy", e.config.Strategy.String()),
		zap.Int("tax-year", e.config.TaxYear),
		zap.Int("sells", len(sells)),
		zap.Int("disposals", len(res.Disposals)),
		zap.Int("open-lots", len(res.OpenLots)),
		zap.String("net-gain", res.Totals.GainUSD.StringFixed(2)))

	return res
}

func (e *Engine) openLot(pools map[string][]*types.Lot, buy types.NormalizedOrder) {
	if buy.Amount.LessThanOrEqual(epsilon) {
		return
	}
	pools[buy.Asset] = append(pools[buy.Asset], &types.Lot{
		Asset:       buy.Asset,
		AcquiredAt:  buy.Time,
		Remaining:   buy.Amount,
		UnitCostUSD: buy.PriceUSD,
	})
	LotsOpenedTotal.Inc()
}

func (e *Engine) allocateSell(pools map[string][]*types.Lot, sell types.NormalizedOrder, res *Result) {
	remaining := sell.Amount

	for remaining.GreaterThan(epsilon) {
		idx := e.bestLot(pools[sell.Asset])
		if idx < 0 {
			break
		}
		lot := pools[sell.Asset][idx]

		use := decimal.Min(remaining, lot.Remaining)
		proceeds := sell.PriceUSD.Mul(use).Round(types.USDPrecision)
		basis := lot.UnitCostUSD.Mul(use).Round(types.USDPrecision)

		d := types.Disposal{
			ID:           uuid.New().String(),
			Asset:        sell.Asset,
			SaleTime:     sell.Time,
			AcquiredAt:   lot.AcquiredAt,
			Amount:       use.Round(types.USDPrecision),
			ProceedsUSD:  proceeds,
			CostBasisUSD: basis,
			GainUSD:      proceeds.Sub(basis),
			LongTerm:     sell.Time.Sub(lot.AcquiredAt) >= longTermHolding,
		}
		e.emit(d, res)

		lot.Remaining = lot.Remaining.Sub(use)
		remaining = remaining.Sub(use)

		if lot.Remaining.LessThanOrEqual(epsilon) {
			// CLOSED: removed from the active pool, never reopened.
			pools[sell.Asset] = append(pools[sell.Asset][:idx], pools[sell.Asset][idx+1:]...)
			LotsClosedTotal.Inc()
		}
	}

	if remaining.GreaterThan(epsilon) {
		// Oversold or missing acquisition history: report the
		// remainder with zero basis rather than dropping it, so the
		// missing cost-basis data surfaces for manual correction.
		proceeds := sell.PriceUSD.Mul(remaining).Round(types.USDPrecision)
		d := types.Disposal{
			ID:          uuid.New().String(),
			Asset:       sell.Asset,
			SaleTime:    sell.Time,
			Amount:      remaining.Round(types.USDPrecision),
			ProceedsUSD: proceeds,
			GainUSD:     proceeds,
			Unverified:  true,
		}
		e.emit(d, res)

		UnmatchedDisposalsTotal.Inc()
		e.logger.Warn("unmatched-disposal",
			zap.String("asset", sell.Asset),
			zap.Time("sale-time", sell.Time),
			zap.String("amount", remaining.String()))
		res.Warnings = append(res.Warnings, types.Warning{
			Code:    types.WarnUnmatchedDisposal,
			Asset:   sell.Asset,
			Time:    sell.Time,
			Message: fmt.Sprintf("sold %s %s with no covering lot; cost basis recorded as zero", remaining.String(), sell.Asset),
		})
	}
}

// emit appends the disposal if it falls in the reported tax year and
// folds it into the aggregate totals.
func (e *Engine) emit(d types.Disposal, res *Result) {
	if e.config.TaxYear != 0 && d.SaleTime.Year() != e.config.TaxYear {
		return
	}

	res.Disposals = append(res.Disposals, d)
	res.Totals.ProceedsUSD = res.Totals.ProceedsUSD.Add(d.ProceedsUSD)
	res.Totals.CostBasisUSD = res.Totals.CostBasisUSD.Add(d.CostBasisUSD)
	res.Totals.GainUSD = res.Totals.GainUSD.Add(d.GainUSD)
	DisposalsEmittedTotal.Inc()
}

// bestLot returns the index of the lot to consume next per the active
// strategy, or -1 if the pool is empty.
func (e *Engine) bestLot(pool []*types.Lot) int {
	if len(pool) == 0 {
		return -1
	}
	best := 0
	for i := 1; i < len(pool); i++ {
		if e.better(pool[i], pool[best]) {
			best = i
		}
	}
	return best
}
