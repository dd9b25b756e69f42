package lots

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/klaxis/CryptoTaxes/pkg/types"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(n int) time.Time {
	return time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func buy(asset string, ts time.Time, amount, unitUSD string) types.NormalizedOrder {
	a, p := d(amount), d(unitUSD)
	return types.NormalizedOrder{
		Time:     ts,
		Asset:    asset,
		Side:     types.SideBuy,
		CostUSD:  a.Mul(p),
		Amount:   a,
		PriceUSD: p,
		Currency: "USD",
	}
}

func sell(asset string, ts time.Time, amount, unitUSD string) types.NormalizedOrder {
	a, p := d(amount), d(unitUSD)
	return types.NormalizedOrder{
		Time:     ts,
		Asset:    asset,
		Side:     types.SideSell,
		CostUSD:  a.Mul(p),
		Amount:   a,
		PriceUSD: p,
		Currency: "USD",
	}
}

func newEngine(strategy types.Strategy, taxYear int) *Engine {
	return New(Config{Strategy: strategy, TaxYear: taxYear, Logger: zap.NewNop()})
}

func TestAllocate_HighestCostPreferred(t *testing.T) {
	engine := newEngine(types.StrategyHighestCost, 0)

	// Two lots: 1.0 BTC @ $10k, then 1.0 BTC @ $20k. Selling 1.5 BTC
	// for $22.5k must consume the $20k lot first.
	buys := []types.NormalizedOrder{
		buy("BTC", day(0), "1.0", "10000"),
		buy("BTC", day(30), "1.0", "20000"),
	}
	sells := []types.NormalizedOrder{
		sell("BTC", day(60), "1.5", "15000"),
	}

	res := engine.Allocate(sells, buys)

	require.Len(t, res.Disposals, 2)

	first := res.Disposals[0]
	assert.True(t, first.Amount.Equal(d("1.0")))
	assert.True(t, first.CostBasisUSD.Equal(d("20000")), "basis = %s", first.CostBasisUSD)
	assert.True(t, first.ProceedsUSD.Equal(d("15000")))
	assert.True(t, first.GainUSD.Equal(d("-5000")))
	assert.Equal(t, day(30), first.AcquiredAt)

	second := res.Disposals[1]
	assert.True(t, second.Amount.Equal(d("0.5")))
	assert.True(t, second.CostBasisUSD.Equal(d("5000")))
	assert.True(t, second.ProceedsUSD.Equal(d("7500")))
	assert.True(t, second.GainUSD.Equal(d("2500")))
	assert.Equal(t, day(0), second.AcquiredAt)

	assert.True(t, res.Totals.GainUSD.Equal(d("-2500")))
	assert.Empty(t, res.Warnings)

	// Half the cheap lot remains open.
	require.Len(t, res.OpenLots, 1)
	assert.True(t, res.OpenLots[0].Remaining.Equal(d("0.5")))
	assert.True(t, res.OpenLots[0].UnitCostUSD.Equal(d("10000")))
}

func TestAllocate_HighestCostTieBrokenByEarliestAcquisition(t *testing.T) {
	engine := newEngine(types.StrategyHighestCost, 0)

	buys := []types.NormalizedOrder{
		buy("BTC", day(10), "1.0", "10000"),
		buy("BTC", day(0), "1.0", "10000"),
	}
	sells := []types.NormalizedOrder{
		sell("BTC", day(60), "1.0", "12000"),
	}

	res := engine.Allocate(sells, buys)

	require.Len(t, res.Disposals, 1)
	assert.Equal(t, day(0), res.Disposals[0].AcquiredAt)
}

func TestAllocate_FIFO(t *testing.T) {
	engine := newEngine(types.StrategyFIFO, 0)

	buys := []types.NormalizedOrder{
		buy("BTC", day(0), "1.0", "10000"),
		buy("BTC", day(30), "1.0", "20000"),
	}
	sells := []types.NormalizedOrder{
		sell("BTC", day(60), "1.5", "15000"),
	}

	res := engine.Allocate(sells, buys)

	require.Len(t, res.Disposals, 2)
	assert.Equal(t, day(0), res.Disposals[0].AcquiredAt, "FIFO consumes the earliest lot first")
	assert.True(t, res.Disposals[0].CostBasisUSD.Equal(d("10000")))
	assert.Equal(t, day(30), res.Disposals[1].AcquiredAt)
	assert.True(t, res.Disposals[1].CostBasisUSD.Equal(d("10000")), "0.5 of the 20k lot")
}

func TestAllocate_OversoldEmitsUnverifiedDisposal(t *testing.T) {
	engine := newEngine(types.StrategyHighestCost, 0)

	buys := []types.NormalizedOrder{
		buy("BTC", day(0), "3.0", "10000"),
	}
	sells := []types.NormalizedOrder{
		sell("BTC", day(30), "5.0", "12000"),
	}

	res := engine.Allocate(sells, buys)

	require.Len(t, res.Disposals, 2)

	covered := res.Disposals[0]
	assert.True(t, covered.Amount.Equal(d("3.0")))
	assert.False(t, covered.Unverified)

	uncovered := res.Disposals[1]
	assert.True(t, uncovered.Amount.Equal(d("2.0")))
	assert.True(t, uncovered.Unverified)
	assert.True(t, uncovered.CostBasisUSD.IsZero(), "no covering lot means zero basis")
	assert.True(t, uncovered.ProceedsUSD.Equal(d("24000")))
	assert.True(t, uncovered.GainUSD.Equal(d("24000")))
	assert.True(t, uncovered.AcquiredAt.IsZero())

	require.Len(t, res.Warnings, 1)
	assert.Equal(t, types.WarnUnmatchedDisposal, res.Warnings[0].Code)
}

func TestAllocate_LotNotEligibleBeforeAcquisition(t *testing.T) {
	engine := newEngine(types.StrategyHighestCost, 0)

	// The only lot is acquired after the sale, so the sale is uncovered
	// even though the full history contains enough BTC.
	buys := []types.NormalizedOrder{
		buy("BTC", day(30), "1.0", "10000"),
	}
	sells := []types.NormalizedOrder{
		sell("BTC", day(0), "1.0", "12000"),
	}

	res := engine.Allocate(sells, buys)

	require.Len(t, res.Disposals, 1)
	assert.True(t, res.Disposals[0].Unverified)
	require.Len(t, res.OpenLots, 1)
	assert.True(t, res.OpenLots[0].Remaining.Equal(d("1.0")), "late lot stays open")
}

func TestAllocate_SameTimestampLotIsEligible(t *testing.T) {
	engine := newEngine(types.StrategyHighestCost, 0)

	// A balancing leg shares its timestamp with the primary leg that
	// produced it; the lot must be usable by a sale at the same instant.
	buys := []types.NormalizedOrder{
		buy("BTC", day(10), "0.5", "40000"),
	}
	sells := []types.NormalizedOrder{
		sell("BTC", day(10), "0.5", "40000"),
	}

	res := engine.Allocate(sells, buys)

	require.Len(t, res.Disposals, 1)
	assert.False(t, res.Disposals[0].Unverified)
	assert.True(t, res.Disposals[0].GainUSD.IsZero())
}

func TestAllocate_LongTermFlag(t *testing.T) {
	engine := newEngine(types.StrategyHighestCost, 0)

	buys := []types.NormalizedOrder{
		buy("BTC", day(0), "2.0", "10000"),
	}
	sells := []types.NormalizedOrder{
		sell("BTC", day(364), "1.0", "12000"),
		sell("BTC", day(366), "1.0", "12000"),
	}

	res := engine.Allocate(sells, buys)

	require.Len(t, res.Disposals, 2)
	assert.False(t, res.Disposals[0].LongTerm, "364 days is short term")
	assert.True(t, res.Disposals[1].LongTerm, "366 days is long term")
}

func TestAllocate_TaxYearFiltersEmissionNotConsumption(t *testing.T) {
	engine := newEngine(types.StrategyFIFO, 2022)

	buys := []types.NormalizedOrder{
		buy("BTC", day(0), "1.0", "10000"),  // 2021
		buy("BTC", day(30), "1.0", "30000"), // 2021
	}
	sells := []types.NormalizedOrder{
		sell("BTC", day(60), "1.0", "20000"),  // 2021: consumes the 10k lot
		sell("BTC", day(400), "1.0", "40000"), // 2022-02: must hit the 30k lot
	}

	res := engine.Allocate(sells, buys)

	// Only the 2022 disposal is reported, but the 2021 sale still
	// consumed the first lot.
	require.Len(t, res.Disposals, 1)
	assert.Equal(t, 2022, res.Disposals[0].SaleTime.Year())
	assert.True(t, res.Disposals[0].CostBasisUSD.Equal(d("30000")), "basis = %s", res.Disposals[0].CostBasisUSD)
	assert.True(t, res.Totals.GainUSD.Equal(d("10000")))
	assert.Empty(t, res.OpenLots)
}

func TestAllocate_AssetsDoNotCrossPools(t *testing.T) {
	engine := newEngine(types.StrategyHighestCost, 0)

	buys := []types.NormalizedOrder{
		buy("ETH", day(0), "10", "2000"),
	}
	sells := []types.NormalizedOrder{
		sell("BTC", day(30), "1.0", "50000"),
	}

	res := engine.Allocate(sells, buys)

	require.Len(t, res.Disposals, 1)
	assert.True(t, res.Disposals[0].Unverified, "an ETH lot cannot cover a BTC sale")
	require.Len(t, res.OpenLots, 1)
	assert.Equal(t, "ETH", res.OpenLots[0].Asset)
}

func TestAllocate_AmountConservation(t *testing.T) {
	engine := newEngine(types.StrategyHighestCost, 0)

	buys := []types.NormalizedOrder{
		buy("BTC", day(0), "1.3", "10000"),
		buy("BTC", day(10), "0.7", "15000"),
		buy("BTC", day(20), "2.0", "8000"),
	}
	sells := []types.NormalizedOrder{
		sell("BTC", day(30), "1.1", "20000"),
		sell("BTC", day(40), "2.2", "9000"),
	}

	res := engine.Allocate(sells, buys)

	disposed := decimal.Zero
	for _, disp := range res.Disposals {
		disposed = disposed.Add(disp.Amount)
	}
	assert.True(t, disposed.Equal(d("3.3")), "disposed %s, want total sold", disposed)

	open := decimal.Zero
	for _, lot := range res.OpenLots {
		open = open.Add(lot.Remaining)
	}
	assert.True(t, open.Equal(d("0.7")), "open %s, want bought minus sold", open)
}

func TestAllocate_DisposalsCarryUniqueIDs(t *testing.T) {
	engine := newEngine(types.StrategyHighestCost, 0)

	buys := []types.NormalizedOrder{
		buy("BTC", day(0), "1.0", "10000"),
		buy("BTC", day(10), "1.0", "11000"),
	}
	sells := []types.NormalizedOrder{
		sell("BTC", day(30), "2.0", "12000"),
	}

	res := engine.Allocate(sells, buys)

	require.Len(t, res.Disposals, 2)
	assert.NotEmpty(t, res.Disposals[0].ID)
	assert.NotEqual(t, res.Disposals[0].ID, res.Disposals[1].ID)
}

func TestOrderingFor(t *testing.T) {
	cheapOld := &types.Lot{AcquiredAt: day(0), UnitCostUSD: d("10")}
	cheapNew := &types.Lot{AcquiredAt: day(10), UnitCostUSD: d("10")}
	dearNew := &types.Lot{AcquiredAt: day(10), UnitCostUSD: d("20")}

	highest := orderingFor(types.StrategyHighestCost)
	assert.True(t, highest(dearNew, cheapOld), "higher unit cost wins")
	assert.False(t, highest(cheapOld, dearNew))
	assert.True(t, highest(cheapOld, cheapNew), "cost tie falls back to earliest acquisition")

	fifo := orderingFor(types.StrategyFIFO)
	assert.True(t, fifo(cheapOld, dearNew), "FIFO ignores cost")
	assert.False(t, fifo(dearNew, cheapOld))
}
