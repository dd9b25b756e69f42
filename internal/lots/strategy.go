package lots

import "github.com/klaxis/CryptoTaxes/pkg/types"

// lotOrdering reports whether lot a should be consumed before lot b.
// The engine is strategy-agnostic; strategies plug in through this
// comparison alone.
type lotOrdering func(a, b *types.Lot) bool

func orderingFor(s types.Strategy) lotOrdering {
	switch s {
	case types.StrategyFIFO:
		return func(a, b *types.Lot) bool {
			return a.AcquiredAt.Before(b.AcquiredAt)
		}
	default:
		// Highest unit cost first, minimizing reported gain.
		// Ties broken by earliest acquisition.
		return func(a, b *types.Lot) bool {
			if !a.UnitCostUSD.Equal(b.UnitCostUSD) {
				return a.UnitCostUSD.GreaterThan(b.UnitCostUSD)
			}
			return a.AcquiredAt.Before(b.AcquiredAt)
		}
	}
}
