package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of a trade from the account's perspective.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Valid reports whether the side is one of the two known values.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Invert flips buy to sell and vice versa. Used for balancing legs.
func (s Side) Invert() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// RawOrder is an exchange-reported fill as produced by ingestion.
// Cost, Amount and Price are denominated in the Quote currency.
// Immutable once emitted.
type RawOrder struct {
	Time        time.Time
	Asset       string
	Side        Side
	Cost        decimal.Decimal // total cost in quote currency
	Amount      decimal.Decimal // base asset quantity
	Price       decimal.Decimal // quote per unit of base
	Quote       string          // quote currency code, e.g. "USD", "BTC"
	Fee         decimal.Decimal
	FeeCurrency string
}

// NormalizedOrder is a USD-denominated leg of a trade.
// Currency is always "USD"; CostUSD ~= Amount * PriceUSD within
// rounding tolerance (10 decimal places).
type NormalizedOrder struct {
	Time     time.Time
	Asset    string
	Side     Side
	CostUSD  decimal.Decimal
	Amount   decimal.Decimal
	PriceUSD decimal.Decimal
	Currency string
}

// PriceQuote is a resolved USD price for a currency at a timestamp.
type PriceQuote struct {
	Currency   string
	Timestamp  time.Time
	USDPerUnit decimal.Decimal
}

// USDPrecision is the number of decimal places all USD-denominated
// fields are rounded to. Stabilizes downstream equality comparisons.
const USDPrecision = 10
