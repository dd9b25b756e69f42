package types

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Lot is an open acquisition: a quantity of an asset acquired at a
// specific time and unit cost, not yet fully sold. Remaining is
// decremented as sells consume it; the lot is removed from the active
// pool when Remaining reaches zero and is never reopened.
type Lot struct {
	Asset       string
	AcquiredAt  time.Time
	Remaining   decimal.Decimal
	UnitCostUSD decimal.Decimal
}

// Disposal records selling some quantity against one specific lot.
// GainUSD = ProceedsUSD - CostBasisUSD. A single sell order may be
// represented by multiple disposals if it consumes multiple lots.
// Immutable once emitted.
type Disposal struct {
	ID           string
	Asset        string
	SaleTime     time.Time
	AcquiredAt   time.Time // zero for unverified disposals
	Amount       decimal.Decimal
	ProceedsUSD  decimal.Decimal
	CostBasisUSD decimal.Decimal
	GainUSD      decimal.Decimal
	LongTerm     bool // held for 365 days or more
	Unverified   bool // no covering lot; cost basis is zero and needs manual review
}

// String returns a human-readable representation of the disposal.
func (d *Disposal) String() string {
	flag := ""
	if d.Unverified {
		flag = " UNVERIFIED"
	}
	return fmt.Sprintf("Disposal[%s] %s %s sold %s proceeds=$%s basis=$%s gain=$%s%s",
		shortID(d.ID),
		d.Asset,
		d.Amount.String(),
		d.SaleTime.Format("2006-01-02"),
		d.ProceedsUSD.StringFixed(2),
		d.CostBasisUSD.StringFixed(2),
		d.GainUSD.StringFixed(2),
		flag,
	)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
