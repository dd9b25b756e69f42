package types

import "time"

// WarningCode classifies a recoverable pipeline condition.
type WarningCode string

const (
	// WarnMalformedOrder marks a raw order that failed shape validation
	// and was skipped.
	WarnMalformedOrder WarningCode = "malformed_order"

	// WarnUnknownSide marks a raw order whose side is neither buy nor
	// sell.
	WarnUnknownSide WarningCode = "unknown_side"

	// WarnUnpricedCurrency marks a currency the price resolver could
	// not value at the requested time. The affected leg is priced at
	// zero and needs manual review.
	WarnUnpricedCurrency WarningCode = "unpriced_currency"

	// WarnFeeIgnored marks a fee denominated in a currency other than
	// the trade's quote currency. Such fees are not netted into cost
	// basis, which under-counts basis for the trade.
	WarnFeeIgnored WarningCode = "fee_ignored"

	// WarnUnmatchedDisposal marks a sell with no covering lot. The
	// disposal is emitted with zero cost basis and the Unverified flag.
	WarnUnmatchedDisposal WarningCode = "unmatched_disposal"
)

// Warning is a recoverable condition surfaced as data rather than a
// failure. The pipeline favors producing a best-effort, auditable
// result over aborting.
type Warning struct {
	Code     WarningCode
	Asset    string
	Currency string
	Time     time.Time
	Message  string
}
