package normalize

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/klaxis/CryptoTaxes/pkg/types"
)

// PriceSource prices one unit of a currency in USD at a timestamp.
type PriceSource interface {
	USDPerUnit(ctx context.Context, currency string, ts time.Time) (decimal.Decimal, *types.Warning)
}

// assetAliases maps legacy tickers to their current symbol.
var assetAliases = map[string]string{
	"BCC": "BCH",
}

// Normalizer turns raw exchange fills into USD-denominated legs.
// A trade quoted in a non-USD currency produces two legs: the primary
// leg for the traded asset and a balancing leg for the quote currency
// with the side inverted (funding a buy consumes the quote asset;
// a sell's proceeds are received in it).
type Normalizer struct {
	prices PriceSource
	logger *zap.Logger
}

// Result holds the normalized legs routed by side, plus the warnings
// accumulated while normalizing.
type Result struct {
	Buys     []types.NormalizedOrder
	Sells    []types.NormalizedOrder
	Warnings []types.Warning
}

// New creates a normalizer backed by the given price source.
func New(prices PriceSource, logger *zap.Logger) *Normalizer {
	return &Normalizer{
		prices: prices,
		logger: logger,
	}
}

// Normalize converts raw orders to USD legs. Malformed records are
// dropped with a diagnostic, never fatal. Input order does not matter;
// sorting for lot matching is the caller's responsibility.
func (n *Normalizer) Normalize(ctx context.Context, orders []types.RawOrder) Result {
	var res Result

	for _, order := range orders {
		n.normalizeOne(ctx, order, &res)
	}

	n.logger.Info("orders-normalized",
		zap.Int("raw-orders", len(orders)),
		zap.Int("buys", len(res.Buys)),
		zap.Int("sells", len(res.Sells)),
		zap.Int("warnings", len(res.Warnings)))

	return res
}

func (n *Normalizer) normalizeOne(ctx context.Context, order types.RawOrder, res *Result) {
	side := types.Side(strings.ToLower(string(order.Side)))
	asset := strings.ToUpper(strings.TrimSpace(order.Asset))
	quote := strings.ToUpper(strings.TrimSpace(order.Quote))
	if quote == "" {
		quote = "USD"
	}
	if alias, ok := assetAliases[asset]; ok {
		asset = alias
	}

	if asset == "" || order.Time.IsZero() {
		OrdersDroppedTotal.WithLabelValues("malformed").Inc()
		n.logger.Warn("order-malformed", zap.Time("time", order.Time), zap.String("asset", order.Asset))
		res.Warnings = append(res.Warnings, types.Warning{
			Code:    types.WarnMalformedOrder,
			Asset:   order.Asset,
			Time:    order.Time,
			Message: "order failed shape validation and was skipped",
		})
		return
	}

	if !side.Valid() {
		OrdersDroppedTotal.WithLabelValues("unknown_side").Inc()
		n.logger.Warn("order-unknown-side",
			zap.String("asset", asset),
			zap.String("side", string(order.Side)))
		res.Warnings = append(res.Warnings, types.Warning{
			Code:    types.WarnUnknownSide,
			Asset:   asset,
			Time:    order.Time,
			Message: fmt.Sprintf("unknown order side %q", order.Side),
		})
		return
	}

	amount := order.Amount.Abs()
	costInQuote := order.Cost.Abs()

	// Fees are netted into cost only when denominated in the quote
	// currency: a buy's fee increases cost, a sell's fee reduces
	// proceeds. Fees in any other currency are surfaced, not netted.
	if order.Fee.IsPositive() {
		feeCur := strings.ToUpper(strings.TrimSpace(order.FeeCurrency))
		if feeCur == "" {
			feeCur = quote
		}
		if feeCur == quote {
			if side == types.SideBuy {
				costInQuote = costInQuote.Add(order.Fee)
			} else {
				costInQuote = costInQuote.Sub(order.Fee)
			}
		} else {
			FeesIgnoredTotal.Inc()
			res.Warnings = append(res.Warnings, types.Warning{
				Code:     types.WarnFeeIgnored,
				Asset:    asset,
				Currency: feeCur,
				Time:     order.Time,
				Message:  fmt.Sprintf("fee of %s %s not netted into cost basis", order.Fee.String(), feeCur),
			})
		}
	}

	usdPerQuote := decimal.NewFromInt(1)
	if quote != "USD" {
		var warn *types.Warning
		usdPerQuote, warn = n.prices.USDPerUnit(ctx, quote, order.Time)
		if warn != nil {
			warn.Asset = asset
			res.Warnings = append(res.Warnings, *warn)
			ZeroCostLegsTotal.Inc()
		}
	}

	costUSD := costInQuote.Mul(usdPerQuote)

	// Unit price is defined as zero for a zero amount.
	unitUSD := decimal.Zero
	if !amount.IsZero() {
		unitUSD = costUSD.Div(amount)
	}

	primary := types.NormalizedOrder{
		Time:     order.Time,
		Asset:    asset,
		Side:     side,
		CostUSD:  costUSD.Round(types.USDPrecision),
		Amount:   amount.Round(types.USDPrecision),
		PriceUSD: unitUSD.Round(types.USDPrecision),
		Currency: "USD",
	}
	res.route(primary)
	OrdersNormalizedTotal.Inc()

	if quote == "USD" {
		return
	}

	// Balancing leg: cost_in_quote units of the quote currency at
	// usd_per_quote, side inverted.
	balancing := types.NormalizedOrder{
		Time:     order.Time,
		Asset:    quote,
		Side:     side.Invert(),
		CostUSD:  costUSD.Round(types.USDPrecision),
		Amount:   costInQuote.Round(types.USDPrecision),
		PriceUSD: usdPerQuote.Round(types.USDPrecision),
		Currency: "USD",
	}
	res.route(balancing)
	BalancingLegsTotal.Inc()
}

func (r *Result) route(leg types.NormalizedOrder) {
	if leg.Side == types.SideBuy {
		r.Buys = append(r.Buys, leg)
	} else {
		r.Sells = append(r.Sells, leg)
	}
}
