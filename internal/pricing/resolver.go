package pricing

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/klaxis/CryptoTaxes/pkg/cache"
	"github.com/klaxis/CryptoTaxes/pkg/types"
)

// Timeframes is the granularity ladder, finest first. Resolution walks
// the ladder until a candle series yields a usable price.
var Timeframes = []string{"1m", "5m", "15m", "30m", "1hr", "6hr", "1day"}

// seriesTTL bounds how long a fetched candle series stays cached.
// A series is fetched at most once per resolution run regardless.
const seriesTTL = 24 * time.Hour

// stablecoins are priced against their USD market when candles exist,
// and default to par (1.0) otherwise.
var stablecoins = map[string]bool{
	"USDC": true,
	"USDT": true,
	"GUSD": true,
	"DAI":  true,
	"BUSD": true,
	"PAX":  true,
}

// CandleSource fetches candle series and live quotes.
type CandleSource interface {
	FetchCandles(ctx context.Context, symbol, timeframe string) ([]Candle, error)
	FetchLastPrice(ctx context.Context, symbol string) (float64, error)
}

// Resolver prices an arbitrary currency in USD at an arbitrary
// timestamp, using an ordered fallback chain over the granularity
// ladder. It never fails for an unpriceable currency: the result is
// zero plus a warning so the affected trade surfaces for review.
type Resolver struct {
	source CandleSource
	cache  cache.Cache
	logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	memo  map[string][]Candle
}

// NewResolver creates a price resolver. The cache is scoped to one
// resolution run (or explicitly cleared by the owner).
func NewResolver(source CandleSource, c cache.Cache, logger *zap.Logger) *Resolver {
	return &Resolver{
		source: source,
		cache:  c,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
		memo:   make(map[string][]Candle),
	}
}

// USDPerUnit returns the USD value of one unit of currency at the
// given timestamp. A nil warning means the price is trustworthy; a
// non-nil warning accompanies a zero price.
//
// Fallback order: USD itself, stablecoins, BTC, direct {currency}USD
// candles, {currency}BTC bridged through BTC/USD.
func (r *Resolver) USDPerUnit(ctx context.Context, currency string, ts time.Time) (decimal.Decimal, *types.Warning) {
	cur := strings.ToUpper(strings.TrimSpace(currency))

	if cur == "USD" {
		return decimal.NewFromInt(1), nil
	}

	PriceLookupsTotal.Inc()

	if stablecoins[cur] {
		if p := r.ladder(ctx, usdSymbol(cur), ts); p > 0 {
			PriceResolvedTotal.WithLabelValues("stablecoin_candles").Inc()
			return decimal.NewFromFloat(p), nil
		}
		PriceResolvedTotal.WithLabelValues("stablecoin_par").Inc()
		return decimal.NewFromInt(1), nil
	}

	if cur == "BTC" {
		if p := r.btcUSD(ctx, ts); p > 0 {
			return decimal.NewFromFloat(p), nil
		}
		return decimal.Zero, r.unpriced(cur, ts)
	}

	if p := r.ladder(ctx, usdSymbol(cur), ts); p > 0 {
		PriceResolvedTotal.WithLabelValues("direct").Inc()
		return decimal.NewFromFloat(p), nil
	}

	// Bridge: quote-in-BTC x BTC-in-USD = quote-in-USD.
	if inBTC := r.ladder(ctx, btcSymbol(cur), ts); inBTC > 0 {
		if btc := r.btcUSD(ctx, ts); btc > 0 {
			PriceResolvedTotal.WithLabelValues("btc_bridge").Inc()
			return decimal.NewFromFloat(inBTC * btc), nil
		}
	}

	return decimal.Zero, r.unpriced(cur, ts)
}

// btcUSD prices BTC via the granularity ladder, falling back to the
// current live quote rather than failing outright.
func (r *Resolver) btcUSD(ctx context.Context, ts time.Time) float64 {
	if p := r.ladder(ctx, "btcusd", ts); p > 0 {
		PriceResolvedTotal.WithLabelValues("btc_candles").Inc()
		return p
	}

	last, err := r.source.FetchLastPrice(ctx, "btcusd")
	if err != nil {
		r.logger.Warn("btc-live-quote-failed", zap.Error(err))
		return 0
	}
	if last > 0 {
		LiveQuoteFallbacksTotal.Inc()
		PriceResolvedTotal.WithLabelValues("btc_live").Inc()
	}
	return last
}

// ladder walks the granularity ladder for one symbol and returns the
// first strictly-positive close found nearest the timestamp.
func (r *Resolver) ladder(ctx context.Context, symbol string, ts time.Time) float64 {
	for _, tf := range Timeframes {
		candles := r.series(ctx, symbol, tf)
		if p := nearestClose(candles, ts); p > 0 {
			return p
		}
	}
	return 0
}

// series returns the cached candle series for (symbol, timeframe),
// fetching it at most once per run. A failed fetch is memoized as an
// empty series so the caller advances to the next tier instead of
// re-fetching per queried timestamp.
func (r *Resolver) series(ctx context.Context, symbol, timeframe string) []Candle {
	key := fmt.Sprintf("candles:%s:%s", symbol, timeframe)

	lock := r.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	if v, ok := r.cache.Get(key); ok {
		if s, ok := v.([]Candle); ok {
			return s
		}
	}

	// Ristretto admission is probabilistic and its writes are buffered;
	// the memo pins the at-most-once-fetch-per-key guarantee.
	r.mu.Lock()
	s, ok := r.memo[key]
	r.mu.Unlock()
	if ok {
		return s
	}

	candles, err := r.source.FetchCandles(ctx, symbol, timeframe)
	if err != nil {
		CandleFetchErrorsTotal.Inc()
		r.logger.Warn("candle-fetch-failed",
			zap.String("symbol", symbol),
			zap.String("timeframe", timeframe),
			zap.Error(err))
		candles = nil
	}

	r.mu.Lock()
	r.memo[key] = candles
	r.mu.Unlock()
	r.cache.Set(key, candles, seriesTTL)

	return candles
}

func (r *Resolver) keyLock(key string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[key] = lock
	}
	return lock
}

func (r *Resolver) unpriced(currency string, ts time.Time) *types.Warning {
	PriceUnresolvedTotal.Inc()
	r.logger.Warn("currency-unpriced",
		zap.String("currency", currency),
		zap.Time("timestamp", ts))
	return &types.Warning{
		Code:     types.WarnUnpricedCurrency,
		Currency: currency,
		Time:     ts,
		Message:  fmt.Sprintf("could not value %s at %s; using 0.0, review this trade", currency, ts.Format(time.RFC3339)),
	}
}

// nearestClose selects the candle whose timestamp is numerically
// closest to ts (ties broken by first-seen order) and returns its
// close. An empty series yields 0, treated as "not found".
func nearestClose(candles []Candle, ts time.Time) float64 {
	if len(candles) == 0 {
		return 0
	}

	best := 0
	bestDist := math.Abs(float64(candles[0].Time.Sub(ts)))
	for i := 1; i < len(candles); i++ {
		dist := math.Abs(float64(candles[i].Time.Sub(ts)))
		if dist < bestDist {
			best = i
			bestDist = dist
		}
	}

	return candles[best].Close
}

func usdSymbol(currency string) string {
	return strings.ToLower(currency) + "usd"
}

func btcSymbol(currency string) string {
	return strings.ToLower(currency) + "btc"
}
