package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/klaxis/CryptoTaxes/pkg/types"
)

// quoteSuffixes are the quote currencies a trading symbol may end in,
// longest first so "PAXUSDT" splits as PAX/USDT and not PAXUSD/T.
var quoteSuffixes = []string{
	"USDT", "USDC", "GUSD", "BUSD", "USD", "DAI", "PAX", "BTC", "ETH", "EUR", "GBP",
}

// nonTradeRows are row types that appear in trade-history exports but
// are not fills (handled by the transfers export, not here).
var nonTradeRows = map[string]bool{
	"deposit":    true,
	"withdrawal": true,
	"rebate":     true,
	"credit":     true,
	"debit":      true,
	"fee":        true,
}

// TradeReader parses exchange trade-history CSV exports into raw
// orders. Malformed rows are skipped with a warning; only an unreadable
// file is fatal.
type TradeReader struct {
	logger *zap.Logger
}

// NewTradeReader creates a trade-history CSV reader.
func NewTradeReader(logger *zap.Logger) *TradeReader {
	return &TradeReader{logger: logger}
}

// ReadTrades reads the CSV at path. Columns are matched by header name
// (Timestamp, Type, Symbol, Amount, Price, Fee, Fee Currency), so
// column order and extra columns do not matter.
func (r *TradeReader) ReadTrades(path string) ([]types.RawOrder, []types.Warning, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open trades file: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read trades header: %w", err)
	}
	cols := headerIndex(header)
	if _, ok := cols["symbol"]; !ok {
		return nil, nil, fmt.Errorf("trades file %s has no Symbol column", path)
	}

	var (
		orders   []types.RawOrder
		warnings []types.Warning
		line     = 1
	)
	for {
		row, err := cr.Read()
		if err != nil {
			break
		}
		line++
		RowsReadTotal.Inc()

		order, skip, warn := r.parseRow(cols, row, line)
		if warn != nil {
			warnings = append(warnings, *warn)
			continue
		}
		if skip {
			continue
		}
		orders = append(orders, order)
	}

	r.logger.Info("trades-loaded",
		zap.String("path", path),
		zap.Int("orders", len(orders)),
		zap.Int("skipped", line-1-len(orders)))

	return orders, warnings, nil
}

func (r *TradeReader) parseRow(cols map[string]int, row []string, line int) (types.RawOrder, bool, *types.Warning) {
	field := func(names ...string) string {
		for _, name := range names {
			if idx, ok := cols[name]; ok && idx < len(row) {
				return strings.TrimSpace(row[idx])
			}
		}
		return ""
	}

	rowType := strings.ToLower(field("type", "side"))
	rowType = strings.TrimPrefix(rowType, "margin ")
	if nonTradeRows[rowType] || rowType == "" {
		RowsSkippedTotal.WithLabelValues("non_trade").Inc()
		return types.RawOrder{}, true, nil
	}

	ts, err := parseTimestamp(field("timestamp", "date", "time"))
	if err != nil {
		return r.malformed(line, err)
	}
	base, quote := splitSymbol(field("symbol"))
	amount, err := parseDecimal(field("amount"))
	if err != nil {
		return r.malformed(line, fmt.Errorf("amount: %w", err))
	}
	price, err := parseDecimal(field("price"))
	if err != nil {
		return r.malformed(line, fmt.Errorf("price: %w", err))
	}
	fee := decimal.Zero
	if s := field("fee"); s != "" {
		if fee, err = parseDecimal(s); err != nil {
			return r.malformed(line, fmt.Errorf("fee: %w", err))
		}
	}

	order := types.RawOrder{
		Time:        ts,
		Asset:       base,
		Side:        types.Side(rowType),
		Cost:        amount.Abs().Mul(price),
		Amount:      amount,
		Price:       price,
		Quote:       quote,
		Fee:         fee.Abs(),
		FeeCurrency: strings.ToUpper(field("fee currency", "feecurrency")),
	}
	return order, false, nil
}

func (r *TradeReader) malformed(line int, err error) (types.RawOrder, bool, *types.Warning) {
	RowsSkippedTotal.WithLabelValues("malformed").Inc()
	r.logger.Warn("trade-row-malformed", zap.Int("line", line), zap.Error(err))
	return types.RawOrder{}, true, &types.Warning{
		Code:    types.WarnMalformedOrder,
		Message: fmt.Sprintf("trades row %d skipped: %v", line, err),
	}
}

// headerIndex maps lowercased header names to column positions.
func headerIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF")))] = i
	}
	return cols
}

// splitSymbol splits a trading symbol like "ethbtc" or "BTCUSD" into
// base and quote. Unknown suffixes fall back to a USD quote.
func splitSymbol(symbol string) (base, quote string) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, "/", "")
	for _, q := range quoteSuffixes {
		if len(s) > len(q) && strings.HasSuffix(s, q) {
			return s[:len(s)-len(q)], q
		}
	}
	return s, "USD"
}

// timestampLayouts cover the formats seen across exchange exports.
var timestampLayouts = []string{
	"2006-01-02 15:04:05 MST",
	"2006-01-02T15:04:05Z",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	// Numeric epoch, seconds or milliseconds.
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		if v > 10_000_000_000 {
			return time.UnixMilli(v).UTC(), nil
		}
		return time.Unix(v, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty value")
	}
	return decimal.NewFromString(s)
}
