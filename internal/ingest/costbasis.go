package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/klaxis/CryptoTaxes/pkg/types"
)

// ReadOpeningLots parses a cost-basis file holding positions acquired
// outside the trade history, one lot per row: time,asset,amount,cost_usd.
// A header row is optional. Unlike trade ingestion, any malformed row is
// fatal: opening lots anchor every downstream basis calculation, so a
// silently dropped lot would corrupt the whole report.
func ReadOpeningLots(path string, logger *zap.Logger) ([]types.NormalizedOrder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cost basis file: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read cost basis file: %w", err)
	}

	var lots []types.NormalizedOrder
	for i, row := range rows {
		if i == 0 && isOpeningLotHeader(row) {
			continue
		}
		if len(row) < 4 {
			return nil, fmt.Errorf("cost basis row %d: want time,asset,amount,cost_usd, got %d fields", i+1, len(row))
		}

		ts, err := parseTimestamp(row[0])
		if err != nil {
			return nil, fmt.Errorf("cost basis row %d: %w", i+1, err)
		}
		asset := strings.ToUpper(strings.TrimSpace(row[1]))
		if asset == "" {
			return nil, fmt.Errorf("cost basis row %d: empty asset", i+1)
		}
		amount, err := parseDecimal(row[2])
		if err != nil {
			return nil, fmt.Errorf("cost basis row %d amount: %w", i+1, err)
		}
		costUSD, err := parseDecimal(row[3])
		if err != nil {
			return nil, fmt.Errorf("cost basis row %d cost_usd: %w", i+1, err)
		}
		if amount.IsZero() {
			return nil, fmt.Errorf("cost basis row %d: zero amount", i+1)
		}

		lots = append(lots, types.NormalizedOrder{
			Time:     ts,
			Asset:    asset,
			Side:     types.SideBuy,
			CostUSD:  costUSD.Round(types.USDPrecision),
			Amount:   amount.Abs().Round(types.USDPrecision),
			PriceUSD: costUSD.Div(amount.Abs()).Round(types.USDPrecision),
			Currency: "USD",
		})
	}

	logger.Info("opening-lots-loaded",
		zap.String("path", path),
		zap.Int("lots", len(lots)))

	return lots, nil
}

func isOpeningLotHeader(row []string) bool {
	if len(row) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(row[0]))
	return first == "time" || first == "timestamp" || first == "date"
}
