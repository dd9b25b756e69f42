package ingest

import (
	"os"
	"path/filepath"
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

func writeLotsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "costbasis.csv")
	err := os.WriteFile(path, []byte(content), 0o600)
	require.NoError(t, err)
	return path
}

func TestReadOpeningLots(t *testing.T) {
	path := writeLotsFile(t, `time,asset,amount,cost_usd
2019-07-01,btc,2.0,16000
2020-01-15T08:00:00Z,ETH,10,1300
`)

	lots, err := ReadOpeningLots(path, zap.NewNop())

	require.NoError(t, err)
	require.Len(t, lots, 2)

	first := lots[0]
	assert.Equal(t, time.Date(2019, 7, 1, 0, 0, 0, 0, time.UTC), first.Time)
	assert.Equal(t, "BTC", first.Asset)
	assert.Equal(t, types.SideBuy, first.Side, "opening lots behave as buys")
	assert.True(t, first.Amount.Equal(d("2.0")))
	assert.True(t, first.CostUSD.Equal(d("16000")))
	assert.True(t, first.PriceUSD.Equal(d("8000")), "unit cost derived from total")

	second := lots[1]
	assert.True(t, second.PriceUSD.Equal(d("130")))
}

func TestReadOpeningLots_HeaderOptional(t *testing.T) {
	path := writeLotsFile(t, "2019-07-01,BTC,1.0,8000\n")

	lots, err := ReadOpeningLots(path, zap.NewNop())

	require.NoError(t, err)
	require.Len(t, lots, 1)
}

func TestReadOpeningLots_MalformedRowIsFatal(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad_time", "never,BTC,1.0,8000\n"},
		{"bad_amount", "2019-07-01,BTC,lots,8000\n"},
		{"zero_amount", "2019-07-01,BTC,0,8000\n"},
		{"empty_asset", "2019-07-01,,1.0,8000\n"},
		{"missing_fields", "2019-07-01,BTC,1.0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeLotsFile(t, tt.content)
			_, err := ReadOpeningLots(path, zap.NewNop())
			require.Error(t, err)
		})
	}
}

func TestReadOpeningLots_MissingFileIsFatal(t *testing.T) {
	_, err := ReadOpeningLots(filepath.Join(t.TempDir(), "nope.csv"), zap.NewNop())
	require.Error(t, err)
}
