package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/klaxis/CryptoTaxes/pkg/types"
)

// AssetSummary aggregates the disposals of a single asset.
type AssetSummary struct {
	Asset        string
	Disposals    int
	AmountSold   decimal.Decimal
	ProceedsUSD  decimal.Decimal
	CostBasisUSD decimal.Decimal
	GainUSD      decimal.Decimal
}

// Summary is the aggregate view of a reporting run.
type Summary struct {
	Assets        []AssetSummary
	ProceedsUSD   decimal.Decimal
	CostBasisUSD  decimal.Decimal
	GainUSD       decimal.Decimal
	ShortTermGain decimal.Decimal
	LongTermGain  decimal.Decimal
	Unverified    int
}

// Summarize folds disposals into per-asset and overall totals.
func Summarize(disposals []types.Disposal) Summary {
	s := Summary{
		ProceedsUSD:   decimal.Zero,
		CostBasisUSD:  decimal.Zero,
		GainUSD:       decimal.Zero,
		ShortTermGain: decimal.Zero,
		LongTermGain:  decimal.Zero,
	}

	byAsset := make(map[string]*AssetSummary)
	for _, d := range disposals {
		a, ok := byAsset[d.Asset]
		if !ok {
			a = &AssetSummary{
				Asset:        d.Asset,
				AmountSold:   decimal.Zero,
				ProceedsUSD:  decimal.Zero,
				CostBasisUSD: decimal.Zero,
				GainUSD:      decimal.Zero,
			}
			byAsset[d.Asset] = a
		}
		a.Disposals++
		a.AmountSold = a.AmountSold.Add(d.Amount)
		a.ProceedsUSD = a.ProceedsUSD.Add(d.ProceedsUSD)
		a.CostBasisUSD = a.CostBasisUSD.Add(d.CostBasisUSD)
		a.GainUSD = a.GainUSD.Add(d.GainUSD)

		s.ProceedsUSD = s.ProceedsUSD.Add(d.ProceedsUSD)
		s.CostBasisUSD = s.CostBasisUSD.Add(d.CostBasisUSD)
		s.GainUSD = s.GainUSD.Add(d.GainUSD)
		if d.LongTerm {
			s.LongTermGain = s.LongTermGain.Add(d.GainUSD)
		} else {
			s.ShortTermGain = s.ShortTermGain.Add(d.GainUSD)
		}
		if d.Unverified {
			s.Unverified++
		}
	}

	for _, a := range byAsset {
		s.Assets = append(s.Assets, *a)
	}
	sort.Slice(s.Assets, func(i, j int) bool {
		return s.Assets[i].Asset < s.Assets[j].Asset
	})

	return s
}

// Print writes a human-readable summary table.
func (s Summary) Print(w io.Writer) {
	sep := "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"
	fmt.Fprintln(w, "\n"+sep)
	fmt.Fprintln(w, "CAPITAL GAINS SUMMARY")
	fmt.Fprintln(w, sep)
	fmt.Fprintf(w, "%-8s %10s %16s %16s %16s\n", "ASSET", "DISPOSALS", "PROCEEDS", "COST BASIS", "GAIN")
	for _, a := range s.Assets {
		fmt.Fprintf(w, "%-8s %10d %16s %16s %16s\n",
			a.Asset, a.Disposals,
			a.ProceedsUSD.StringFixed(2),
			a.CostBasisUSD.StringFixed(2),
			a.GainUSD.StringFixed(2))
	}
	fmt.Fprintln(w, sep)
	fmt.Fprintf(w, "Net proceeds:     $%s\n", s.ProceedsUSD.StringFixed(2))
	fmt.Fprintf(w, "Net cost basis:   $%s\n", s.CostBasisUSD.StringFixed(2))
	fmt.Fprintf(w, "Net gain:         $%s\n", s.GainUSD.StringFixed(2))
	fmt.Fprintf(w, "  Short-term:     $%s\n", s.ShortTermGain.StringFixed(2))
	fmt.Fprintf(w, "  Long-term:      $%s\n", s.LongTermGain.StringFixed(2))
	if s.Unverified > 0 {
		fmt.Fprintf(w, "Unverified disposals (no covering lot): %d\n", s.Unverified)
	}
	fmt.Fprintln(w, sep)
}

// Log emits the summary as a structured event.
func (s Summary) Log(logger *zap.Logger) {
	logger.Info("summary-computed",
		zap.Int("assets", len(s.Assets)),
		zap.String("proceeds", s.ProceedsUSD.StringFixed(2)),
		zap.String("cost-basis", s.CostBasisUSD.StringFixed(2)),
		zap.String("gain", s.GainUSD.StringFixed(2)),
		zap.String("short-term-gain", s.ShortTermGain.StringFixed(2)),
		zap.String("long-term-gain", s.LongTermGain.StringFixed(2)),
		zap.Int("unverified", s.Unverified))
}
