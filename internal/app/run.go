package app

import (
	"context"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/klaxis/CryptoTaxes/internal/ingest"
	"github.com/klaxis/CryptoTaxes/internal/report"
	"github.com/klaxis/CryptoTaxes/pkg/types"
)

// Run executes the pipeline: ingest, normalize, allocate, report.
func (a *App) Run(ctx context.Context) error {
	if a.httpServer != nil {
		go func() {
			err := a.httpServer.Start()
			if err != nil {
				a.logger.Error("http-server-failed", zap.Error(err))
			}
		}()
	}
	defer a.Shutdown()

	var warnings []types.Warning

	rawOrders, ingestWarnings, err := a.reader.ReadTrades(a.opts.TradesFile)
	if err != nil {
		return fmt.Errorf("read trades: %w", err)
	}
	warnings = append(warnings, ingestWarnings...)

	var openingLots []types.NormalizedOrder
	if a.opts.CostBasisFile != "" {
		openingLots, err = ingest.ReadOpeningLots(a.opts.CostBasisFile, a.logger)
		if err != nil {
			return fmt.Errorf("read opening lots: %w", err)
		}
	}

	a.healthChecker.SetReady(true)

	result := a.normalizer.Normalize(ctx, rawOrders)
	warnings = append(warnings, result.Warnings...)

	buys := result.Buys
	if a.opts.StartYear != 0 {
		buys = a.filterStartYearBuys(buys)
	}
	buys = append(buys, openingLots...)
	sells := result.Sells
	sort.SliceStable(buys, func(i, j int) bool { return buys[i].Time.Before(buys[j].Time) })
	sort.SliceStable(sells, func(i, j int) bool { return sells[i].Time.Before(sells[j].Time) })

	allocation := a.engine.Allocate(sells, buys)
	warnings = append(warnings, allocation.Warnings...)

	for _, d := range allocation.Disposals {
		err := a.store.StoreDisposal(ctx, &d)
		if err != nil {
			return fmt.Errorf("store disposal: %w", err)
		}
	}

	summary := report.Summarize(allocation.Disposals)
	summary.Print(os.Stdout)
	summary.Log(a.logger)

	a.reportWarnings(warnings)

	if a.opts.TurboTax {
		path := a.txfPath()
		err := report.ExportTXF(path, allocation.Disposals)
		if err != nil {
			return fmt.Errorf("export txf: %w", err)
		}
		a.logger.Info("txf-exported", zap.String("path", path), zap.Int("disposals", len(allocation.Disposals)))
	}

	if a.opts.CSVFile != "" {
		err := report.ExportCSV(a.opts.CSVFile, allocation.Disposals)
		if err != nil {
			return fmt.Errorf("export csv: %w", err)
		}
		a.logger.Info("csv-exported", zap.String("path", a.opts.CSVFile), zap.Int("disposals", len(allocation.Disposals)))
	}

	return nil
}

// filterStartYearBuys drops buy legs that predate the configured first
// year. Sells before the cutoff stay in the run so they still consume
// opening lots; only the buy pool is truncated. Opening lots supplied
// via the cost-basis file are appended after this filter and are never
// dropped.
func (a *App) filterStartYearBuys(buys []types.NormalizedOrder) []types.NormalizedOrder {
	kept := buys[:0]
	for _, b := range buys {
		if b.Time.Year() >= a.opts.StartYear {
			kept = append(kept, b)
		}
	}
	a.logger.Info("start-year-filter-applied",
		zap.Int("start-year", a.opts.StartYear),
		zap.Int("kept", len(kept)),
		zap.Int("dropped", len(buys)-len(kept)))
	return kept
}

// reportWarnings surfaces every accumulated warning at the end of the
// run, after the summary, so they are the last thing on screen.
func (a *App) reportWarnings(warnings []types.Warning) {
	if len(warnings) == 0 {
		return
	}

	fmt.Printf("\n%d warning(s):\n", len(warnings))
	for _, w := range warnings {
		fmt.Printf("  [%s] %s\n", w.Code, w.Message)
	}

	a.logger.Warn("run-completed-with-warnings", zap.Int("count", len(warnings)))
}

func (a *App) txfPath() string {
	if a.opts.TaxYear != 0 {
		return fmt.Sprintf("cryptotaxes_%d.txf", a.opts.TaxYear)
	}
	return "cryptotaxes.txf"
}
