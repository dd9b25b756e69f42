package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/klaxis/CryptoTaxes/internal/app"
	"github.com/klaxis/CryptoTaxes/pkg/config"
	"github.com/klaxis/CryptoTaxes/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var calculateCmd = &cobra.Command{
	Use:   "calculate",
	Short: "Calculate capital gains from a trade history export",
	Long: `Runs the full pipeline over a trade-history CSV export:
1. Parse trades (malformed rows are skipped with a warning)
2. Normalize each trade to USD legs, pricing non-USD quotes through
   historical candles
3. Match sells against acquisition lots under the chosen strategy
4. Report per-disposal gains plus summary totals

Opening positions acquired outside the export can be supplied with
-costbasis (CSV: time,asset,amount,cost_usd).`,
	RunE: runCalculate,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(calculateCmd)
	calculateCmd.Flags().StringP("trades", "t", "", "Trade history CSV file (required)")
	calculateCmd.Flags().String("costbasis", "", "Opening lots CSV file (time,asset,amount,cost_usd)")
	calculateCmd.Flags().IntP("year", "y", 0, "Report only disposals in this tax year (0 = all)")
	calculateCmd.Flags().Int("startyear", 0, "Ignore orders before this year (0 = full history)")
	calculateCmd.Flags().StringP("strategy", "s", "highest", "Cost basis strategy: highest or fifo")
	calculateCmd.Flags().Bool("turbotax", false, "Write a TurboTax TXF import file")
	calculateCmd.Flags().String("csv", "", "Write a Form 8949 style CSV to this path")
	calculateCmd.Flags().Bool("serve", false, "Expose /metrics and health endpoints during the run")
	_ = calculateCmd.MarkFlagRequired("trades")
}

func runCalculate(cmd *cobra.Command, args []string) error {
	// Load .env
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found\n")
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	tradesFile, _ := cmd.Flags().GetString("trades")
	costBasisFile, _ := cmd.Flags().GetString("costbasis")
	taxYear, _ := cmd.Flags().GetInt("year")
	startYear, _ := cmd.Flags().GetInt("startyear")
	strategyName, _ := cmd.Flags().GetString("strategy")
	turboTax, _ := cmd.Flags().GetBool("turbotax")
	csvFile, _ := cmd.Flags().GetString("csv")
	serve, _ := cmd.Flags().GetBool("serve")

	strategy, err := types.ParseStrategy(strategyName)
	if err != nil {
		return err
	}

	opts := &app.Options{
		TradesFile:    tradesFile,
		CostBasisFile: costBasisFile,
		TaxYear:       taxYear,
		StartYear:     startYear,
		Strategy:      strategy,
		TurboTax:      turboTax,
		CSVFile:       csvFile,
		Serve:         serve,
	}

	application, err := app.New(cfg, logger, opts)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	err = application.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}

	return nil
}
