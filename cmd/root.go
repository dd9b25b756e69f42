package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "cryptotaxes",
	Short: "Cryptocurrency capital gains calculator",
	Long: `Calculates cryptocurrency capital gains from exchange trade history.

Trades are normalized to USD legs (coin-to-coin trades produce a
balancing leg for the quote currency), priced through historical
candle data with an ordered fallback chain, and matched against
acquisition lots under a configurable cost-basis strategy.

Output is a per-disposal gain/loss report with optional TurboTax TXF
and Form 8949 style CSV exports.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
