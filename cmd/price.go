package cmd

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/klaxis/CryptoTaxes/internal/pricing"
	"github.com/klaxis/CryptoTaxes/pkg/cache"
	"github.com/klaxis/CryptoTaxes/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var priceCmd = &cobra.Command{
	Use:   "price CURRENCY TIMESTAMP",
	Short: "Resolve the USD price of a currency at a point in time",
	Long: `Resolves one USD price through the same fallback chain the
calculate pipeline uses, for debugging a single lookup.

TIMESTAMP accepts RFC 3339 ("2021-04-01T00:00:00Z") or a date
("2021-04-01").`,
	Args: cobra.ExactArgs(2),
	RunE: runPrice,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(priceCmd)
}

func runPrice(cmd *cobra.Command, args []string) error {
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

	currency := args[0]
	ts, err := parseWhen(args[1])
	if err != nil {
		return err
	}

	candleCache, err := cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: cfg.CacheNumCounters,
		MaxCost:     cfg.CacheMaxCost,
		BufferItems: cfg.CacheBufferItems,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("create candle cache: %w", err)
	}
	defer candleCache.Close()

	client := pricing.NewCandleClient(&pricing.ClientConfig{
		BaseURL:           cfg.GeminiBaseURL,
		RequestTimeout:    cfg.PriceRequestTimeout,
		MaxRetries:        cfg.PriceMaxRetries,
		InitialBackoff:    cfg.PriceInitialBackoff,
		MaxBackoff:        cfg.PriceMaxBackoff,
		BackoffMultiplier: cfg.PriceBackoffMultiplier,
		Logger:            logger,
	})
	resolver := pricing.NewResolver(client, candleCache, logger)

	price, warning := resolver.USDPerUnit(cmd.Context(), currency, ts)
	if warning != nil {
		fmt.Printf("%s at %s: unpriced (%s)\n", currency, ts.Format(time.RFC3339), warning.Message)
		return nil
	}

	fmt.Printf("%s at %s: $%s\n", currency, ts.Format(time.RFC3339), price.String())
	return nil
}

func parseWhen(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
