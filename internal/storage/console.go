package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/klaxis/CryptoTaxes/pkg/types"
)

// ConsoleStorage implements Storage by pretty-printing to console.
type ConsoleStorage struct {
	logger *zap.Logger
}

// NewConsoleStorage creates a new console storage.
func NewConsoleStorage(logger *zap.Logger) *ConsoleStorage {
	logger.Info("console-storage-initialized")
	return &ConsoleStorage{
		logger: logger,
	}
}

// StoreDisposal pretty-prints a disposal record to console.
func (c *ConsoleStorage) StoreDisposal(ctx context.Context, d *types.Disposal) error {
	term := "SHORT-TERM"
	if d.LongTerm {
		term = "LONG-TERM"
	}
	acquired := "(unknown)"
	if !d.AcquiredAt.IsZero() {
		acquired = d.AcquiredAt.Format("2006-01-02 15:04:05")
	}
	id := d.ID
	if len(id) > 8 {
		id = id[:8]
	}

	fmt.Println("\n" + "────────────────────────────────────────────────────────────")
	fmt.Printf("DISPOSAL %s  %s %s\n", id, d.Amount.String(), d.Asset)
	fmt.Printf("  Acquired:   %s\n", acquired)
	fmt.Printf("  Sold:       %s\n", d.SaleTime.Format("2006-01-02 15:04:05"))
	fmt.Printf("  Proceeds:   $%s\n", d.ProceedsUSD.StringFixed(2))
	fmt.Printf("  Cost basis: $%s\n", d.CostBasisUSD.StringFixed(2))
	fmt.Printf("  Gain:       $%s (%s)\n", d.GainUSD.StringFixed(2), term)
	if d.Unverified {
		fmt.Printf("  ⚠ no covering lot found; cost basis recorded as zero\n")
	}

	return nil
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}
