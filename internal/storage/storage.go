package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/klaxis/CryptoTaxes/pkg/config"
	"github.com/klaxis/CryptoTaxes/pkg/types"
)

// Storage is the interface for persisting disposal records.
type Storage interface {
	// StoreDisposal stores one disposal record.
	StoreDisposal(ctx context.Context, d *types.Disposal) error

	// Close closes the storage connection.
	Close() error
}

// FromConfig selects a storage backend from the environment config.
func FromConfig(cfg *config.Config, logger *zap.Logger) (Storage, error) {
	switch cfg.StorageMode {
	case "postgres":
		return NewPostgresStorage(&PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
	case "console":
		return NewConsoleStorage(logger), nil
	default:
		return nil, fmt.Errorf("unknown storage mode: %s", cfg.StorageMode)
	}
}
