package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/klaxis/CryptoTaxes/pkg/types"
)

// PostgresStorage implements Storage using PostgreSQL.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStorage creates a new PostgreSQL storage.
func NewPostgresStorage(cfg *PostgresConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Test connection
	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresStorage{
		db:     db,
		logger: cfg.Logger,
	}, nil
}

// StoreDisposal inserts a disposal record. Decimal amounts are bound as
// strings so Postgres NUMERIC columns keep full precision.
func (p *PostgresStorage) StoreDisposal(ctx context.Context, d *types.Disposal) error {
	query := `
		INSERT INTO disposals (
			id, asset, sale_time, acquired_at, amount,
			proceeds_usd, cost_basis_usd, gain_usd,
			long_term, unverified
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
	`

	var acquiredAt interface{}
	if !d.AcquiredAt.IsZero() {
		acquiredAt = d.AcquiredAt
	}

	_, err := p.db.ExecContext(ctx, query,
		d.ID,
		d.Asset,
		d.SaleTime,
		acquiredAt,
		d.Amount.String(),
		d.ProceedsUSD.String(),
		d.CostBasisUSD.String(),
		d.GainUSD.String(),
		d.LongTerm,
		d.Unverified,
	)

	if err != nil {
		return fmt.Errorf("insert disposal: %w", err)
	}

	p.logger.Debug("disposal-stored",
		zap.String("disposal-id", d.ID),
		zap.String("asset", d.Asset),
		zap.String("gain", d.GainUSD.StringFixed(2)))

	return nil
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}
