package app

import (
	"go.uber.org/zap"

	"github.com/klaxis/CryptoTaxes/internal/ingest"
	"github.com/klaxis/CryptoTaxes/internal/lots"
	"github.com/klaxis/CryptoTaxes/internal/normalize"
	"github.com/klaxis/CryptoTaxes/internal/pricing"
	"github.com/klaxis/CryptoTaxes/internal/storage"
	"github.com/klaxis/CryptoTaxes/pkg/cache"
	"github.com/klaxis/CryptoTaxes/pkg/config"
	"github.com/klaxis/CryptoTaxes/pkg/healthprobe"
	"github.com/klaxis/CryptoTaxes/pkg/httpserver"
	"github.com/klaxis/CryptoTaxes/pkg/types"
)

// App orchestrates one capital-gains calculation run.
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	opts   *Options

	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	candleCache   cache.Cache
	resolver      *pricing.Resolver
	normalizer    *normalize.Normalizer
	reader        *ingest.TradeReader
	engine        *lots.Engine
	store         storage.Storage
}

// Options holds run-scoped options, set from command flags rather than
// the environment.
type Options struct {
	TradesFile    string
	CostBasisFile string
	TaxYear       int
	StartYear     int
	Strategy      types.Strategy
	TurboTax      bool
	CSVFile       string
	Serve         bool
}
