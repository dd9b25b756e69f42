package app

import (
	"fmt"

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
)

// New wires the pipeline components from config and run options.
func New(cfg *config.Config, logger *zap.Logger, opts *Options) (*App, error) {
	candleCache, err := cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: cfg.CacheNumCounters,
		MaxCost:     cfg.CacheMaxCost,
		BufferItems: cfg.CacheBufferItems,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create candle cache: %w", err)
	}

	candleClient := pricing.NewCandleClient(&pricing.ClientConfig{
		BaseURL:           cfg.GeminiBaseURL,
		RequestTimeout:    cfg.PriceRequestTimeout,
		MaxRetries:        cfg.PriceMaxRetries,
		InitialBackoff:    cfg.PriceInitialBackoff,
		MaxBackoff:        cfg.PriceMaxBackoff,
		BackoffMultiplier: cfg.PriceBackoffMultiplier,
		Logger:            logger,
	})

	resolver := pricing.NewResolver(candleClient, candleCache, logger)

	store, err := storage.FromConfig(cfg, logger)
	if err != nil {
		candleCache.Close()
		return nil, fmt.Errorf("create storage: %w", err)
	}

	a := &App{
		cfg:           cfg,
		logger:        logger,
		opts:          opts,
		healthChecker: healthprobe.New(),
		candleCache:   candleCache,
		resolver:      resolver,
		normalizer:    normalize.New(resolver, logger),
		reader:        ingest.NewTradeReader(logger),
		engine: lots.New(lots.Config{
			Strategy: opts.Strategy,
			TaxYear:  opts.TaxYear,
			Logger:   logger,
		}),
		store: store,
	}

	if opts.Serve {
		a.httpServer = httpserver.New(&httpserver.Config{
			Port:          cfg.HTTPPort,
			Logger:        logger,
			HealthChecker: a.healthChecker,
		})
	}

	return a, nil
}
