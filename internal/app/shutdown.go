package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Shutdown releases pipeline resources and stops the metrics server.
func (a *App) Shutdown() {
	err := a.store.Close()
	if err != nil {
		a.logger.Error("storage-close-failed", zap.Error(err))
	}

	a.candleCache.Close()

	if a.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := a.httpServer.Shutdown(ctx)
		if err != nil {
			a.logger.Error("http-server-shutdown-failed", zap.Error(err))
		}
	}

	a.logger.Info("shutdown-complete")
}
