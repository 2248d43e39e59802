package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"StockPredictor/internal/usecase"
	"StockPredictor/pkg/cache"
	"StockPredictor/pkg/config"
	xhttp "StockPredictor/pkg/http"
	applogger "StockPredictor/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	httpServer *xhttp.Server
	recorder   *usecase.ForecastRecorder
	cache      cache.Service
	l          *applogger.Logger
}

// New creates a new App instance with all dependencies. marketCache may be nil.
func New(
	cfg *config.Config,
	httpServer *xhttp.Server,
	recorder *usecase.ForecastRecorder,
	marketCache cache.Service,
	l *applogger.Logger,
) *App {
	return &App{
		cfg:        cfg,
		httpServer: httpServer,
		recorder:   recorder,
		cache:      marketCache,
		l:          l,
	}
}

// Run starts the HTTP server and blocks until interrupted, ctx is done or the server fails.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh, err := a.httpServer.Start()
	if err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		a.closeResources()
		return err
	}
	a.l.Info("stock predictor started",
		applogger.String("env", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("journal", a.recorder.Backend()))

	var runErr error
	select {
	case <-ctx.Done():
		a.l.Info("shutdown signal received")
	case runErr = <-errCh:
		a.l.Error("http server error", applogger.Error(runErr))
	}

	if err := a.shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	a.l.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	err := a.httpServer.Stop(shutdownCtx)
	if err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	a.closeResources()
	a.l.Info("shutdown complete")
	return err
}

// closeResources releases the journal backend and the market-data cache.
func (a *App) closeResources() {
	if a.recorder != nil {
		a.recorder.Close()
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.l.Warn("cache close error", applogger.Error(err))
		}
	}
}
