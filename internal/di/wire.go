//go:build wireinject
// +build wireinject

package di

import (
	"StockPredictor/internal/domain/repository"
	internalrepo "StockPredictor/internal/repository"
	"StockPredictor/pkg/config"
	"StockPredictor/pkg/server"

	"github.com/google/wire"
)

var coreSet = wire.NewSet(
	// Ambient
	ProvideLogger,
	ProvideMetrics,

	// Market data and aliases
	ProvideAliasTable,
	ProvideMarketCache,
	ProvideMarketData,

	// Models
	ProvideModelStore,
	wire.Bind(new(repository.ModelStore), new(*internalrepo.FileModelStore)),
	ProvideTrainer,

	// Use cases
	ProvideResolver,
	ProvideModelGate,
	ProvideForecaster,
	ProvideForecastRecorder,
	ProvidePredictUseCase,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		coreSet,

		// HTTP surface
		ProvideRateLimiter,
		ProvideHTTPHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}

// InitializeToolkit wires the use cases for one-shot CLI commands.
func InitializeToolkit(cfg *config.Config) (*Toolkit, error) {
	wire.Build(
		coreSet,
		wire.Struct(new(Toolkit), "*"),
	)
	return &Toolkit{}, nil
}
