package repository

import (
	"context"
	"time"

	"StockPredictor/internal/domain/models"
	"StockPredictor/internal/domain/service"
)

// MarketData returns daily closes for an instrument. An empty series (nil error) means the
// identifier is unknown to the provider or has no data in range.
type MarketData interface {
	History(ctx context.Context, symbol string, years int) (models.PriceSeries, error)
}

// ModelStore persists the artifact pair for an instrument.
type ModelStore interface {
	// Exists reports whether both artifacts are present and usable.
	Exists(ctx context.Context, identifier string) (bool, error)
	Save(ctx context.Context, identifier string, a service.Artifacts) error
	Load(ctx context.Context, identifier string) (service.Artifacts, error)
}

// Publisher sends forecast records to a message broker.
type Publisher interface {
	Publish(ctx context.Context, r *models.ForecastRecord) error
	Close() error
}

// Storage persists forecast records in a queryable store.
type Storage interface {
	Store(ctx context.Context, r *models.ForecastRecord) error
	Recent(ctx context.Context, identifier string, limit int) ([]*models.ForecastRecord, error)
	Health(ctx context.Context) error
	Close() error
}

type Metrics interface {
	RecordResolveAttempt(rewrite string, found bool)
	RecordModelCache(hit bool)
	RecordTraining(seconds float64, err error)
	RecordForecast(horizon int)
	RecordMessageSent(backend string)
	RecordError(kind string)
	RecordLatency(op string, d time.Duration)
}
