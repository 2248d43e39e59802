package usecase

import (
	"context"
	"fmt"
	"time"

	"StockPredictor/internal/domain/models"
	drepo "StockPredictor/internal/domain/repository"
)

// Journal backends.
const (
	BackendNone       = "none"
	BackendKafka      = "kafka"
	BackendClickHouse = "clickhouse"
	BackendPostgres   = "postgres"
)

// ForecastRecorder routes served forecasts to the configured journal backend.
type ForecastRecorder struct {
	pub     drepo.Publisher
	store   drepo.Storage
	metrics drepo.Metrics
	backend string
}

// NewForecastRecorder creates a recorder. pub and store may be nil when their backend is not selected.
func NewForecastRecorder(
	pub drepo.Publisher,
	store drepo.Storage,
	metrics drepo.Metrics,
	backend string,
) *ForecastRecorder {
	if backend == "" {
		backend = BackendNone
	}
	return &ForecastRecorder{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
	}
}

// Backend names the active backend.
func (r *ForecastRecorder) Backend() string { return r.backend }

// Record writes one record to the backend.
func (r *ForecastRecorder) Record(ctx context.Context, rec *models.ForecastRecord) error {
	if rec == nil {
		return fmt.Errorf("forecast record is nil")
	}

	start := time.Now()
	var err error

	switch r.backend {
	case BackendNone:
		return nil
	case BackendKafka:
		err = r.pub.Publish(ctx, rec)
	case BackendClickHouse, BackendPostgres:
		err = r.store.Store(ctx, rec)
	default:
		err = fmt.Errorf("unknown backend: %s", r.backend)
	}

	if err != nil {
		r.metrics.RecordError("journal")
		return fmt.Errorf("record forecast: %w", err)
	}

	r.metrics.RecordMessageSent(r.backend)
	r.metrics.RecordLatency("journal", time.Since(start))
	return nil
}

// Recent returns the latest records for identifier, newest first. Only a queryable
// backend can answer.
func (r *ForecastRecorder) Recent(ctx context.Context, identifier string, limit int) ([]*models.ForecastRecord, error) {
	if !r.queryable() {
		return nil, fmt.Errorf("%w: %s", models.ErrJournalUnavailable, r.backend)
	}
	return r.store.Recent(ctx, identifier, limit)
}

// Health checks the backend when it has something to ping.
func (r *ForecastRecorder) Health(ctx context.Context) error {
	if r.queryable() {
		return r.store.Health(ctx)
	}
	return nil
}

func (r *ForecastRecorder) queryable() bool {
	return r.store != nil && (r.backend == BackendClickHouse || r.backend == BackendPostgres)
}

// Close closes underlying resources if available.
func (r *ForecastRecorder) Close() {
	if r.pub != nil {
		_ = r.pub.Close()
	}
	if r.store != nil {
		_ = r.store.Close()
	}
}
