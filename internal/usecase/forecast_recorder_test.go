package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"StockPredictor/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStorage struct {
	records []*models.ForecastRecord
	err     error
}

func (s *memoryStorage) Store(_ context.Context, r *models.ForecastRecord) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, r)
	return nil
}

func (s *memoryStorage) Recent(_ context.Context, identifier string, limit int) ([]*models.ForecastRecord, error) {
	var out []*models.ForecastRecord
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		if s.records[i].Identifier == identifier {
			out = append(out, s.records[i])
		}
	}
	return out, nil
}

func (s *memoryStorage) Health(context.Context) error { return s.err }
func (s *memoryStorage) Close() error { return nil }

func sampleRecord(id string, at time.Time) *models.ForecastRecord {
	return &models.ForecastRecord{Ticker: id, Identifier: id, Horizon: 1, Predictions: []float64{1}, CreatedAt: at}
}

func TestRecorderRoutesByBackend(t *testing.T) {
	pub := &recordingPublisher{}
	store := &memoryStorage{}
	rec := sampleRecord("AAPL", time.Now())

	require.NoError(t, NewForecastRecorder(pub, store, nopMetrics{}, BackendNone).Record(context.Background(), rec))
	assert.Empty(t, pub.records)
	assert.Empty(t, store.records)

	require.NoError(t, NewForecastRecorder(pub, store, nopMetrics{}, BackendKafka).Record(context.Background(), rec))
	assert.Len(t, pub.records, 1)
	assert.Empty(t, store.records)

	require.NoError(t, NewForecastRecorder(pub, store, nopMetrics{}, BackendClickHouse).Record(context.Background(), rec))
	assert.Len(t, store.records, 1)

	assert.Error(t, NewForecastRecorder(pub, store, nopMetrics{}, "carrier-pigeon").Record(context.Background(), rec))
}

func TestRecorderDefaultsToNone(t *testing.T) {
	r := NewForecastRecorder(nil, nil, nopMetrics{}, "")
	assert.Equal(t, BackendNone, r.Backend())
	assert.NoError(t, r.Record(context.Background(), sampleRecord("AAPL", time.Now())))
	assert.NoError(t, r.Health(context.Background()))
}

func TestRecorderWrapsBackendErrors(t *testing.T) {
	store := &memoryStorage{err: errors.New("table missing")}
	r := NewForecastRecorder(nil, store, nopMetrics{}, BackendClickHouse)

	err := r.Record(context.Background(), sampleRecord("AAPL", time.Now()))
	assert.ErrorContains(t, err, "table missing")
	assert.Error(t, r.Health(context.Background()))
	assert.Error(t, r.Record(context.Background(), nil))
}

func TestRecorderRecentOnlyFromClickHouse(t *testing.T) {
	store := &memoryStorage{}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		store.records = append(store.records, sampleRecord("AAPL", base.Add(time.Duration(i)*time.Hour)))
	}
	store.records = append(store.records, sampleRecord("MSFT", base))

	r := NewForecastRecorder(nil, store, nopMetrics{}, BackendClickHouse)
	got, err := r.Recent(context.Background(), "AAPL", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].CreatedAt.After(got[1].CreatedAt))

	_, err = NewForecastRecorder(&recordingPublisher{}, store, nopMetrics{}, BackendKafka).Recent(context.Background(), "AAPL", 2)
	assert.ErrorIs(t, err, models.ErrJournalUnavailable)
}

func TestRecorderPostgresIsQueryable(t *testing.T) {
	store := &memoryStorage{}
	r := NewForecastRecorder(nil, store, nopMetrics{}, BackendPostgres)

	require.NoError(t, r.Record(context.Background(), sampleRecord("AAPL", time.Now())))
	got, err := r.Recent(context.Background(), "AAPL", 5)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
