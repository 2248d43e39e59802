package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"StockPredictor/internal/domain/models"
	"StockPredictor/internal/domain/service"
)

// fakeMarket serves canned series per identifier and records every lookup.
type fakeMarket struct {
	mu     sync.Mutex
	series map[string]int // identifier -> number of daily rows
	calls  []string
	err    error
}

func newFakeMarket(rows map[string]int) *fakeMarket {
	return &fakeMarket{series: rows}
}

func (m *fakeMarket) History(_ context.Context, symbol string, years int) (models.PriceSeries, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, symbol)
	if m.err != nil {
		return models.PriceSeries{}, m.err
	}
	n := m.series[symbol]
	if years > 1 {
		n = m.series[symbol+"@train"]
		if n == 0 {
			n = m.series[symbol]
		}
	}
	return arithmeticSeries(symbol, n), nil
}

func (m *fakeMarket) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// arithmeticSeries has closes 100, 101, 102, ... on consecutive days.
func arithmeticSeries(symbol string, n int) models.PriceSeries {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]models.PricePoint, n)
	for i := range points {
		points[i] = models.PricePoint{Date: start.AddDate(0, 0, i), Close: 100 + float64(i)}
	}
	return models.PriceSeries{Symbol: symbol, Points: points}
}

// stepModel extrapolates the last difference of its window.
type stepModel struct{ lookBack int }

func (m stepModel) LookBack() int { return m.lookBack }

func (m stepModel) Predict(w []float64) (float64, error) {
	if len(w) != m.lookBack {
		return 0, errors.New("bad window")
	}
	return w[len(w)-1] + (w[len(w)-1] - w[len(w)-2]), nil
}

type identityScaler struct{}

func (identityScaler) Transform(xs []float64) []float64 { return append([]float64(nil), xs...) }
func (identityScaler) InverseTransform(x float64) float64 { return x }

type fakeTrainer struct {
	calls   atomic.Int32
	delay   time.Duration
	release chan struct{}
}

func (t *fakeTrainer) Train(ctx context.Context, closes []float64) (service.Artifacts, error) {
	t.calls.Add(1)
	if t.release != nil {
		<-t.release
	}
	if t.delay > 0 {
		time.Sleep(t.delay)
	}
	if err := ctx.Err(); err != nil {
		return service.Artifacts{}, err
	}
	return service.Artifacts{Model: stepModel{lookBack: MinPredictionCloses}, Scaler: identityScaler{}}, nil
}

type memoryModelStore struct {
	mu    sync.Mutex
	items map[string]service.Artifacts
	saves int
}

func newMemoryModelStore() *memoryModelStore {
	return &memoryModelStore{items: make(map[string]service.Artifacts)}
}

func (s *memoryModelStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[id]
	return ok, nil
}

func (s *memoryModelStore) Save(_ context.Context, id string, a service.Artifacts) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = a
	s.saves++
	return nil
}

func (s *memoryModelStore) Load(_ context.Context, id string) (service.Artifacts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.items[id]
	if !ok {
		return service.Artifacts{}, errors.New("no artifacts")
	}
	return a, nil
}

type nopMetrics struct{}

func (nopMetrics) RecordResolveAttempt(string, bool) {}
func (nopMetrics) RecordModelCache(bool) {}
func (nopMetrics) RecordTraining(float64, error) {}
func (nopMetrics) RecordForecast(int) {}
func (nopMetrics) RecordMessageSent(string) {}
func (nopMetrics) RecordError(string) {}
func (nopMetrics) RecordLatency(string, time.Duration) {}

type recordingPublisher struct {
	mu      sync.Mutex
	records []*models.ForecastRecord
	err     error
}

func (p *recordingPublisher) Publish(_ context.Context, r *models.ForecastRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.records = append(p.records, r)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }
