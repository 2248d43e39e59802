package usecase

import (
	"context"
	"fmt"
	"time"

	"StockPredictor/internal/domain/models"
	"StockPredictor/internal/domain/repository"
	applogger "StockPredictor/pkg/logger"
)

// PredictParams is one forecast request.
type PredictParams struct {
	Ticker string
	Days   int
}

// PredictUseCase serves a forecast: resolve, check history, ensure a model, forecast, journal.
type PredictUseCase struct {
	resolver       *Resolver
	gate           *ModelGate
	store          repository.ModelStore
	forecaster     *Forecaster
	recorder       *ForecastRecorder
	metrics        repository.Metrics
	l              *applogger.Logger
	journalTimeout time.Duration
	now            func() time.Time
}

func NewPredictUseCase(
	resolver *Resolver,
	gate *ModelGate,
	store repository.ModelStore,
	forecaster *Forecaster,
	recorder *ForecastRecorder,
	metrics repository.Metrics,
	l *applogger.Logger,
	journalTimeout time.Duration,
) *PredictUseCase {
	if journalTimeout <= 0 {
		journalTimeout = 5 * time.Second
	}
	return &PredictUseCase{
		resolver:       resolver,
		gate:           gate,
		store:          store,
		forecaster:     forecaster,
		recorder:       recorder,
		metrics:        metrics,
		l:              l,
		journalTimeout: journalTimeout,
		now:            time.Now,
	}
}

func (u *PredictUseCase) Predict(ctx context.Context, p PredictParams) (*models.Forecast, error) {
	start := time.Now()
	if p.Days < 1 {
		return nil, fmt.Errorf("%w: got %d", models.ErrInvalidHorizon, p.Days)
	}

	res, err := u.resolver.Resolve(ctx, p.Ticker)
	if err != nil {
		return nil, err
	}

	closes := res.Series.ValidCloses()
	if len(closes) < MinPredictionCloses {
		u.metrics.RecordError("insufficient_history")
		return nil, fmt.Errorf("%w: %s has %d valid closes, need %d",
			models.ErrInsufficientHistory, res.Identifier, len(closes), MinPredictionCloses)
	}

	trained, err := u.gate.EnsureTrained(ctx, res.Identifier)
	if err != nil {
		return nil, err
	}

	artifacts, err := u.store.Load(ctx, res.Identifier)
	if err != nil {
		return nil, err
	}

	predictions, err := u.forecaster.Forecast(closes, artifacts, p.Days)
	if err != nil {
		return nil, err
	}

	f := &models.Forecast{
		Input:       res.Input,
		Identifier:  res.Identifier,
		Predictions: predictions,
		History:     res.Series,
		Trained:     trained,
	}
	u.metrics.RecordForecast(p.Days)
	u.metrics.RecordLatency("predict", time.Since(start))
	u.journal(ctx, f)

	u.l.Info("forecast served",
		applogger.String("input", f.Input),
		applogger.String("identifier", f.Identifier),
		applogger.Int("days", p.Days),
		applogger.Bool("trained", trained),
		applogger.Duration("took", time.Since(start)))
	return f, nil
}

// RecentForecasts reads the journal for the alias-resolved identifier of ticker.
func (u *PredictUseCase) RecentForecasts(ctx context.Context, ticker string, limit int) (string, []*models.ForecastRecord, error) {
	_, identifier, err := u.resolver.Candidate(ticker)
	if err != nil {
		return "", nil, err
	}
	records, err := u.recorder.Recent(ctx, identifier, limit)
	if err != nil {
		return identifier, nil, err
	}
	return identifier, records, nil
}

// journal is best effort: a failure is logged and never reaches the caller.
func (u *PredictUseCase) journal(ctx context.Context, f *models.Forecast) {
	if u.recorder == nil || u.recorder.Backend() == BackendNone {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.journalTimeout)
	defer cancel()
	if err := u.recorder.Record(ctx, models.NewForecastRecord(f, u.now())); err != nil {
		u.l.Warn("forecast journal write failed",
			applogger.String("identifier", f.Identifier),
			applogger.String("backend", u.recorder.Backend()),
			applogger.Error(err))
	}
}
