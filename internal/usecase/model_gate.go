package usecase

import (
	"context"
	"fmt"
	"time"

	"StockPredictor/internal/domain/models"
	"StockPredictor/internal/domain/repository"
	"StockPredictor/internal/domain/service"
	applogger "StockPredictor/pkg/logger"

	"golang.org/x/sync/singleflight"
)

// MinTrainingCloses is the least number of valid closes a model is trained on.
const MinTrainingCloses = 70

// ModelGate decides between reusing stored artifacts and training new ones.
// Concurrent callers for the same identifier share one training run.
type ModelGate struct {
	store         repository.ModelStore
	market        repository.MarketData
	trainer       service.Trainer
	metrics       repository.Metrics
	l             *applogger.Logger
	trainingYears int
	group         singleflight.Group
}

func NewModelGate(
	store repository.ModelStore,
	market repository.MarketData,
	trainer service.Trainer,
	metrics repository.Metrics,
	l *applogger.Logger,
	trainingYears int,
) *ModelGate {
	return &ModelGate{
		store:         store,
		market:        market,
		trainer:       trainer,
		metrics:       metrics,
		l:             l,
		trainingYears: trainingYears,
	}
}

// EnsureTrained makes sure artifacts exist for identifier. trained reports whether a
// training run happened on behalf of this call.
func (g *ModelGate) EnsureTrained(ctx context.Context, identifier string) (bool, error) {
	ok, err := g.store.Exists(ctx, identifier)
	if err != nil {
		return false, fmt.Errorf("check model artifacts: %w", err)
	}
	g.metrics.RecordModelCache(ok)
	if ok {
		return false, nil
	}

	// The run outlives a caller that gives up so the others sharing it still get a model.
	ch := g.group.DoChan(identifier, func() (interface{}, error) {
		return g.train(context.WithoutCancel(ctx), identifier)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return false, res.Err
		}
		if res.Shared {
			g.l.Debug("joined training run", applogger.String("identifier", identifier))
		}
		return res.Val.(bool), nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (g *ModelGate) train(ctx context.Context, identifier string) (bool, error) {
	// a run that finished just before this one started already did the work
	if ok, err := g.store.Exists(ctx, identifier); err == nil && ok {
		return false, nil
	}

	series, err := g.market.History(ctx, identifier, g.trainingYears)
	if err != nil {
		return false, fmt.Errorf("fetch training history for %s: %w", identifier, err)
	}
	closes := series.ValidCloses()
	if len(closes) < MinTrainingCloses {
		return false, fmt.Errorf("%w: %s has %d valid closes, need %d",
			models.ErrInsufficientTrainingHistory, identifier, len(closes), MinTrainingCloses)
	}

	g.l.Info("training model",
		applogger.String("identifier", identifier),
		applogger.Int("closes", len(closes)),
		applogger.Int("years", g.trainingYears))

	start := time.Now()
	artifacts, err := g.trainer.Train(ctx, closes)
	g.metrics.RecordTraining(time.Since(start).Seconds(), err)
	if err != nil {
		return false, fmt.Errorf("train %s: %w", identifier, err)
	}
	if err := g.store.Save(ctx, identifier, artifacts); err != nil {
		return false, err
	}

	g.l.Info("model trained",
		applogger.String("identifier", identifier),
		applogger.Duration("took", time.Since(start)))
	return true, nil
}
