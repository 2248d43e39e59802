package lstm

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"time"

	"StockPredictor/internal/domain/service"
	"StockPredictor/internal/services/features"
	applogger "StockPredictor/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// Config holds the network shape and the fit schedule.
type Config struct {
	LookBack     int
	Units        int
	DenseUnits   int
	Dropout      float64
	Epochs       int
	BatchSize    int
	LearningRate float64
	Seed         int64
	Workers      int // 0 means GOMAXPROCS
}

func DefaultConfig() Config {
	return Config{
		LookBack:     60,
		Units:        50,
		DenseUnits:   25,
		Dropout:      0.2,
		Epochs:       20,
		BatchSize:    32,
		LearningRate: 0.001,
		Seed:         42,
	}
}

// Trainer fits a Network and MinMaxScaler on a close series.
type Trainer struct {
	cfg Config
	l   *applogger.Logger
}

func NewTrainer(cfg Config, l *applogger.Logger) *Trainer {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	return &Trainer{cfg: cfg, l: l}
}

func (t *Trainer) Train(ctx context.Context, closes []float64) (service.Artifacts, error) {
	net, scaler, _, err := t.fit(ctx, closes)
	if err != nil {
		return service.Artifacts{}, err
	}
	return service.Artifacts{Model: net, Scaler: scaler}, nil
}

// fit returns the trained pair and the mean squared error of every epoch.
func (t *Trainer) fit(ctx context.Context, closes []float64) (*Network, *MinMaxScaler, []float64, error) {
	cfg := t.cfg
	if cfg.Epochs < 1 || cfg.BatchSize < 1 || cfg.Units < 1 || cfg.DenseUnits < 1 {
		return nil, nil, nil, fmt.Errorf("invalid training config %+v", cfg)
	}

	scaler, err := FitMinMax(closes)
	if err != nil {
		return nil, nil, nil, err
	}
	xs, ys, err := features.BuildSupervised(scaler.Transform(closes), cfg.LookBack)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("build training samples: %w", err)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	net := newNetwork(cfg.LookBack, cfg.Units, cfg.DenseUnits, cfg.Dropout, rng)
	params := net.params()
	opt := newAdam(params, cfg.LearningRate)

	workers := cfg.Workers
	if workers > cfg.BatchSize {
		workers = cfg.BatchSize
	}
	grads := make([]*Network, workers)
	for w := range grads {
		grads[w] = net.zeroLike()
	}
	total := net.zeroLike().params()

	t.l.Info("training started",
		applogger.Int("samples", len(xs)),
		applogger.Int("epochs", cfg.Epochs),
		applogger.Int("batch_size", cfg.BatchSize),
		applogger.Int("workers", workers))

	began := time.Now()
	losses := make([]float64, 0, cfg.Epochs)
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, nil, fmt.Errorf("training cancelled at epoch %d: %w", epoch, err)
		}

		order := rng.Perm(len(xs))
		sum := 0.0
		for start := 0; start < len(order); start += cfg.BatchSize {
			end := min(start+cfg.BatchSize, len(order))
			batch := order[start:end]
			masks := make([]*dropoutMasks, len(batch))
			for i := range batch {
				masks[i] = net.sampleMasks(rng)
			}
			sum += t.batchGradient(net, xs, ys, batch, masks, grads, total)
			opt.step(params, total)
		}
		mse := sum / float64(len(xs))
		losses = append(losses, mse)
		t.l.Debug("epoch finished", applogger.Int("epoch", epoch+1), applogger.Float64("loss", mse))
	}

	t.l.Info("training finished",
		applogger.Duration("took", time.Since(began)),
		applogger.Float64("final_loss", losses[len(losses)-1]))
	return net, scaler, losses, nil
}

// batchGradient fills total with the mean gradient over batch and returns the summed
// squared error. Each worker owns a contiguous slice of the batch and its own buffer,
// and buffers are reduced in worker order so results do not depend on scheduling.
func (t *Trainer) batchGradient(net *Network, xs [][]float64, ys []float64, batch []int, masks []*dropoutMasks, grads []*Network, total [][]float64) float64 {
	scale := 1 / float64(len(batch))
	workers := min(len(grads), len(batch))
	chunk := (len(batch) + workers - 1) / workers
	losses := make([]float64, workers)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, len(batch))
		gw := grads[w]
		zero(gw.params())
		if lo >= hi {
			continue
		}
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				idx := batch[i]
				losses[w] += net.accumulate(xs[idx], ys[idx], masks[i], gw, scale)
			}
			return nil
		})
	}
	_ = g.Wait()

	zero(total)
	sum := 0.0
	for w := 0; w < workers; w++ {
		sum += losses[w]
		for i, p := range grads[w].params() {
			dst := total[i]
			for k, v := range p {
				dst[k] += v
			}
		}
	}
	return sum
}

func zero(ps [][]float64) {
	for _, p := range ps {
		clear(p)
	}
}
