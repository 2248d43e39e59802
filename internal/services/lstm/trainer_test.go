package lstm

import (
	"context"
	"math"
	"testing"

	applogger "StockPredictor/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sineSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 10*math.Sin(float64(i)/5)
	}
	return out
}

func smallConfig() Config {
	return Config{
		LookBack:     10,
		Units:        8,
		DenseUnits:   4,
		Dropout:      0,
		Epochs:       30,
		BatchSize:    16,
		LearningRate: 0.01,
		Seed:         42,
		Workers:      2,
	}
}

func TestFitReducesLoss(t *testing.T) {
	tr := NewTrainer(smallConfig(), applogger.NewNop())
	net, scaler, losses, err := tr.fit(context.Background(), sineSeries(150))
	require.NoError(t, err)
	require.Len(t, losses, 30)
	assert.Less(t, losses[len(losses)-1], losses[0])
	assert.NoError(t, net.Validate())
	assert.NoError(t, scaler.Validate())
}

func TestFitIsDeterministic(t *testing.T) {
	cfg := smallConfig()
	cfg.Epochs = 3
	cfg.Dropout = 0.2
	series := sineSeries(80)

	a, _, _, err := NewTrainer(cfg, applogger.NewNop()).fit(context.Background(), series)
	require.NoError(t, err)
	b, _, _, err := NewTrainer(cfg, applogger.NewNop()).fit(context.Background(), series)
	require.NoError(t, err)
	assert.Equal(t, a.params(), b.params())

	cfg.Workers = 1
	c, _, _, err := NewTrainer(cfg, applogger.NewNop()).fit(context.Background(), series)
	require.NoError(t, err)
	pa, pc := a.params(), c.params()
	for i := range pa {
		assert.InDeltaSlice(t, pa[i], pc[i], 1e-6)
	}
}

func TestTrainReturnsUsableArtifacts(t *testing.T) {
	cfg := smallConfig()
	cfg.Epochs = 2
	series := sineSeries(70)

	arts, err := NewTrainer(cfg, applogger.NewNop()).Train(context.Background(), series)
	require.NoError(t, err)
	require.Equal(t, 10, arts.Model.LookBack())

	window := arts.Scaler.Transform(series[len(series)-10:])
	y, err := arts.Model.Predict(window)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(arts.Scaler.InverseTransform(y)))
}

func TestTrainRejectsShortSeries(t *testing.T) {
	_, err := NewTrainer(smallConfig(), applogger.NewNop()).Train(context.Background(), sineSeries(10))
	assert.Error(t, err)
}

func TestTrainStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewTrainer(smallConfig(), applogger.NewNop()).Train(ctx, sineSeries(100))
	assert.ErrorIs(t, err, context.Canceled)
}
