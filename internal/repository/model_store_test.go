package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"StockPredictor/internal/domain/service"
	"StockPredictor/internal/services/lstm"
	applogger "StockPredictor/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tinyArtifacts(t *testing.T) service.Artifacts {
	t.Helper()
	cfg := lstm.Config{LookBack: 3, Units: 2, DenseUnits: 2, Epochs: 1, BatchSize: 4, LearningRate: 0.01, Seed: 1, Workers: 1}
	a, err := lstm.NewTrainer(cfg, applogger.NewNop()).Train(context.Background(), []float64{1, 2, 3, 4, 5, 6, 7, 8})
	require.NoError(t, err)
	return a
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "RELIANCE_NS", SafeName("RELIANCE.NS"))
	assert.Equal(t, "_NSEI", SafeName("^NSEI"))
	assert.Equal(t, "BRK_A", SafeName("BRK-A"))
	assert.Equal(t, "AAPL", SafeName("AAPL"))
}

func TestFileModelStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileModelStore(dir, applogger.NewNop())
	require.NoError(t, err)

	ok, err := s.Exists(ctx, "RELIANCE.NS")
	require.NoError(t, err)
	assert.False(t, ok)

	a := tinyArtifacts(t)
	require.NoError(t, s.Save(ctx, "RELIANCE.NS", a))

	assert.FileExists(t, filepath.Join(dir, "RELIANCE_NS_model.json"))
	assert.FileExists(t, filepath.Join(dir, "RELIANCE_NS_scaler.json"))
	ok, err = s.Exists(ctx, "RELIANCE.NS")
	require.NoError(t, err)
	assert.True(t, ok)

	back, err := s.Load(ctx, "RELIANCE.NS")
	require.NoError(t, err)

	window := a.Scaler.Transform([]float64{6, 7, 8})
	want, err := a.Model.Predict(window)
	require.NoError(t, err)
	got, err := back.Model.Predict(back.Scaler.Transform([]float64{6, 7, 8}))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	leftovers, err := filepath.Glob(filepath.Join(dir, ".artifact-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestFileModelStoreNeedsBothFiles(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileModelStore(t.TempDir(), applogger.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "AAPL", tinyArtifacts(t)))

	_, scalerPath := s.Paths("AAPL")
	require.NoError(t, os.Remove(scalerPath))

	ok, err := s.Exists(ctx, "AAPL")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileModelStoreMaxAge(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s, err := NewFileModelStore(t.TempDir(), applogger.NewNop(),
		WithMaxAge(24*time.Hour),
		WithStoreClock(func() time.Time { return now }))
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "AAPL", tinyArtifacts(t)))

	ok, _ := s.Exists(ctx, "AAPL")
	assert.True(t, ok)

	now = now.Add(48 * time.Hour)
	ok, _ = s.Exists(ctx, "AAPL")
	assert.False(t, ok)
}

func TestFileModelStoreRejectsCorruptArtifacts(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileModelStore(t.TempDir(), applogger.NewNop())
	require.NoError(t, err)

	modelPath, scalerPath := s.Paths("AAPL")
	require.NoError(t, os.WriteFile(modelPath, []byte(`{"lookback":60}`), 0o644))
	require.NoError(t, os.WriteFile(scalerPath, []byte(`{"data_min":1,"data_range":2}`), 0o644))

	_, err = s.Load(ctx, "AAPL")
	assert.Error(t, err)
}

type fakeModel struct{}

func (fakeModel) Predict([]float64) (float64, error) { return 0, nil }
func (fakeModel) LookBack() int                      { return 1 }

func TestFileModelStoreRejectsForeignTypes(t *testing.T) {
	s, err := NewFileModelStore(t.TempDir(), applogger.NewNop())
	require.NoError(t, err)
	err = s.Save(context.Background(), "AAPL", service.Artifacts{Model: fakeModel{}, Scaler: &lstm.MinMaxScaler{DataRange: 1}})
	assert.Error(t, err)
}
