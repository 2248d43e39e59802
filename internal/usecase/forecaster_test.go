package usecase

import (
	"testing"

	"StockPredictor/internal/domain/models"
	"StockPredictor/internal/domain/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepArtifacts() service.Artifacts {
	return service.Artifacts{Model: stepModel{lookBack: MinPredictionCloses}, Scaler: identityScaler{}}
}

func TestForecastNeedsFullWindow(t *testing.T) {
	f := NewForecaster(MinPredictionCloses)
	closes := arithmeticSeries("X", MinPredictionCloses-1).ValidCloses()

	_, err := f.Forecast(closes, stepArtifacts(), 1)
	assert.ErrorIs(t, err, models.ErrInsufficientHistory)

	closes = arithmeticSeries("X", MinPredictionCloses).ValidCloses()
	out, err := f.Forecast(closes, stepArtifacts(), 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{160}, out)
}

func TestForecastRollsWindowForward(t *testing.T) {
	f := NewForecaster(MinPredictionCloses)
	closes := arithmeticSeries("X", 250).ValidCloses() // last close 349

	out, err := f.Forecast(closes, stepArtifacts(), 5)
	require.NoError(t, err)
	assert.Equal(t, []float64{350, 351, 352, 353, 354}, out)
}

func TestForecastRejectsNonPositiveHorizon(t *testing.T) {
	f := NewForecaster(MinPredictionCloses)
	closes := arithmeticSeries("X", 100).ValidCloses()
	_, err := f.Forecast(closes, stepArtifacts(), 0)
	assert.ErrorIs(t, err, models.ErrInvalidHorizon)
}
