package usecase

import (
	"fmt"

	"StockPredictor/internal/domain/models"
	"StockPredictor/internal/domain/service"
	"StockPredictor/internal/services/features"
)

// MinPredictionCloses is the lookback window length: the least history a forecast needs.
const MinPredictionCloses = 60

// Forecaster rolls a sequence model forward over scaled closes.
type Forecaster struct {
	minCloses int
}

func NewForecaster(minCloses int) *Forecaster {
	return &Forecaster{minCloses: minCloses}
}

// Forecast predicts the next horizon closes. Beyond the first day each prediction is
// fed back as input, so errors compound with the horizon.
func (f *Forecaster) Forecast(closes []float64, a service.Artifacts, horizon int) ([]float64, error) {
	lookBack := a.Model.LookBack()
	need := max(f.minCloses, lookBack)
	if len(closes) < need {
		return nil, fmt.Errorf("%w: have %d valid closes, need %d", models.ErrInsufficientHistory, len(closes), need)
	}
	if horizon < 1 {
		return nil, fmt.Errorf("%w: got %d", models.ErrInvalidHorizon, horizon)
	}

	window, err := features.LastWindow(a.Scaler.Transform(closes), lookBack)
	if err != nil {
		return nil, err
	}

	out := make([]float64, horizon)
	for i := range out {
		next, err := a.Model.Predict(window)
		if err != nil {
			return nil, fmt.Errorf("predict day %d: %w", i+1, err)
		}
		out[i] = a.Scaler.InverseTransform(next)
		features.Slide(window, next)
	}
	return out, nil
}
