package service

import "context"

// SequenceModel maps one lookback window of scaled closes to the next scaled close.
type SequenceModel interface {
	Predict(window []float64) (float64, error)
	LookBack() int
}

// Scaler maps raw closes into the model's input range and back.
type Scaler interface {
	Transform(xs []float64) []float64
	InverseTransform(x float64) float64
}

// Artifacts is the trained pair persisted per instrument.
type Artifacts struct {
	Model  SequenceModel
	Scaler Scaler
}

// Trainer fits a fresh model and scaler on a series of valid closes.
type Trainer interface {
	Train(ctx context.Context, closes []float64) (Artifacts, error)
}
