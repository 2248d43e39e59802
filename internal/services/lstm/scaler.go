package lstm

import (
	"errors"
	"math"
)

// MinMaxScaler maps values linearly onto [0, 1] using the range seen at fit time.
type MinMaxScaler struct {
	DataMin   float64 `json:"data_min"`
	DataRange float64 `json:"data_range"`
}

// FitMinMax fits a scaler on xs. A constant series gets range 1 so it maps to 0.
func FitMinMax(xs []float64) (*MinMaxScaler, error) {
	if len(xs) == 0 {
		return nil, errors.New("cannot fit scaler on an empty series")
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, x := range xs {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	r := hi - lo
	if r == 0 {
		r = 1
	}
	return &MinMaxScaler{DataMin: lo, DataRange: r}, nil
}

func (s *MinMaxScaler) Transform(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = (x - s.DataMin) / s.DataRange
	}
	return out
}

func (s *MinMaxScaler) InverseTransform(x float64) float64 {
	return x*s.DataRange + s.DataMin
}

// Validate checks a scaler read back from storage.
func (s *MinMaxScaler) Validate() error {
	if s.DataRange == 0 || math.IsNaN(s.DataRange) || math.IsInf(s.DataRange, 0) ||
		math.IsNaN(s.DataMin) || math.IsInf(s.DataMin, 0) {
		return errors.New("scaler has an unusable range")
	}
	return nil
}
