package features

import "fmt"

// BuildSupervised slices a series into (window -> next value) pairs.
// For n values and lookback k it returns n-k samples.
func BuildSupervised(series []float64, lookback int) ([][]float64, []float64, error) {
	if lookback < 1 {
		return nil, nil, fmt.Errorf("lookback must be positive, got %d", lookback)
	}
	if len(series) <= lookback {
		return nil, nil, fmt.Errorf("need more than %d values to build samples, got %d", lookback, len(series))
	}
	n := len(series) - lookback
	xs := make([][]float64, n)
	ys := make([]float64, n)
	for i := 0; i < n; i++ {
		w := make([]float64, lookback)
		copy(w, series[i:i+lookback])
		xs[i] = w
		ys[i] = series[i+lookback]
	}
	return xs, ys, nil
}

// LastWindow returns a copy of the trailing lookback values.
func LastWindow(series []float64, lookback int) ([]float64, error) {
	if lookback < 1 || len(series) < lookback {
		return nil, fmt.Errorf("need at least %d values, got %d", lookback, len(series))
	}
	w := make([]float64, lookback)
	copy(w, series[len(series)-lookback:])
	return w, nil
}

// Slide drops the oldest value of window and appends next, in place.
func Slide(window []float64, next float64) {
	if len(window) == 0 {
		return
	}
	copy(window, window[1:])
	window[len(window)-1] = next
}
