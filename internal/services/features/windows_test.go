package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSupervised(t *testing.T) {
	xs, ys, err := BuildSupervised([]float64{1, 2, 3, 4, 5}, 3)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2, 3}, {2, 3, 4}}, xs)
	assert.Equal(t, []float64{4, 5}, ys)

	_, _, err = BuildSupervised([]float64{1, 2, 3}, 3)
	assert.Error(t, err)
	_, _, err = BuildSupervised([]float64{1, 2}, 0)
	assert.Error(t, err)
}

func TestLastWindowAndSlide(t *testing.T) {
	src := []float64{1, 2, 3, 4}
	w, err := LastWindow(src, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3, 4}, w)

	Slide(w, 9)
	assert.Equal(t, []float64{3, 4, 9}, w)
	assert.Equal(t, []float64{1, 2, 3, 4}, src, "source untouched")

	_, err = LastWindow(src, 5)
	assert.Error(t, err)
}
