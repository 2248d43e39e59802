package lstm

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// Network is LSTM(units, sequences) -> Dropout -> LSTM(units) -> Dropout -> Dense(dense) -> Dense(1)
// over a univariate window of Window scaled closes.
type Network struct {
	Window  int         `json:"lookback"`
	Dropout float64     `json:"dropout"`
	L1      *LSTMLayer  `json:"lstm1"`
	L2      *LSTMLayer  `json:"lstm2"`
	D1      *DenseLayer `json:"dense1"`
	D2      *DenseLayer `json:"dense2"`
}

// dropoutMasks holds inverted-dropout multipliers for one training sample.
type dropoutMasks struct {
	first  [][]float64 // per timestep, after the first LSTM
	second []float64   // after the second LSTM's last state
}

func newNetwork(window, units, dense int, dropout float64, rng *rand.Rand) *Network {
	return &Network{
		Window:  window,
		Dropout: dropout,
		L1:      newLSTMLayer(1, units, rng),
		L2:      newLSTMLayer(units, units, rng),
		D1:      newDenseLayer(units, dense, rng),
		D2:      newDenseLayer(dense, 1, rng),
	}
}

func (n *Network) LookBack() int { return n.Window }

// Predict runs inference on one window. Dropout is inactive.
func (n *Network) Predict(window []float64) (float64, error) {
	if len(window) != n.Window {
		return 0, fmt.Errorf("window has %d values, model expects %d", len(window), n.Window)
	}
	y, _ := n.forward(window, nil, false)
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, errors.New("model produced a non-finite value")
	}
	return y, nil
}

// Validate checks the shape of a network read back from storage.
func (n *Network) Validate() error {
	if n.Window < 1 {
		return errors.New("network: lookback must be positive")
	}
	if err := n.L1.validate("lstm1"); err != nil {
		return err
	}
	if err := n.L2.validate("lstm2"); err != nil {
		return err
	}
	if err := n.D1.validate("dense1"); err != nil {
		return err
	}
	if err := n.D2.validate("dense2"); err != nil {
		return err
	}
	if n.L1.In != 1 || n.L2.In != n.L1.Hidden || n.D1.In != n.L2.Hidden || n.D2.In != n.D1.Out || n.D2.Out != 1 {
		return errors.New("network: layers do not chain")
	}
	return nil
}

func (n *Network) zeroLike() *Network {
	return &Network{
		Window:  n.Window,
		Dropout: n.Dropout,
		L1:      n.L1.zeroLike(),
		L2:      n.L2.zeroLike(),
		D1:      n.D1.zeroLike(),
		D2:      n.D2.zeroLike(),
	}
}

func (n *Network) params() [][]float64 {
	var ps [][]float64
	ps = append(ps, n.L1.params()...)
	ps = append(ps, n.L2.params()...)
	ps = append(ps, n.D1.params()...)
	ps = append(ps, n.D2.params()...)
	return ps
}

type forwardCache struct {
	steps1, steps2 []lstmStep
	a2, d1         []float64
}

func (n *Network) forward(window []float64, masks *dropoutMasks, keep bool) (float64, *forwardCache) {
	xs := make([][]float64, len(window))
	for t, v := range window {
		xs[t] = []float64{v}
	}

	h1, steps1 := n.L1.forward(xs, keep)
	if masks != nil {
		for t := range h1 {
			a := make([]float64, len(h1[t]))
			for j, v := range h1[t] {
				a[j] = v * masks.first[t][j]
			}
			h1[t] = a
		}
	}

	h2, steps2 := n.L2.forward(h1, keep)
	last := h2[len(h2)-1]
	a2 := last
	if masks != nil {
		a2 = make([]float64, len(last))
		for j, v := range last {
			a2[j] = v * masks.second[j]
		}
	}

	d1 := n.D1.forward(a2)
	y := n.D2.forward(d1)[0]
	if !keep {
		return y, nil
	}
	return y, &forwardCache{steps1: steps1, steps2: steps2, a2: a2, d1: d1}
}

// accumulate adds scale * d(squared error)/d(params) for one sample into grad and
// returns the unscaled squared error.
func (n *Network) accumulate(window []float64, target float64, masks *dropoutMasks, grad *Network, scale float64) float64 {
	y, fc := n.forward(window, masks, true)
	diff := y - target

	dd1 := n.D2.backward(fc.d1, []float64{2 * diff * scale}, grad.D2)
	da2 := n.D1.backward(fc.a2, dd1, grad.D1)
	if masks != nil {
		for j := range da2 {
			da2[j] *= masks.second[j]
		}
	}

	dh2 := make([][]float64, len(fc.steps2))
	dh2[len(dh2)-1] = da2
	da1 := n.L2.backward(fc.steps2, dh2, grad.L2)
	if masks != nil {
		for t := range da1 {
			for j := range da1[t] {
				da1[t][j] *= masks.first[t][j]
			}
		}
	}
	n.L1.backward(fc.steps1, da1, grad.L1)

	return diff * diff
}

// sampleMasks draws inverted-dropout masks for one sample, or nil when dropout is off.
func (n *Network) sampleMasks(rng *rand.Rand) *dropoutMasks {
	p := n.Dropout
	if p <= 0 {
		return nil
	}
	keep := 1 / (1 - p)
	draw := func(size int) []float64 {
		m := make([]float64, size)
		for i := range m {
			if rng.Float64() >= p {
				m[i] = keep
			}
		}
		return m
	}
	first := make([][]float64, n.Window)
	for t := range first {
		first[t] = draw(n.L1.Hidden)
	}
	return &dropoutMasks{first: first, second: draw(n.L2.Hidden)}
}
