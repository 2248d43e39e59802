package lstm

import (
	"fmt"
	"math"
	"math/rand"
)

// LSTMLayer is a single LSTM cell unrolled over a sequence. Gate rows are stacked
// in the order input, forget, cell, output.
type LSTMLayer struct {
	In     int       `json:"in"`
	Hidden int       `json:"hidden"`
	W      []float64 `json:"w"` // 4H x In
	U      []float64 `json:"u"` // 4H x H
	B      []float64 `json:"b"` // 4H
}

// lstmStep keeps what backward needs from one timestep.
type lstmStep struct {
	x, hPrev, cPrev []float64
	i, f, g, o      []float64
	c, tc           []float64
}

func newLSTMLayer(in, hidden int, rng *rand.Rand) *LSTMLayer {
	l := &LSTMLayer{
		In:     in,
		Hidden: hidden,
		W:      make([]float64, 4*hidden*in),
		U:      make([]float64, 4*hidden*hidden),
		B:      make([]float64, 4*hidden),
	}
	glorot(l.W, in, 4*hidden, rng)
	glorot(l.U, hidden, 4*hidden, rng)
	for j := hidden; j < 2*hidden; j++ {
		l.B[j] = 1
	}
	return l
}

func (l *LSTMLayer) zeroLike() *LSTMLayer {
	return &LSTMLayer{
		In:     l.In,
		Hidden: l.Hidden,
		W:      make([]float64, len(l.W)),
		U:      make([]float64, len(l.U)),
		B:      make([]float64, len(l.B)),
	}
}

func (l *LSTMLayer) params() [][]float64 { return [][]float64{l.W, l.U, l.B} }

func (l *LSTMLayer) validate(name string) error {
	if l == nil {
		return fmt.Errorf("%s: missing", name)
	}
	h, in := l.Hidden, l.In
	if h < 1 || in < 1 || len(l.W) != 4*h*in || len(l.U) != 4*h*h || len(l.B) != 4*h {
		return fmt.Errorf("%s: inconsistent shape", name)
	}
	return nil
}

// forward runs the cell over xs and returns the hidden state at every step.
// steps is nil when keep is false.
func (l *LSTMLayer) forward(xs [][]float64, keep bool) ([][]float64, []lstmStep) {
	H := l.Hidden
	h := make([]float64, H)
	c := make([]float64, H)
	hs := make([][]float64, len(xs))
	var steps []lstmStep
	if keep {
		steps = make([]lstmStep, len(xs))
	}
	z := make([]float64, 4*H)

	for t, x := range xs {
		for r := 0; r < 4*H; r++ {
			s := l.B[r]
			wr := l.W[r*l.In : (r+1)*l.In]
			for k, xv := range x {
				s += wr[k] * xv
			}
			ur := l.U[r*H : (r+1)*H]
			for k, hv := range h {
				s += ur[k] * hv
			}
			z[r] = s
		}

		ig := make([]float64, H)
		fg := make([]float64, H)
		gg := make([]float64, H)
		og := make([]float64, H)
		cn := make([]float64, H)
		tc := make([]float64, H)
		hn := make([]float64, H)
		for j := 0; j < H; j++ {
			ig[j] = sigmoid(z[j])
			fg[j] = sigmoid(z[H+j])
			gg[j] = math.Tanh(z[2*H+j])
			og[j] = sigmoid(z[3*H+j])
			cn[j] = fg[j]*c[j] + ig[j]*gg[j]
			tc[j] = math.Tanh(cn[j])
			hn[j] = og[j] * tc[j]
		}
		if keep {
			steps[t] = lstmStep{x: x, hPrev: h, cPrev: c, i: ig, f: fg, g: gg, o: og, c: cn, tc: tc}
		}
		h, c = hn, cn
		hs[t] = hn
	}
	return hs, steps
}

// backward accumulates parameter gradients into grad and returns dL/dx per step.
// dhs[t] is the upstream gradient on h_t; nil means zero.
func (l *LSTMLayer) backward(steps []lstmStep, dhs [][]float64, grad *LSTMLayer) [][]float64 {
	H, In := l.Hidden, l.In
	dxs := make([][]float64, len(steps))
	dhNext := make([]float64, H)
	dcNext := make([]float64, H)
	dz := make([]float64, 4*H)

	for t := len(steps) - 1; t >= 0; t-- {
		st := steps[t]
		for j := 0; j < H; j++ {
			dh := dhNext[j]
			if dhs[t] != nil {
				dh += dhs[t][j]
			}
			o, tc := st.o[j], st.tc[j]
			dc := dcNext[j] + dh*o*(1-tc*tc)
			i, f, g := st.i[j], st.f[j], st.g[j]

			dz[j] = dc * g * i * (1 - i)
			dz[H+j] = dc * st.cPrev[j] * f * (1 - f)
			dz[2*H+j] = dc * i * (1 - g*g)
			dz[3*H+j] = dh * tc * o * (1 - o)
			dcNext[j] = dc * f
		}

		dx := make([]float64, In)
		dhPrev := make([]float64, H)
		for r := 0; r < 4*H; r++ {
			d := dz[r]
			if d == 0 {
				continue
			}
			grad.B[r] += d
			wr := l.W[r*In : (r+1)*In]
			gw := grad.W[r*In : (r+1)*In]
			for k := 0; k < In; k++ {
				gw[k] += d * st.x[k]
				dx[k] += d * wr[k]
			}
			ur := l.U[r*H : (r+1)*H]
			gu := grad.U[r*H : (r+1)*H]
			for k := 0; k < H; k++ {
				gu[k] += d * st.hPrev[k]
				dhPrev[k] += d * ur[k]
			}
		}
		dxs[t] = dx
		dhNext = dhPrev
	}
	return dxs
}

// DenseLayer is a fully connected layer with linear activation.
type DenseLayer struct {
	In  int       `json:"in"`
	Out int       `json:"out"`
	W   []float64 `json:"w"` // Out x In
	B   []float64 `json:"b"`
}

func newDenseLayer(in, out int, rng *rand.Rand) *DenseLayer {
	d := &DenseLayer{In: in, Out: out, W: make([]float64, in*out), B: make([]float64, out)}
	glorot(d.W, in, out, rng)
	return d
}

func (d *DenseLayer) zeroLike() *DenseLayer {
	return &DenseLayer{In: d.In, Out: d.Out, W: make([]float64, len(d.W)), B: make([]float64, len(d.B))}
}

func (d *DenseLayer) params() [][]float64 { return [][]float64{d.W, d.B} }

func (d *DenseLayer) validate(name string) error {
	if d == nil {
		return fmt.Errorf("%s: missing", name)
	}
	if d.In < 1 || d.Out < 1 || len(d.W) != d.In*d.Out || len(d.B) != d.Out {
		return fmt.Errorf("%s: inconsistent shape", name)
	}
	return nil
}

func (d *DenseLayer) forward(x []float64) []float64 {
	y := make([]float64, d.Out)
	for r := 0; r < d.Out; r++ {
		s := d.B[r]
		wr := d.W[r*d.In : (r+1)*d.In]
		for k, xv := range x {
			s += wr[k] * xv
		}
		y[r] = s
	}
	return y
}

func (d *DenseLayer) backward(x, dy []float64, grad *DenseLayer) []float64 {
	dx := make([]float64, d.In)
	for r := 0; r < d.Out; r++ {
		g := dy[r]
		grad.B[r] += g
		wr := d.W[r*d.In : (r+1)*d.In]
		gw := grad.W[r*d.In : (r+1)*d.In]
		for k := 0; k < d.In; k++ {
			gw[k] += g * x[k]
			dx[k] += g * wr[k]
		}
	}
	return dx
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

// glorot fills w with the Glorot uniform distribution.
func glorot(w []float64, fanIn, fanOut int, rng *rand.Rand) {
	limit := math.Sqrt(6 / float64(fanIn+fanOut))
	for i := range w {
		w[i] = (rng.Float64()*2 - 1) * limit
	}
}
