package nn

import (
	"github.com/born-ml/neuralart/internal/parallel"
	"github.com/born-ml/neuralart/internal/tensor"
)

// PoolSize is the window and stride of AvgPool2x2.
const PoolSize = 2

// poolDivisor is applied to every window, including clipped ones.
const poolDivisor = PoolSize * PoolSize

// AvgPool2x2 averages disjoint 2x2 windows.
//
// The output is floor(W/2) x floor(H/2) x D, but never smaller than 1 x 1.
// Windows always divide by 4, even where fewer than four samples are in
// bounds.
type AvgPool2x2 struct {
	state
}

// NewAvgPool2x2 creates an average pooling layer.
func NewAvgPool2x2() *AvgPool2x2 {
	return &AvgPool2x2{}
}

// Name returns a short human-readable layer name.
func (l *AvgPool2x2) Name() string { return "avgpool2x2" }

// Forward averages each 2x2 window of input. Parallel over channels.
func (l *AvgPool2x2) Forward(input *tensor.Tensor) *tensor.Tensor {
	w, h, d := input.Width(), input.Height(), input.Depth()
	ow, oh := max(w/PoolSize, 1), max(h/PoolSize, 1)
	output := tensor.New(ow, oh, d, true)

	src := input.Values()
	dst := output.Values()
	parallel.For(d, func(z int) {
		for ay := 0; ay < oh; ay++ {
			for ax := 0; ax < ow; ax++ {
				var sum float32
				for fy := 0; fy < PoolSize; fy++ {
					oy := PoolSize*ay + fy
					if oy >= h {
						continue
					}
					for fx := 0; fx < PoolSize; fx++ {
						ox := PoolSize*ax + fx
						if ox >= w {
							continue
						}
						sum += src[(w*oy+ox)*d+z]
					}
				}
				dst[(ow*ay+ax)*d+z] = sum / poolDivisor
			}
		}
	}, parallel.Default())

	l.input = input
	l.output = output
	return output
}

// Backward spreads each output gradient evenly (divided by 4) onto its
// in-bounds source positions. The input gradient is zeroed first; windows are
// disjoint, so each input element receives at most one contribution.
func (l *AvgPool2x2) Backward() {
	l.mustForwarded("avgpool2x2")

	input, output := l.input, l.output
	input.ZeroGrad()

	w, h, d := input.Width(), input.Height(), input.Depth()
	ow, oh := output.Width(), output.Height()

	chain := output.Grad()
	dst := input.Grad()
	parallel.For(d, func(z int) {
		for ay := 0; ay < oh; ay++ {
			for ax := 0; ax < ow; ax++ {
				g := chain[(ow*ay+ax)*d+z] / poolDivisor
				for fy := 0; fy < PoolSize; fy++ {
					oy := PoolSize*ay + fy
					if oy >= h {
						continue
					}
					for fx := 0; fx < PoolSize; fx++ {
						ox := PoolSize*ax + fx
						if ox >= w {
							continue
						}
						dst[(w*oy+ox)*d+z] += g
					}
				}
			}
		}
	}, parallel.Default())
}
