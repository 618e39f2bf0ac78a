package nn

import (
	"github.com/born-ml/neuralart/internal/parallel"
	"github.com/born-ml/neuralart/internal/tensor"
)

// ReLU applies max(0, x) element-wise.
type ReLU struct {
	state
}

// NewReLU creates a ReLU layer.
func NewReLU() *ReLU {
	return &ReLU{}
}

// Name returns a short human-readable layer name.
func (l *ReLU) Name() string { return "relu" }

// Forward returns a new tensor holding max(0, x) for every element of input.
func (l *ReLU) Forward(input *tensor.Tensor) *tensor.Tensor {
	output := tensor.New(input.Width(), input.Height(), input.Depth(), true)

	src := input.Values()
	dst := output.Values()
	parallel.ForStripes(len(src), func(start, end int) {
		for i := start; i < end; i++ {
			if v := src[i]; v > 0 {
				dst[i] = v
			}
		}
	}, parallel.Default())

	l.input = input
	l.output = output
	return output
}

// Backward overwrites the input gradient: it equals the output gradient
// where the forward output was positive and zero elsewhere.
func (l *ReLU) Backward() {
	l.mustForwarded("relu")

	out := l.output.Values()
	chain := l.output.Grad()
	dst := l.input.Grad()
	parallel.ForStripes(len(out), func(start, end int) {
		for i := start; i < end; i++ {
			if out[i] > 0 {
				dst[i] = chain[i]
			} else {
				dst[i] = 0
			}
		}
	}, parallel.Default())
}
