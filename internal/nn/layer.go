// Package nn implements the fixed-shape layers of the feature network.
//
// This package provides:
//   - Layer interface: forward and backward over tensor.Tensor
//   - Conv3x3: 3x3 convolution, stride 1, zero padding 1, frozen weights
//   - ReLU: element-wise max(0, x)
//   - AvgPool2x2: 2x2 average pooling, stride 2
//
// Layers own the output of their last Forward call and keep a reference to
// its input. Backward reads the output's gradient buffer and writes the
// input's, so the caller must deposit the output gradient first.
package nn

import (
	"fmt"

	"github.com/born-ml/neuralart/internal/tensor"
)

// Layer is the interface shared by all network layers.
type Layer interface {
	// Forward computes a new output tensor from input and retains both.
	Forward(input *tensor.Tensor) *tensor.Tensor

	// Backward propagates the output gradient into the input gradient.
	//
	// Must be called after Forward, once the output gradient has been
	// populated. The input tensor must be trainable.
	Backward()

	// Input returns the tensor passed to the last Forward call.
	Input() *tensor.Tensor

	// Output returns the tensor produced by the last Forward call.
	Output() *tensor.Tensor

	// Name returns a short human-readable layer name.
	Name() string
}

// state holds the input/output pair every layer retains between passes.
type state struct {
	input  *tensor.Tensor
	output *tensor.Tensor
}

func (s *state) Input() *tensor.Tensor  { return s.input }
func (s *state) Output() *tensor.Tensor { return s.output }

func (s *state) mustForwarded(op string) {
	if s.input == nil || s.output == nil {
		panic(fmt.Sprintf("%s: Backward called before Forward", op))
	}
}
