// Package tensor implements the dense 3-D float32 buffer used throughout
// neuralart: feature maps, filters, Gram matrices and the canvas being
// optimized.
//
// A tensor stores Width*Height*Depth values in depth-interleaved order
// (see Shape.Index). Trainable tensors additionally own a gradient buffer of
// the same length.
package tensor

import (
	"fmt"
)

// Tensor is a dense width x height x depth buffer of float32 values with an
// optional gradient buffer.
//
// Element accessors do no bounds checking of their own; out-of-range
// coordinates either alias another element or panic on the flat slice.
//
// Example:
//
//	t := tensor.New(4, 4, 3, true)
//	t.Set(1, 2, 0, 0.5)
//	t.AddGrad(1, 2, 0, 1)
type Tensor struct {
	shape  Shape
	values []float32
	grad   []float32 // nil unless trainable
}

// New creates a zero-filled tensor.
//
// Parameters:
//   - w, h, d: Width, height and depth (all must be >= 1)
//   - trainable: Whether the tensor owns a gradient buffer
//
// Panics if any dimension is not positive.
func New(w, h, d int, trainable bool) *Tensor {
	shape := Shape{Width: w, Height: h, Depth: d}
	if err := shape.Validate(); err != nil {
		panic(fmt.Sprintf("tensor.New: %v", err))
	}

	t := &Tensor{
		shape:  shape,
		values: make([]float32, shape.NumElements()),
	}
	if trainable {
		t.grad = make([]float32, shape.NumElements())
	}
	return t
}

// FromSlice creates a tensor that takes ownership of values.
func FromSlice(values []float32, w, h, d int, trainable bool) (*Tensor, error) {
	shape := Shape{Width: w, Height: h, Depth: d}
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.NumElements() != len(values) {
		return nil, fmt.Errorf("%w: shape %v requires %d elements, but got %d", ErrShapeMismatch, shape, shape.NumElements(), len(values))
	}

	t := &Tensor{shape: shape, values: values}
	if trainable {
		t.grad = make([]float32, len(values))
	}
	return t, nil
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape { return t.shape }

// Width returns the x extent.
func (t *Tensor) Width() int { return t.shape.Width }

// Height returns the y extent.
func (t *Tensor) Height() int { return t.shape.Height }

// Depth returns the number of channels.
func (t *Tensor) Depth() int { return t.shape.Depth }

// Len returns the total number of elements.
func (t *Tensor) Len() int { return len(t.values) }

// Trainable reports whether the tensor has a gradient buffer.
func (t *Tensor) Trainable() bool { return t.grad != nil }

// Values returns the flat value buffer.
//
// WARNING: Modifications to the returned slice will modify the tensor.
func (t *Tensor) Values() []float32 { return t.values }

// Grad returns the flat gradient buffer.
// Panics if the tensor is not trainable.
func (t *Tensor) Grad() []float32 {
	t.mustTrainable("Grad")
	return t.grad
}

// Index returns the flat offset of element (x, y, z).
func (t *Tensor) Index(x, y, z int) int {
	return t.shape.Index(x, y, z)
}

// At returns the value at (x, y, z).
func (t *Tensor) At(x, y, z int) float32 {
	return t.values[t.shape.Index(x, y, z)]
}

// Set stores v at (x, y, z).
func (t *Tensor) Set(x, y, z int, v float32) {
	t.values[t.shape.Index(x, y, z)] = v
}

// Add adds v to the value at (x, y, z).
func (t *Tensor) Add(x, y, z int, v float32) {
	t.values[t.shape.Index(x, y, z)] += v
}

// GradAt returns the gradient at (x, y, z).
func (t *Tensor) GradAt(x, y, z int) float32 {
	t.mustTrainable("GradAt")
	return t.grad[t.shape.Index(x, y, z)]
}

// SetGrad stores v as the gradient at (x, y, z).
func (t *Tensor) SetGrad(x, y, z int, v float32) {
	t.mustTrainable("SetGrad")
	t.grad[t.shape.Index(x, y, z)] = v
}

// AddGrad adds v to the gradient at (x, y, z).
func (t *Tensor) AddGrad(x, y, z int, v float32) {
	t.mustTrainable("AddGrad")
	t.grad[t.shape.Index(x, y, z)] += v
}

// ZeroGrad resets every gradient element to zero.
func (t *Tensor) ZeroGrad() {
	t.mustTrainable("ZeroGrad")
	clear(t.grad)
}

// MinMax returns the smallest and largest value over all channels.
func (t *Tensor) MinMax() (lo, hi float32) {
	lo, hi = t.values[0], t.values[0]
	for _, v := range t.values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}

// String implements fmt.Stringer.
func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor(%v, trainable=%t)", t.shape, t.Trainable())
}

func (t *Tensor) mustTrainable(op string) {
	if t.grad == nil {
		panic(fmt.Errorf("tensor.%s: %w", op, ErrNotTrainable))
	}
}
