// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math/rand/v2"

	"github.com/born-ml/neuralart/internal/tensor"
)

// Type aliases for public API

// Tensor is a 3-D float32 tensor with an optional gradient buffer.
type Tensor = tensor.Tensor

// Shape is the Width x Height x Depth extent of a tensor.
type Shape = tensor.Shape

// Errors.
var (
	ErrNotTrainable  = tensor.ErrNotTrainable
	ErrShapeMismatch = tensor.ErrShapeMismatch
)

// New creates a zero-filled tensor. Trainable tensors get a gradient buffer.
// Panics if any dimension is not positive.
func New(width, height, depth int, trainable bool) *Tensor {
	return tensor.New(width, height, depth, trainable)
}

// FromSlice wraps values (depth-fastest order) in a tensor.
func FromSlice(values []float32, width, height, depth int, trainable bool) (*Tensor, error) {
	return tensor.FromSlice(values, width, height, depth, trainable)
}

// Noise creates a trainable tensor of uniform integers in [lo, hi).
// A nil rng is seeded from the clock.
func Noise(width, height, depth, lo, hi int, rng *rand.Rand) *Tensor {
	return tensor.Noise(width, height, depth, lo, hi, rng)
}

// Mix returns a*k + b*(1-k) as a new trainable tensor.
func Mix(a, b *Tensor, k float32) *Tensor {
	return tensor.Mix(a, b, k)
}
