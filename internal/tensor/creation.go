package tensor

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/born-ml/neuralart/internal/parallel"
)

// Clone returns a trainable deep copy of t's values.
// The copy gets a fresh, zeroed gradient buffer; t's gradient is not copied.
func (t *Tensor) Clone() *Tensor {
	result := New(t.shape.Width, t.shape.Height, t.shape.Depth, true)
	parallel.ForStripes(len(t.values), func(start, end int) {
		copy(result.values[start:end], t.values[start:end])
	}, parallel.Default())
	return result
}

// Noise creates a trainable tensor whose elements are independent uniform
// integer samples in [lo, hi).
//
// The samples are drawn sequentially from rng so a seeded generator gives
// the same canvas regardless of worker count. A nil rng uses a time-seeded
// PCG source.
func Noise(w, h, d, lo, hi int, rng *rand.Rand) *Tensor {
	if hi <= lo {
		panic(fmt.Sprintf("tensor.Noise: empty range [%d, %d)", lo, hi))
	}
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}

	result := New(w, h, d, true)
	span := hi - lo
	for i := range result.values {
		result.values[i] = float32(lo + rng.IntN(span))
	}
	return result
}

// Mix blends two same-shaped tensors element-wise:
//
//	result = a*k + b*(1-k)
//
// The result is a new trainable tensor. Panics if the shapes differ.
func Mix(a, b *Tensor, k float32) *Tensor {
	if a.shape != b.shape {
		panic(fmt.Errorf("tensor.Mix: %w: %v vs %v", ErrShapeMismatch, a.shape, b.shape))
	}

	result := New(a.shape.Width, a.shape.Height, a.shape.Depth, true)
	dk := 1 - k
	parallel.ForStripes(len(a.values), func(start, end int) {
		for i := start; i < end; i++ {
			result.values[i] = a.values[i]*k + b.values[i]*dk
		}
	}, parallel.Default())
	return result
}

// SameShape reports whether a and b have identical dimensions.
func SameShape(a, b *Tensor) bool {
	return a.shape == b.shape
}
