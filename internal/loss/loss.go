// Package loss implements the style, content and total-variation losses.
//
// Every loss both returns its scalar value and adds its gradient into the
// gradient buffer of the tensor it scores, so several losses may target the
// same tensor in one backward pass.
package loss

import (
	"fmt"
	"sync"

	"github.com/born-ml/neuralart/internal/matrix"
	"github.com/born-ml/neuralart/internal/parallel"
	"github.com/born-ml/neuralart/internal/tensor"
)

// Style scores the Gram matrix of feature map x against a frozen target Gram
// matrix.
//
// With M = width*height, N = depth and D = Gram(x) - target:
//
//	loss     = k * sum(D^2) / (4 * M^2 * N^2)
//	x.grad  += k * D·F / (M^2 * N^2)        (F = Flatten(x), reshaped back)
//
// Panics if the target is not N x N.
func Style(x, target *tensor.Tensor, k float32) float32 {
	n := x.Depth()
	if target.Width() != n || target.Height() != n || target.Depth() != 1 {
		panic(fmt.Sprintf("loss.Style: target %v does not match %d channels", target.Shape(), n))
	}

	diff := matrix.Gram(x)
	d := diff.Values()
	var total float64
	for i, s := range target.Values() {
		d[i] -= s
		total += float64(d[i]) * float64(d[i])
	}

	m := float64(x.Width() * x.Height())
	norm := m * m * float64(n) * float64(n)
	result := float32(total / (4 * norm) * float64(k))

	grad := matrix.MatMul(diff, matrix.Flatten(x))
	matrix.Unflatten(grad, x, float32(float64(k)/norm))
	return result
}

// Content scores x against a frozen target c of the same shape:
//
//	loss     = k * sum(0.5 * (x - c)^2)
//	x.grad  += k * (x - c)
//
// Panics if the shapes differ.
func Content(x, c *tensor.Tensor, k float32) float32 {
	if !tensor.SameShape(x, c) {
		panic(fmt.Errorf("loss.Content: %w: %v vs %v", tensor.ErrShapeMismatch, x.Shape(), c.Shape()))
	}

	xv := x.Values()
	cv := c.Values()
	grad := x.Grad()

	var (
		mu    sync.Mutex
		total float64
	)
	parallel.ForStripes(len(xv), func(start, end int) {
		var sum float64
		for i := start; i < end; i++ {
			delta := xv[i] - cv[i]
			grad[i] += delta * k
			sum += 0.5 * float64(delta) * float64(delta)
		}
		mu.Lock()
		total += sum
		mu.Unlock()
	}, parallel.Default())

	return float32(total * float64(k))
}

// TotalVariation pulls x towards its own 3x3 box blur, scoring and injecting
// gradient exactly like Content(x, Denoise(x), k).
func TotalVariation(x *tensor.Tensor, k float32) float32 {
	return Content(x, matrix.Denoise(x), k)
}
