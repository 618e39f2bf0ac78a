// Package matrix provides the 2-D helpers used for style statistics.
//
// A 2-D matrix is a tensor with depth 1: rows run along y (Height) and
// columns along x (Width), so element (row r, column c) is At(c, r, 0) and
// the value buffer is plain row-major storage.
package matrix

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/born-ml/neuralart/internal/parallel"
	"github.com/born-ml/neuralart/internal/tensor"
)

// Flatten reshapes a w x h x d feature map into a d x (w*h) matrix.
//
// Row c holds channel c's spatial samples in row-major pixel order.
func Flatten(t *tensor.Tensor) *tensor.Tensor {
	spatial := t.Width() * t.Height()
	depth := t.Depth()
	result := tensor.New(spatial, depth, 1, true)

	src := t.Values()
	dst := result.Values()
	parallel.For(depth, func(c int) {
		row := dst[c*spatial : (c+1)*spatial]
		for i := range row {
			row[i] = src[i*depth+c]
		}
	}, parallel.Default())
	return result
}

// Unflatten is the inverse of Flatten for a matrix holding d rows of w*h
// samples. It adds the matrix, scaled by k, into dst's gradient buffer.
func Unflatten(m *tensor.Tensor, dst *tensor.Tensor, k float32) {
	spatial := dst.Width() * dst.Height()
	depth := dst.Depth()
	if m.Width() != spatial || m.Height() != depth || m.Depth() != 1 {
		panic(fmt.Sprintf("matrix.Unflatten: matrix %v does not match feature map %v", m.Shape(), dst.Shape()))
	}

	src := m.Values()
	grad := dst.Grad()
	parallel.For(depth, func(c int) {
		row := src[c*spatial : (c+1)*spatial]
		for i, v := range row {
			grad[i*depth+c] += v * k
		}
	}, parallel.Default())
}

// Transpose returns the transpose of a 2-D tensor.
func Transpose(t *tensor.Tensor) *tensor.Tensor {
	mustMatrix("Transpose", t)

	rows, cols := t.Height(), t.Width()
	result := tensor.New(rows, cols, 1, true)

	src := t.Values()
	dst := result.Values()
	parallel.For(rows, func(r int) {
		for c := 0; c < cols; c++ {
			dst[c*rows+r] = src[r*cols+c]
		}
	}, parallel.Default())
	return result
}

// MatMul returns the matrix product a·b.
//
// a is (n x k), b is (k x m); the result is (n x m). The product is computed
// with the float32 BLAS GEMM from gonum.
func MatMul(a, b *tensor.Tensor) *tensor.Tensor {
	mustMatrix("MatMul", a)
	mustMatrix("MatMul", b)
	if a.Width() != b.Height() {
		panic(fmt.Sprintf("matrix.MatMul: inner dimensions differ: (%d x %d) · (%d x %d)",
			a.Height(), a.Width(), b.Height(), b.Width()))
	}

	result := tensor.New(b.Width(), a.Height(), 1, true)
	blas32.Gemm(blas.NoTrans, blas.NoTrans, 1, general(a), general(b), 0, general(result))
	return result
}

// Gram computes the channel correlation matrix F·Fᵀ of a feature map,
// where F = Flatten(t). The result is d x d and exactly symmetric: the upper
// triangle comes from a rank-k update (SYRK) and is mirrored into the lower.
func Gram(t *tensor.Tensor) *tensor.Tensor {
	f := Flatten(t)
	n := t.Depth()
	result := tensor.New(n, n, 1, true)

	g := result.Values()
	blas32.Syrk(blas.NoTrans, 1, general(f), 0, blas32.Symmetric{
		Uplo:   blas.Upper,
		N:      n,
		Stride: n,
		Data:   g,
	})
	for i := 1; i < n; i++ {
		for j := 0; j < i; j++ {
			g[i*n+j] = g[j*n+i]
		}
	}
	return result
}

func general(t *tensor.Tensor) blas32.General {
	return blas32.General{
		Rows:   t.Height(),
		Cols:   t.Width(),
		Stride: t.Width(),
		Data:   t.Values(),
	}
}

func mustMatrix(op string, t *tensor.Tensor) {
	if t.Depth() != 1 {
		panic(fmt.Sprintf("matrix.%s: expected a 2-D tensor, got %v", op, t.Shape()))
	}
}
