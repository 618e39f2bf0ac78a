package matrix

import (
	"github.com/born-ml/neuralart/internal/parallel"
	"github.com/born-ml/neuralart/internal/tensor"
)

// Denoise returns a 3x3 box-blurred copy of t.
//
// Every interior element becomes the unweighted mean of itself and its 8
// neighbours in the same channel. Border elements (first/last row and column)
// are copied unchanged, so a smoothing loss built on the result leaves them
// alone.
func Denoise(t *tensor.Tensor) *tensor.Tensor {
	result := t.Clone()
	w, h, d := t.Width(), t.Height(), t.Depth()
	if w < 3 || h < 3 {
		return result
	}

	src := t.Values()
	dst := result.Values()
	parallel.For(d, func(z int) {
		for y := 1; y < h-1; y++ {
			for x := 1; x < w-1; x++ {
				var sum float32
				for dy := -1; dy <= 1; dy++ {
					row := (y + dy) * w
					for dx := -1; dx <= 1; dx++ {
						sum += src[(row+x+dx)*d+z]
					}
				}
				dst[(y*w+x)*d+z] = sum / 9
			}
		}
	}, parallel.Default())
	return result
}
