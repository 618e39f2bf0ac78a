package nn

import (
	"fmt"

	"github.com/born-ml/neuralart/internal/parallel"
	"github.com/born-ml/neuralart/internal/tensor"
)

// KernelSize is the fixed spatial extent of every convolution filter.
const KernelSize = 3

// Conv3x3 is a 3x3 convolution with stride 1 and zero padding 1, so the
// output has the same width and height as the input.
//
// Filters and biases are frozen: Backward only produces the gradient with
// respect to the input.
//
// Shapes:
//
//	Input:   W x H x inChannels
//	Filters: outChannels tensors of 3 x 3 x inChannels
//	Bias:    1 x 1 x outChannels
//	Output:  W x H x outChannels
type Conv3x3 struct {
	state

	inChannels  int
	outChannels int

	filters []*tensor.Tensor
	bias    *tensor.Tensor

	// backWeights holds the filters re-laid out as [fy][fx][in][out] so the
	// backward pass can sweep output channels contiguously.
	backWeights []float32
}

// NewConv3x3 creates a convolution layer from pretrained filters and biases.
//
// Panics if the filters are not all 3 x 3 x d for a common d, or if the bias
// does not hold one value per filter.
func NewConv3x3(filters []*tensor.Tensor, bias *tensor.Tensor) *Conv3x3 {
	if len(filters) == 0 {
		panic("conv3x3: no filters")
	}
	in := filters[0].Depth()
	for i, f := range filters {
		if f.Width() != KernelSize || f.Height() != KernelSize || f.Depth() != in {
			panic(fmt.Sprintf("conv3x3: filter %d has shape %v, want 3x3x%d", i, f.Shape(), in))
		}
	}
	if bias.Len() != len(filters) {
		panic(fmt.Sprintf("conv3x3: %d biases for %d filters", bias.Len(), len(filters)))
	}

	out := len(filters)
	back := make([]float32, KernelSize*KernelSize*in*out)
	for d, f := range filters {
		fv := f.Values()
		for k := 0; k < KernelSize*KernelSize; k++ {
			for c := 0; c < in; c++ {
				back[(k*in+c)*out+d] = fv[k*in+c]
			}
		}
	}

	return &Conv3x3{
		inChannels:  in,
		outChannels: out,
		filters:     filters,
		bias:        bias,
		backWeights: back,
	}
}

// InChannels returns the expected input depth.
func (l *Conv3x3) InChannels() int { return l.inChannels }

// OutChannels returns the number of filters.
func (l *Conv3x3) OutChannels() int { return l.outChannels }

// Filters returns the layer's filters.
func (l *Conv3x3) Filters() []*tensor.Tensor { return l.filters }

// Bias returns the layer's bias tensor.
func (l *Conv3x3) Bias() *tensor.Tensor { return l.bias }

// Name returns a short human-readable layer name.
func (l *Conv3x3) Name() string {
	return fmt.Sprintf("conv3x3(%d->%d)", l.inChannels, l.outChannels)
}

// Forward computes
//
//	out[x, y, d] = bias[d] + sum_{fy,fx,c} filter[d][fx, fy, c] * in[x+fx-1, y+fy-1, c]
//
// skipping window positions outside the input. Parallel over output channels.
func (l *Conv3x3) Forward(input *tensor.Tensor) *tensor.Tensor {
	if input.Depth() != l.inChannels {
		panic(fmt.Sprintf("conv3x3: input depth %d != filter depth %d", input.Depth(), l.inChannels))
	}

	w, h := input.Width(), input.Height()
	in, out := l.inChannels, l.outChannels
	output := tensor.New(w, h, out, true)

	src := input.Values()
	dst := output.Values()
	bias := l.bias.Values()

	parallel.For(out, func(d int) {
		f := l.filters[d].Values()
		for ay := 0; ay < h; ay++ {
			for ax := 0; ax < w; ax++ {
				var sum float32
				for fy := 0; fy < KernelSize; fy++ {
					oy := ay + fy - 1
					if oy < 0 || oy >= h {
						continue
					}
					for fx := 0; fx < KernelSize; fx++ {
						ox := ax + fx - 1
						if ox < 0 || ox >= w {
							continue
						}
						px := src[(w*oy+ox)*in : (w*oy+ox+1)*in]
						fk := f[(KernelSize*fy+fx)*in : (KernelSize*fy+fx+1)*in]
						for c, v := range px {
							sum += fk[c] * v
						}
					}
				}
				dst[(w*ay+ax)*out+d] = sum + bias[d]
			}
		}
	}, parallel.Default())

	l.input = input
	l.output = output
	return output
}

// Backward gathers, for every input element, the output gradients of the
// 3x3 windows that covered it:
//
//	in.grad[x, y, c] = sum over fx, fy, d of filter[d][fx, fy, c] * out.grad[x-fx+1, y-fy+1, d]
//
// The input gradient is overwritten. Work is split into (input channel, row)
// pairs so parallel workers never write the same element, even for shallow
// inputs.
func (l *Conv3x3) Backward() {
	l.mustForwarded("conv3x3")

	input, output := l.input, l.output
	w, h := input.Width(), input.Height()
	in, out := l.inChannels, l.outChannels

	chain := output.Grad()
	dst := input.Grad()
	back := l.backWeights

	parallel.For(in*h, func(i int) {
		c, oy := i/h, i%h
		for ox := 0; ox < w; ox++ {
			var sum float32
			for fy := 0; fy < KernelSize; fy++ {
				ay := oy - fy + 1
				if ay < 0 || ay >= h {
					continue
				}
				for fx := 0; fx < KernelSize; fx++ {
					ax := ox - fx + 1
					if ax < 0 || ax >= w {
						continue
					}
					k := (KernelSize*fy+fx)*in + c
					wk := back[k*out : (k+1)*out]
					g := chain[(w*ay+ax)*out : (w*ay+ax+1)*out]
					for d, gv := range g {
						sum += wk[d] * gv
					}
				}
			}
			dst[(w*oy+ox)*in+c] = sum
		}
	}, parallel.Default())
}
