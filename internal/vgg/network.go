// Package vgg implements the fixed VGG16-style feature network used for
// style transfer, together with the iterative pixel optimization loop.
//
// The network has 19 layers in four blocks:
//
//	block 1: conv(64)  relu  conv(64)  relu  pool
//	block 2: conv(128) relu  conv(128) relu  pool
//	block 3: conv(256) relu  conv(256) relu  conv(256) relu  pool
//	block 4: conv(512) relu
//
// Style statistics are tapped at the first ReLU of every block, content at
// the third ReLU of block 3.
package vgg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/born-ml/neuralart/internal/loss"
	"github.com/born-ml/neuralart/internal/matrix"
	"github.com/born-ml/neuralart/internal/nn"
	"github.com/born-ml/neuralart/internal/optim"
	"github.com/born-ml/neuralart/internal/tensor"
	"github.com/born-ml/neuralart/internal/weights"
)

// NumLayers is the number of layers in the network.
const NumLayers = 19

// Layer indices of the feature taps.
var (
	StyleTaps  = [4]int{1, 6, 11, 18}
	ContentTap = 15
)

// convIndices lists the positions of the eight convolutions.
var convIndices = [8]int{0, 2, 5, 7, 10, 12, 14, 17}

// poolIndices lists the positions of the three pooling layers.
var poolIndices = [3]int{4, 9, 16}

// Common errors.
var (
	ErrNotFixed      = errors.New("style and content targets must be fixed before optimizing")
	ErrShapeMismatch = errors.New("canvas does not match the network input")
)

// ProgressFunc is called once per iteration with the iteration index and the
// total loss of that iteration.
type ProgressFunc func(iteration int, loss float32)

// Network is the fixed feature extractor plus the frozen style and content
// targets.
type Network struct {
	layers []nn.Layer

	styleTargets  [len(StyleTaps)]*tensor.Tensor
	contentTarget *tensor.Tensor

	opts options
}

// Load reads the eight convolution layers from a weight stream and builds
// the network. Any load error aborts construction.
func Load(r io.Reader, opts ...Option) (*Network, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	convs, err := weights.ReadAll(r, o.format, weights.VGG16)
	if err != nil {
		return nil, fmt.Errorf("failed to load feature network: %w", err)
	}
	return New(convs, opts...)
}

// New builds the network from already decoded convolution layers.
//
// The layers must chain (see weights.ValidateSpecs); their channel widths
// are otherwise free, which keeps small networks cheap to test.
func New(convs []weights.Layer, opts ...Option) (*Network, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if len(convs) != len(convIndices) {
		return nil, fmt.Errorf("%w: need %d convolution layers, got %d",
			weights.ErrShapeMismatch, len(convIndices), len(convs))
	}
	specs := make([]weights.LayerSpec, len(convs))
	for i, c := range convs {
		specs[i] = c.Spec()
	}
	if err := weights.ValidateSpecs(specs); err != nil {
		return nil, err
	}

	layers := make([]nn.Layer, NumLayers)
	for i := range layers {
		layers[i] = nn.NewReLU()
	}
	for i, idx := range convIndices {
		layers[idx] = nn.NewConv3x3(convs[i].Filters, convs[i].Bias)
	}
	for _, idx := range poolIndices {
		layers[idx] = nn.NewAvgPool2x2()
	}

	return &Network{layers: layers, opts: o}, nil
}

// Layers returns the network's layers in order.
func (n *Network) Layers() []nn.Layer {
	return n.layers
}

// InputChannels returns the depth expected of input images.
func (n *Network) InputChannels() int {
	return n.layers[0].(*nn.Conv3x3).InChannels()
}

// Iterations returns the number of iterations Run performs.
func (n *Network) Iterations() int {
	return n.opts.iterations
}

// LossWeights returns the loss weights in use.
func (n *Network) LossWeights() LossWeights {
	return n.opts.weights
}

// Forward runs every layer in sequence on input. Each layer keeps its output
// for the feature taps and for Backward.
func (n *Network) Forward(input *tensor.Tensor) {
	if input.Depth() != n.InputChannels() {
		panic(fmt.Sprintf("vgg: input depth %d != %d", input.Depth(), n.InputChannels()))
	}
	act := input
	for _, l := range n.layers {
		act = l.Forward(act)
	}
}

// StyleTap returns the current output of style tap i (0..3).
func (n *Network) StyleTap(i int) *tensor.Tensor {
	return n.layers[StyleTaps[i]].Output()
}

// ContentTapOutput returns the current output of the content tap.
func (n *Network) ContentTapOutput() *tensor.Tensor {
	return n.layers[ContentTap].Output()
}

// FixStyle runs the style image through the network and freezes the Gram
// matrix of every style tap as a target.
func (n *Network) FixStyle(style *tensor.Tensor) {
	n.Forward(style)
	for i := range StyleTaps {
		n.styleTargets[i] = matrix.Gram(n.StyleTap(i))
	}
	n.opts.logger.Debug("style targets fixed", "shape", style.Shape())
}

// FixContent runs the content image through the network and freezes a copy
// of the content tap as a target.
func (n *Network) FixContent(content *tensor.Tensor) {
	n.Forward(content)
	n.contentTarget = n.ContentTapOutput().Clone()
	n.opts.logger.Debug("content target fixed", "shape", content.Shape())
}

// Fixed reports whether both style and content targets are set.
func (n *Network) Fixed() bool {
	return n.contentTarget != nil && n.styleTargets[0] != nil
}

// Backward scores the current forward pass against the frozen targets and
// propagates gradients down to the input tensor's gradient buffer.
//
// Loss terms are injected deepest first, each right before the backward
// sweep that consumes it:
//
//	style 4 -> layers 18..16 -> content -> layers 15..12 -> style 3 ->
//	layers 11..7 -> style 2 -> layers 6..2 -> style 1 -> layers 1..0
//
// Panics with ErrNotFixed if the targets are not set.
func (n *Network) Backward() float32 {
	if !n.Fixed() {
		panic(ErrNotFixed)
	}
	w := n.opts.weights

	deepest := n.layers[StyleTaps[3]].Output()
	deepest.ZeroGrad()
	total := loss.Style(deepest, n.styleTargets[3], w.Style)
	n.backward(18, 16)

	total += loss.Content(n.ContentTapOutput(), n.contentTarget, w.Content)
	n.backward(15, 12)

	total += loss.Style(n.StyleTap(2), n.styleTargets[2], w.Style)
	n.backward(11, 7)

	total += loss.Style(n.StyleTap(1), n.styleTargets[1], w.Style)
	n.backward(6, 2)

	total += loss.Style(n.StyleTap(0), n.styleTargets[0], w.Style)
	n.backward(1, 0)

	return total
}

// backward runs Backward on layers from..to inclusive, deepest first.
func (n *Network) backward(from, to int) {
	for i := from; i >= to; i-- {
		n.layers[i].Backward()
	}
}

// Step runs one full iteration on canvas: forward, backward, total-variation
// smoothing and an optimizer update. It returns the iteration's total loss.
func (n *Network) Step(canvas *tensor.Tensor, opt *optim.Adam) float32 {
	n.Forward(canvas)
	l := n.Backward()
	l += loss.TotalVariation(canvas, n.opts.weights.TV)
	l += opt.Step(canvas)
	return l
}

// Run optimizes canvas in place for Iterations() steps, calling progress
// after every step with strictly increasing indices starting at 0.
//
// Cancellation is checked only between iterations; a cancelled run returns
// ctx.Err() and leaves canvas at the last completed iteration.
func (n *Network) Run(ctx context.Context, canvas *tensor.Tensor, opt *optim.Adam, progress ProgressFunc) error {
	if !n.Fixed() {
		return ErrNotFixed
	}
	if !canvas.Trainable() {
		return fmt.Errorf("vgg: canvas: %w", tensor.ErrNotTrainable)
	}
	if canvas.Depth() != n.InputChannels() {
		return fmt.Errorf("%w: canvas depth %d, network expects %d",
			ErrShapeMismatch, canvas.Depth(), n.InputChannels())
	}
	n.Forward(canvas)
	if got, want := n.ContentTapOutput().Shape(), n.contentTarget.Shape(); got != want {
		return fmt.Errorf("%w: canvas %v gives content features %v, target is %v",
			ErrShapeMismatch, canvas.Shape(), got, want)
	}

	logger := n.opts.logger
	logger.Debug("optimization started", "iterations", n.opts.iterations, "canvas", canvas.Shape())
	start := time.Now()

	for i := 0; i < n.opts.iterations; i++ {
		if err := ctx.Err(); err != nil {
			logger.Debug("optimization cancelled", "iteration", i)
			return err
		}

		l := n.Step(canvas, opt)
		logger.Debug("iteration done", "iteration", i, "loss", l)
		if progress != nil {
			progress(i, l)
		}
	}

	logger.Debug("optimization finished", "elapsed", time.Since(start))
	return nil
}

// StartIterativeProcess is Run without cancellation.
func (n *Network) StartIterativeProcess(canvas *tensor.Tensor, opt *optim.Adam, progress ProgressFunc) error {
	return n.Run(context.Background(), canvas, opt, progress)
}
