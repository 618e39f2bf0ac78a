package vgg

import (
	"log/slog"

	"github.com/born-ml/neuralart/internal/weights"
)

// DefaultIterations is the number of optimization steps in a run.
const DefaultIterations = 1000

// LossWeights scales the three loss terms.
type LossWeights struct {
	Style   float32 // Applied to each of the four style taps
	Content float32 // Applied to the content tap
	TV      float32 // Total-variation smoothing on the canvas
}

// DefaultLossWeights returns the weights used for style transfer runs.
func DefaultLossWeights() LossWeights {
	return LossWeights{
		Style:   0.2e6,
		Content: 8,
		TV:      1,
	}
}

type options struct {
	format     weights.Format
	weights    LossWeights
	iterations int
	logger     *slog.Logger
}

func defaultOptions() options {
	return options{
		format:     weights.FormatF32,
		weights:    DefaultLossWeights(),
		iterations: DefaultIterations,
		logger:     slog.Default(),
	}
}

// Option configures a Network.
type Option func(*options)

// WithFormat selects the scalar encoding of the weight stream given to Load.
func WithFormat(f weights.Format) Option {
	return func(o *options) { o.format = f }
}

// WithLossWeights overrides the loss weights.
func WithLossWeights(w LossWeights) Option {
	return func(o *options) { o.weights = w }
}

// WithIterations overrides the number of iterations of Run.
// Non-positive values keep the default.
func WithIterations(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.iterations = n
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
