// Package optim implements the pixel-space optimizer used to update the
// canvas during style transfer.
package optim

import (
	"fmt"
	"math"
	"sync"

	"github.com/born-ml/neuralart/internal/parallel"
	"github.com/born-ml/neuralart/internal/tensor"
)

// Adam is a stateful adaptive gradient-descent optimizer for a single
// trainable tensor.
//
// It maintains exponential moving averages of the gradient (first moment)
// and of the squared gradient (second moment) per element:
//
//	g   = (grad + l1*sign(x) + l2*x) / batch
//	m_t = beta1 * m_{t-1} + (1-beta1) * g
//	v_t = beta2 * v_{t-1} + (1-beta2) * g²
//	dx  = -lr * m_t*(1-beta1^t) / (sqrt(v_t*(1-beta2^t)) + eps)
//	x  += clamp(dx, -maxStep, maxStep)
//
// The moment buffers are allocated on the first Step and sized to that
// tensor; use one Adam per optimized tensor.
//
// Example:
//
//	opt := optim.NewAdam(optim.Config{LR: 0.5})
//	for i := range iterations {
//	    net.Forward(canvas)
//	    net.Backward()
//	    opt.Step(canvas)
//	}
type Adam struct {
	lr        float32
	beta1     float32
	beta2     float32
	eps       float32
	l1Decay   float32
	l2Decay   float32
	batchSize int
	maxStep   float32

	t int       // Timestep for bias correction
	m []float32 // First moment estimates
	v []float32 // Second moment estimates
}

// Config holds configuration for the Adam optimizer.
// Zero fields take the defaults listed next to them.
type Config struct {
	LR        float32 // Learning rate (default: 0.5)
	Beta1     float32 // First moment decay (default: 0.9)
	Beta2     float32 // Second moment decay (default: 0.999)
	Eps       float32 // Term for numerical stability (default: 1e-8)
	L1Decay   float32 // L1 weight decay (default: 0, inert)
	L2Decay   float32 // L2 weight decay (default: 0, inert)
	BatchSize int     // Gradient divisor (default: 1)
	MaxStep   float32 // Per-element update magnitude ceiling (default: 20)
}

// DefaultConfig returns the configuration used for style transfer runs.
func DefaultConfig() Config {
	return Config{
		LR:        0.5,
		Beta1:     0.9,
		Beta2:     0.999,
		Eps:       1e-8,
		BatchSize: 1,
		MaxStep:   20,
	}
}

// NewAdam creates a new Adam optimizer, filling unset fields from
// DefaultConfig.
func NewAdam(config Config) *Adam {
	def := DefaultConfig()
	if config.LR == 0 {
		config.LR = def.LR
	}
	if config.Beta1 == 0 {
		config.Beta1 = def.Beta1
	}
	if config.Beta2 == 0 {
		config.Beta2 = def.Beta2
	}
	if config.Eps == 0 {
		config.Eps = def.Eps
	}
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	if config.MaxStep <= 0 {
		config.MaxStep = def.MaxStep
	}

	return &Adam{
		lr:        config.LR,
		beta1:     config.Beta1,
		beta2:     config.Beta2,
		eps:       config.Eps,
		l1Decay:   config.L1Decay,
		l2Decay:   config.L2Decay,
		batchSize: config.BatchSize,
		maxStep:   config.MaxStep,
	}
}

// Step performs a single optimization step on x using x's gradient buffer.
//
// Returns the weight-decay loss (zero unless L1Decay or L2Decay is set).
// Panics if x is not trainable or does not match the size of the tensor
// the optimizer was first used with.
func (a *Adam) Step(x *tensor.Tensor) float32 {
	if !x.Trainable() {
		panic(fmt.Errorf("adam: %w", tensor.ErrNotTrainable))
	}
	if a.m == nil {
		a.m = make([]float32, x.Len())
		a.v = make([]float32, x.Len())
	}
	if len(a.m) != x.Len() {
		panic(fmt.Sprintf("adam: tensor has %d elements, optimizer state has %d", x.Len(), len(a.m)))
	}

	// Increment timestep
	a.t++

	biasCorrection1 := float32(1.0 - math.Pow(float64(a.beta1), float64(a.t)))
	biasCorrection2 := float32(1.0 - math.Pow(float64(a.beta2), float64(a.t)))

	params := x.Values()
	grads := x.Grad()
	decaying := a.l1Decay != 0 || a.l2Decay != 0

	var (
		mu        sync.Mutex
		decayLoss float32
	)
	parallel.ForStripes(len(params), func(start, end int) {
		var local float32
		for j := start; j < end; j++ {
			p := params[j]
			g := grads[j]
			if decaying {
				local += a.l2Decay*p*p/2 + a.l1Decay*float32(math.Abs(float64(p)))
				sign := float32(-1)
				if p > 0 {
					sign = 1
				}
				g += a.l1Decay*sign + a.l2Decay*p
			}
			g /= float32(a.batchSize)

			a.m[j] = a.beta1*a.m[j] + (1-a.beta1)*g
			a.v[j] = a.beta2*a.v[j] + (1-a.beta2)*g*g

			dx := -a.lr * a.m[j] * biasCorrection1 /
				(float32(math.Sqrt(float64(a.v[j]*biasCorrection2))) + a.eps)
			if !(dx > -a.maxStep && dx < a.maxStep) {
				// Also catches NaN from non-finite gradients.
				if dx > 0 {
					dx = a.maxStep
				} else {
					dx = -a.maxStep
				}
			}
			params[j] = p + dx
		}
		if decaying {
			mu.Lock()
			decayLoss += local
			mu.Unlock()
		}
	}, parallel.Default())

	return decayLoss
}

// LR returns the current learning rate.
func (a *Adam) LR() float32 {
	return a.lr
}

// SetLR updates the learning rate.
func (a *Adam) SetLR(lr float32) {
	a.lr = lr
}

// Timestep returns the number of steps taken so far.
func (a *Adam) Timestep() int {
	return a.t
}
