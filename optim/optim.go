// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/born-ml/neuralart/internal/optim"
)

// Adam is the adaptive optimizer applied to the canvas.
type Adam = optim.Adam

// Config holds Adam hyperparameters. Zero fields take defaults.
type Config = optim.Config

// DefaultConfig returns the hyperparameters used for style transfer:
// LR 0.5, betas 0.9/0.999, eps 1e-8, batch size 1, step clamp 20.
func DefaultConfig() Config {
	return optim.DefaultConfig()
}

// NewAdam creates a new Adam optimizer.
//
// Example:
//
//	optimizer := optim.NewAdam(optim.Config{LR: 0.5})
//	optimizer.Step(canvas)
func NewAdam(config Config) *Adam {
	return optim.NewAdam(config)
}
