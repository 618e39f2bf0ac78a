// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package loader loads the VGG16 feature network from a weight file.
//
// The file is a headerless stream of little-endian float32 (or, with
// FormatF16, float16) values: for each of the eight convolution layers every
// filter weight followed by every bias.
//
// Example usage:
//
//	import "github.com/born-ml/neuralart/loader"
//
//	net, err := loader.LoadNetwork("vgg16.bin")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	net.FixStyle(style)
//	net.FixContent(content)
package loader

import (
	"bufio"
	"fmt"
	"os"

	"github.com/born-ml/neuralart/internal/vgg"
	"github.com/born-ml/neuralart/internal/weights"
)

// Network is the loaded feature network.
type Network = vgg.Network

// Option configures LoadNetwork.
type Option = vgg.Option

// LossWeights scales the style, content and total-variation terms.
type LossWeights = vgg.LossWeights

// Format is the scalar encoding of a weight file.
type Format = weights.Format

// Supported formats.
const (
	FormatF32 Format = weights.FormatF32
	FormatF16 Format = weights.FormatF16
)

// LoadError reports which layer of a weight file failed to load.
type LoadError = weights.LoadError

// Network options.
var (
	WithFormat      = vgg.WithFormat
	WithIterations  = vgg.WithIterations
	WithLossWeights = vgg.WithLossWeights
	WithLogger      = vgg.WithLogger
)

// LoadNetwork reads all eight convolution layers from path and builds the
// network. Truncated files yield an error wrapping *LoadError.
func LoadNetwork(path string, opts ...Option) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open weights: %w", err)
	}
	defer f.Close()

	return vgg.Load(bufio.NewReader(f), opts...)
}
