// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides the pixel-space optimizer used by style transfer.
//
// # Overview
//
// Adam keeps per-element first and second moment estimates of the canvas
// gradient and moves every element by at most MaxStep per step.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/neuralart/loader"
//	    "github.com/born-ml/neuralart/optim"
//	)
//
//	func main() {
//	    net, _ := loader.LoadNetwork("vgg16.bin")
//	    net.FixStyle(style)
//	    net.FixContent(content)
//
//	    optimizer := optim.NewAdam(optim.Config{LR: 0.5})
//	    net.StartIterativeProcess(canvas, optimizer, nil)
//	}
package optim
