// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public tensor type used by neuralart.
//
// # Overview
//
// A Tensor is a dense Width x Height x Depth block of float32 values with an
// optional gradient buffer of the same size. Elements are stored depth-fastest:
//
//	index = (Width*y + x)*Depth + z
//
// Only trainable tensors carry a gradient buffer. Gradient accessors on a
// non-trainable tensor panic with ErrNotTrainable.
//
// # Basic Usage
//
//	import "github.com/born-ml/neuralart/tensor"
//
//	func main() {
//	    content := tensor.New(640, 480, 3, false)
//	    noise := tensor.Noise(640, 480, 3, -128, 128, nil)
//
//	    // 20% noise, 80% content
//	    canvas := tensor.Mix(noise, content, 0.2)
//	    canvas.SetGrad(0, 0, 0, 1)
//	}
package tensor
