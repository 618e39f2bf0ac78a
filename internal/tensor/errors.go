package tensor

import "errors"

// Common errors.
var (
	ErrNotTrainable  = errors.New("tensor is not trainable: no gradient buffer")
	ErrShapeMismatch = errors.New("tensor shapes do not match")
)
