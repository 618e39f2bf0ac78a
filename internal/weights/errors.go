package weights

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrShapeMismatch     = errors.New("channel count mismatch")
	ErrUnsupportedFormat = errors.New("unsupported weight format")
)

// LoadError describes where a weight stream failed to load.
type LoadError struct {
	Layer int    // Index of the convolution layer (0-based)
	Part  string // "filters" or "biases"
	Err   error  // Underlying error (io.ErrUnexpectedEOF for truncated streams)
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("conv layer %d: reading %s: %v", e.Layer, e.Part, e.Err)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Err
}
