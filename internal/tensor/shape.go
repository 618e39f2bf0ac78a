package tensor

import "fmt"

// Shape is the (width, height, depth) extent of a tensor.
type Shape struct {
	Width  int
	Height int
	Depth  int
}

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	return s.Width * s.Height * s.Depth
}

// Validate checks if the shape is valid (all dimensions > 0).
func (s Shape) Validate() error {
	for i, dim := range [3]int{s.Width, s.Height, s.Depth} {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Index returns the flat offset of element (x, y, z).
//
// Elements are depth-interleaved: all channels of a pixel are adjacent,
// pixels are laid out row by row.
func (s Shape) Index(x, y, z int) int {
	return (s.Width*y+x)*s.Depth + z
}

// String implements fmt.Stringer.
func (s Shape) String() string {
	return fmt.Sprintf("%dx%dx%d", s.Width, s.Height, s.Depth)
}
