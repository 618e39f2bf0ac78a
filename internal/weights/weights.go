// Package weights reads and writes the binary stream holding the pretrained
// convolution parameters of the feature network.
//
// The stream has no header. For each convolution layer, in network order, it
// holds every filter weight followed by every bias:
//
//	for out := range outChannels {
//	    for in := range inChannels {
//	        for row := range 3 {
//	            for col := range 3 {
//	                weight
//	            }
//	        }
//	    }
//	}
//	for out := range outChannels {
//	    bias
//	}
//
// Values are little-endian IEEE 754 float32 (FormatF32). FormatF16 stores the
// same layout as little-endian IEEE 754 half-precision values, halving the
// file size.
package weights

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/x448/float16"

	"github.com/born-ml/neuralart/internal/tensor"
)

// Format selects the scalar encoding of a weight stream.
type Format int

const (
	FormatF32 Format = iota // little-endian float32
	FormatF16               // little-endian float16
)

// String implements fmt.Stringer.
func (f Format) String() string {
	switch f {
	case FormatF32:
		return "f32"
	case FormatF16:
		return "f16"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat parses "f32" or "f16" (case-insensitive).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "f32", "float32", "":
		return FormatF32, nil
	case "f16", "float16":
		return FormatF16, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

func (f Format) size() int {
	if f == FormatF16 {
		return 2
	}
	return 4
}

// KernelSize is the spatial extent of every stored filter.
const KernelSize = 3

// LayerSpec is the channel geometry of one convolution layer.
type LayerSpec struct {
	Out int // Number of filters
	In  int // Depth of each filter
}

// NumValues returns how many scalars the layer occupies in the stream.
func (s LayerSpec) NumValues() int {
	return s.Out*s.In*KernelSize*KernelSize + s.Out
}

// VGG16 lists the eight convolution layers of the feature network, in
// stream order.
var VGG16 = []LayerSpec{
	{Out: 64, In: 3},
	{Out: 64, In: 64},
	{Out: 128, In: 64},
	{Out: 128, In: 128},
	{Out: 256, In: 128},
	{Out: 256, In: 256},
	{Out: 256, In: 256},
	{Out: 512, In: 256},
}

// Layer holds the decoded parameters of one convolution layer.
type Layer struct {
	Filters []*tensor.Tensor // Out tensors of 3 x 3 x In
	Bias    *tensor.Tensor   // 1 x 1 x Out
}

// Spec returns the layer's channel geometry.
func (l Layer) Spec() LayerSpec {
	if len(l.Filters) == 0 {
		return LayerSpec{}
	}
	return LayerSpec{Out: len(l.Filters), In: l.Filters[0].Depth()}
}

// ValidateSpecs checks that consecutive layers chain: every layer's input
// depth equals the previous layer's output depth.
func ValidateSpecs(specs []LayerSpec) error {
	for i, s := range specs {
		if s.Out <= 0 || s.In <= 0 {
			return fmt.Errorf("%w: layer %d has %d->%d channels", ErrShapeMismatch, i, s.In, s.Out)
		}
		if i > 0 && s.In != specs[i-1].Out {
			return fmt.Errorf("%w: layer %d expects %d input channels, layer %d produces %d",
				ErrShapeMismatch, i, s.In, i-1, specs[i-1].Out)
		}
	}
	return nil
}

// Reader decodes convolution layers from a weight stream.
type Reader struct {
	r      io.Reader
	format Format
	layer  int
	buf    []byte
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader, format Format) *Reader {
	return &Reader{r: r, format: format}
}

// ReadLayer decodes the next convolution layer with the given geometry.
// Truncated streams yield a *LoadError wrapping io.ErrUnexpectedEOF.
func (r *Reader) ReadLayer(spec LayerSpec) (Layer, error) {
	if r.format != FormatF32 && r.format != FormatF16 {
		return Layer{}, fmt.Errorf("%w: %v", ErrUnsupportedFormat, r.format)
	}
	index := r.layer

	perFilter := spec.In * KernelSize * KernelSize
	weights, err := r.readValues(spec.Out * perFilter)
	if err != nil {
		return Layer{}, &LoadError{Layer: index, Part: "filters", Err: err}
	}
	biases, err := r.readValues(spec.Out)
	if err != nil {
		return Layer{}, &LoadError{Layer: index, Part: "biases", Err: err}
	}

	layer := Layer{Filters: make([]*tensor.Tensor, spec.Out)}
	for o := range spec.Out {
		f := tensor.New(KernelSize, KernelSize, spec.In, false)
		src := weights[o*perFilter : (o+1)*perFilter]
		i := 0
		for c := range spec.In {
			for y := range KernelSize {
				for x := range KernelSize {
					f.Set(x, y, c, src[i])
					i++
				}
			}
		}
		layer.Filters[o] = f
	}
	layer.Bias, err = tensor.FromSlice(biases, 1, 1, spec.Out, false)
	if err != nil {
		return Layer{}, &LoadError{Layer: index, Part: "biases", Err: err}
	}

	r.layer++
	return layer, nil
}

// ReadAll decodes one layer per spec, in order. No partial result is
// returned on error.
func ReadAll(r io.Reader, format Format, specs []LayerSpec) ([]Layer, error) {
	if err := ValidateSpecs(specs); err != nil {
		return nil, err
	}

	reader := NewReader(r, format)
	layers := make([]Layer, 0, len(specs))
	for _, spec := range specs {
		layer, err := reader.ReadLayer(spec)
		if err != nil {
			return nil, err
		}
		layers = append(layers, layer)
	}
	return layers, nil
}

func (r *Reader) readValues(n int) ([]float32, error) {
	size := r.format.size()
	if cap(r.buf) < n*size {
		r.buf = make([]byte, n*size)
	}
	buf := r.buf[:n*size]
	if _, err := io.ReadFull(r.r, buf); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}

	values := make([]float32, n)
	switch r.format {
	case FormatF16:
		for i := range values {
			values[i] = float16.Frombits(binary.LittleEndian.Uint16(buf[2*i:])).Float32()
		}
	default:
		for i := range values {
			values[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
		}
	}
	return values, nil
}

// Write serializes layers in stream order using format.
func Write(w io.Writer, layers []Layer, format Format) error {
	if format != FormatF32 && format != FormatF16 {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
	size := format.size()

	for i, layer := range layers {
		spec := layer.Spec()
		values := make([]float32, 0, spec.NumValues())
		for _, f := range layer.Filters {
			for c := range spec.In {
				for y := range KernelSize {
					for x := range KernelSize {
						values = append(values, f.At(x, y, c))
					}
				}
			}
		}
		values = append(values, layer.Bias.Values()...)

		buf := make([]byte, len(values)*size)
		for j, v := range values {
			if format == FormatF16 {
				binary.LittleEndian.PutUint16(buf[2*j:], float16.Fromfloat32(v).Bits())
			} else {
				binary.LittleEndian.PutUint32(buf[4*j:], math.Float32bits(v))
			}
		}
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("failed to write conv layer %d: %w", i, err)
		}
	}
	return nil
}
