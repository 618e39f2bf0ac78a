// Package imageio converts between image files and the 3-channel float
// tensors the feature network consumes.
//
// Tensors hold raw 0-255 intensities in R, G, B channel order. Decoding
// supports PNG, JPEG and GIF from the standard library plus BMP, TIFF and
// WebP from golang.org/x/image.
package imageio

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/born-ml/neuralart/internal/tensor"
)

// Channels is the depth of image tensors.
const Channels = 3

// ErrUnsupportedFormat is returned when an output extension has no encoder.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Decode reads an image in any registered format and converts it to a
// trainable W x H x 3 tensor.
func Decode(r io.Reader) (*tensor.Tensor, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return FromImage(img), nil
}

// Load decodes the image at path and scales it to size. A zero size keeps
// the original dimensions.
func Load(path string, size Size) (*tensor.Tensor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if !size.IsZero() {
		img = Resize(img, size)
	}
	return FromImage(img), nil
}

// Resize stretches img to exactly size using bilinear interpolation.
func Resize(img image.Image, size Size) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// FromImage converts img to a trainable tensor. Alpha is ignored.
func FromImage(img image.Image) *tensor.Tensor {
	b := img.Bounds()
	t := tensor.New(b.Dx(), b.Dy(), Channels, true)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			t.Set(x, y, 0, float32(c.R))
			t.Set(x, y, 1, float32(c.G))
			t.Set(x, y, 2, float32(c.B))
		}
	}
	return t
}

// ToImage maps t linearly onto 0-255 using the minimum and maximum over all
// channels. A constant tensor yields a black image.
//
// Panics if t does not have 3 channels.
func ToImage(t *tensor.Tensor) *image.RGBA {
	if t.Depth() != Channels {
		panic(fmt.Sprintf("imageio: tensor depth %d != %d", t.Depth(), Channels))
	}

	lo, hi := t.MinMax()
	scale := float32(0)
	if hi > lo {
		scale = 255 / (hi - lo)
	}

	img := image.NewRGBA(image.Rect(0, 0, t.Width(), t.Height()))
	for y := 0; y < t.Height(); y++ {
		for x := 0; x < t.Width(); x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: toByte((t.At(x, y, 0) - lo) * scale),
				G: toByte((t.At(x, y, 1) - lo) * scale),
				B: toByte((t.At(x, y, 2) - lo) * scale),
				A: 0xff,
			})
		}
	}
	return img
}

func toByte(v float32) uint8 {
	switch {
	case v <= 0 || math.IsNaN(float64(v)):
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}

// Format is an output image encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatGIF  Format = "gif"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
)

// FormatFromPath picks the encoding from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return FormatPNG, nil
	case ".jpg", ".jpeg":
		return FormatJPEG, nil
	case ".gif":
		return FormatGIF, nil
	case ".bmp":
		return FormatBMP, nil
	case ".tif", ".tiff":
		return FormatTIFF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Encode writes img to w in the given format.
func Encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	case FormatGIF:
		return gif.Encode(w, img, nil)
	case FormatBMP:
		return bmp.Encode(w, img)
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Save renders t and writes it to path, choosing the encoding from the
// extension. With balance set the colors are stretched by Balance first.
func Save(path string, t *tensor.Tensor, balance bool) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	img := ToImage(t)
	if balance {
		img = Balance(img)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	if err := Encode(w, img, format); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
