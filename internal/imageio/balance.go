package imageio

import (
	"image"
	"math"
)

// balanceClip is the fraction of pixels clipped at each end of every
// channel's histogram.
const balanceClip = 0.01

// Balance stretches each color channel so that its 1st and 99th percentile
// intensities map to 0 and 255. Alpha is set opaque.
func Balance(img *image.RGBA) *image.RGBA {
	b := img.Bounds()
	var hist [3][256]int
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			for c := range 3 {
				hist[c][row[4*x+c]]++
			}
		}
	}

	q := float64(b.Dx()*b.Dy()) * balanceClip
	var lo, hi [3]int
	for c := range 3 {
		lo[c], hi[c] = percentiles(&hist[c], q)
	}

	var lut [3][256]uint8
	for c := range 3 {
		span := float64(hi[c] - lo[c] + 1)
		for v := range 256 {
			n := math.RoundToEven(float64(v-lo[c]) * 255 / span)
			lut[c][v] = uint8(max(0, min(255, n)))
		}
	}

	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		src := img.Pix[img.PixOffset(b.Min.X, y):]
		dst := out.Pix[out.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			for c := range 3 {
				dst[4*x+c] = lut[c][src[4*x+c]]
			}
			dst[4*x+3] = 0xff
		}
	}
	return out
}

// percentiles returns the first intensities, scanning up and down, at which
// the cumulative count reaches q.
func percentiles(hist *[256]int, q float64) (lo, hi int) {
	s := 0
	for i := 0; i < 256; i++ {
		s += hist[i]
		if float64(s) >= q {
			lo = i
			break
		}
	}
	s = 0
	for i := 255; i >= 0; i-- {
		s += hist[i]
		if float64(s) >= q {
			hi = i
			break
		}
	}
	return lo, hi
}
