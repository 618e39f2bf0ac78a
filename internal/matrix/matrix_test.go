package matrix

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/neuralart/internal/tensor"
)

func fromRows(t *testing.T, rows [][]float32) *tensor.Tensor {
	t.Helper()
	var flat []float32
	for _, r := range rows {
		flat = append(flat, r...)
	}
	m, err := tensor.FromSlice(flat, len(rows[0]), len(rows), 1, false)
	require.NoError(t, err)
	return m
}

func randomFeatures(w, h, d int, seed uint64) *tensor.Tensor {
	rng := rand.New(rand.NewPCG(seed, seed))
	f := tensor.New(w, h, d, true)
	for i := range f.Values() {
		f.Values()[i] = rng.Float32()*2 - 1
	}
	return f
}

func TestFlatten(t *testing.T) {
	f := tensor.New(2, 2, 3, false)
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			for z := 0; z < 3; z++ {
				f.Set(x, y, z, float32(100*z+10*y+x))
			}
		}
	}

	m := Flatten(f)
	assert.Equal(t, tensor.Shape{Width: 4, Height: 3, Depth: 1}, m.Shape())
	for z := 0; z < 3; z++ {
		assert.Equal(t,
			[]float32{float32(100 * z), float32(100*z + 1), float32(100*z + 10), float32(100*z + 11)},
			m.Values()[z*4:(z+1)*4])
	}
}

func TestUnflattenInvertsFlatten(t *testing.T) {
	f := randomFeatures(3, 5, 4, 1)
	m := Flatten(f)

	dst := tensor.New(3, 5, 4, true)
	Unflatten(m, dst, 2)
	for i, v := range f.Values() {
		assert.InDelta(t, 2*v, dst.Grad()[i], 1e-6)
	}
}

func TestTranspose(t *testing.T) {
	m := fromRows(t, [][]float32{
		{1, 2, 3},
		{4, 5, 6},
	})
	tr := Transpose(m)
	assert.Equal(t, tensor.Shape{Width: 2, Height: 3, Depth: 1}, tr.Shape())
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, tr.Values())
}

func TestMatMul(t *testing.T) {
	a := fromRows(t, [][]float32{
		{1, 2},
		{3, 4},
		{5, 6},
	})
	b := fromRows(t, [][]float32{
		{1, 0, 2},
		{0, 1, 3},
	})

	c := MatMul(a, b)
	assert.Equal(t, tensor.Shape{Width: 3, Height: 3, Depth: 1}, c.Shape())
	assert.Equal(t, []float32{
		1, 2, 8,
		3, 4, 18,
		5, 6, 28,
	}, c.Values())
}

func TestMatMul_DimensionMismatchPanics(t *testing.T) {
	a := tensor.New(3, 2, 1, false)
	b := tensor.New(2, 2, 1, false)
	assert.Panics(t, func() { MatMul(a, b) })
	assert.Panics(t, func() { MatMul(tensor.New(2, 2, 2, false), b) })
}

func TestGram_Symmetric(t *testing.T) {
	for _, shape := range []tensor.Shape{
		{Width: 4, Height: 4, Depth: 3},
		{Width: 7, Height: 5, Depth: 16},
		{Width: 1, Height: 1, Depth: 8},
	} {
		t.Run(shape.String(), func(t *testing.T) {
			f := randomFeatures(shape.Width, shape.Height, shape.Depth, 42)
			g := Gram(f)
			n := shape.Depth
			require.Equal(t, tensor.Shape{Width: n, Height: n, Depth: 1}, g.Shape())
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					assert.Equal(t, g.At(i, j, 0), g.At(j, i, 0))
				}
			}
		})
	}
}

func TestGram_Values(t *testing.T) {
	// two pixels, two channels: F = [[1, 3], [2, 4]]
	f := tensor.New(2, 1, 2, false)
	f.Set(0, 0, 0, 1)
	f.Set(0, 0, 1, 2)
	f.Set(1, 0, 0, 3)
	f.Set(1, 0, 1, 4)

	g := Gram(f)
	assert.Equal(t, []float32{10, 14, 14, 20}, g.Values())
}

func TestDenoise(t *testing.T) {
	x := tensor.New(4, 4, 2, true)
	for i := range x.Values() {
		x.Values()[i] = float32(i % 7)
	}
	x.Set(1, 1, 0, 90)

	out := Denoise(x)
	require.Equal(t, x.Shape(), out.Shape())

	// interior: mean of the 3x3 window
	var sum float32
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			sum += x.At(1+dx, 1+dy, 0)
		}
	}
	assert.InDelta(t, sum/9, out.At(1, 1, 0), 1e-5)

	// borders untouched
	for i := 0; i < 4; i++ {
		for z := 0; z < 2; z++ {
			assert.Equal(t, x.At(i, 0, z), out.At(i, 0, z))
			assert.Equal(t, x.At(i, 3, z), out.At(i, 3, z))
			assert.Equal(t, x.At(0, i, z), out.At(0, i, z))
			assert.Equal(t, x.At(3, i, z), out.At(3, i, z))
		}
	}
}

func TestDenoise_ConstantIsFixedPoint(t *testing.T) {
	x := tensor.New(6, 5, 3, true)
	for i := range x.Values() {
		x.Values()[i] = 12
	}
	out := Denoise(x)
	for _, v := range out.Values() {
		assert.InDelta(t, 12, v, 1e-5)
	}
}
