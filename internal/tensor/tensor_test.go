package tensor

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		w, h, d   int
		trainable bool
	}{
		{"pixel", 1, 1, 1, false},
		{"rgb", 4, 3, 3, true},
		{"feature map", 8, 8, 64, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := New(tt.w, tt.h, tt.d, tt.trainable)
			assert.Equal(t, Shape{tt.w, tt.h, tt.d}, x.Shape())
			assert.Equal(t, tt.w*tt.h*tt.d, x.Len())
			assert.Equal(t, tt.trainable, x.Trainable())
			if tt.trainable {
				assert.Len(t, x.Grad(), x.Len())
			}
		})
	}
}

func TestNew_InvalidShape(t *testing.T) {
	assert.Panics(t, func() { New(0, 4, 3, false) })
	assert.Panics(t, func() { New(4, -1, 3, false) })
}

func TestIndexLayout(t *testing.T) {
	x := New(3, 2, 4, false)
	// (width*y + x)*depth + z
	assert.Equal(t, 0, x.Index(0, 0, 0))
	assert.Equal(t, 3, x.Index(0, 0, 3))
	assert.Equal(t, 4, x.Index(1, 0, 0))
	assert.Equal(t, (3*1+2)*4+1, x.Index(2, 1, 1))
	assert.Equal(t, x.Len()-1, x.Index(2, 1, 3))
}

func TestAccessorsRoundTrip(t *testing.T) {
	x := New(5, 4, 3, true)
	for z := 0; z < 3; z++ {
		for y := 0; y < 4; y++ {
			for xx := 0; xx < 5; xx++ {
				v := float32(xx*100 + y*10 + z)
				x.Set(xx, y, z, v)
				x.SetGrad(xx, y, z, -v)
			}
		}
	}
	for z := 0; z < 3; z++ {
		for y := 0; y < 4; y++ {
			for xx := 0; xx < 5; xx++ {
				v := float32(xx*100 + y*10 + z)
				require.Equal(t, v, x.At(xx, y, z))
				require.Equal(t, -v, x.GradAt(xx, y, z))
			}
		}
	}

	x.Add(1, 1, 1, 0.5)
	x.AddGrad(1, 1, 1, 0.25)
	assert.Equal(t, float32(111.5), x.At(1, 1, 1))
	assert.Equal(t, float32(-110.75), x.GradAt(1, 1, 1))
}

func TestGradOnNonTrainablePanics(t *testing.T) {
	x := New(2, 2, 1, false)

	ops := map[string]func(){
		"Grad":     func() { x.Grad() },
		"GradAt":   func() { x.GradAt(0, 0, 0) },
		"SetGrad":  func() { x.SetGrad(0, 0, 0, 1) },
		"AddGrad":  func() { x.AddGrad(0, 0, 0, 1) },
		"ZeroGrad": func() { x.ZeroGrad() },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			defer func() {
				r := recover()
				require.NotNil(t, r)
				err, ok := r.(error)
				require.True(t, ok)
				assert.True(t, errors.Is(err, ErrNotTrainable))
			}()
			op()
		})
	}
	assert.False(t, x.Trainable())
}

func TestClone(t *testing.T) {
	src := New(3, 3, 2, true)
	for i := range src.Values() {
		src.Values()[i] = float32(i)
		src.Grad()[i] = 7
	}

	c := src.Clone()
	assert.Equal(t, src.Shape(), c.Shape())
	if diff := cmp.Diff(src.Values(), c.Values()); diff != "" {
		t.Errorf("clone values mismatch (-src +clone):\n%s", diff)
	}
	assert.True(t, c.Trainable())
	for _, g := range c.Grad() {
		assert.Zero(t, g)
	}

	c.Set(0, 0, 0, 42)
	assert.Equal(t, float32(0), src.At(0, 0, 0), "clone must not alias source")
}

func TestCloneNonTrainableSource(t *testing.T) {
	src := New(2, 2, 1, false)
	c := src.Clone()
	assert.True(t, c.Trainable())
}

func TestNoise(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	x := Noise(16, 16, 3, -128, 128, rng)

	assert.True(t, x.Trainable())
	for _, v := range x.Values() {
		assert.GreaterOrEqual(t, v, float32(-128))
		assert.Less(t, v, float32(128))
		assert.Equal(t, float32(int(v)), v, "samples are integers")
	}
}

func TestNoise_Deterministic(t *testing.T) {
	a := Noise(8, 8, 3, 0, 10, rand.New(rand.NewPCG(7, 7)))
	b := Noise(8, 8, 3, 0, 10, rand.New(rand.NewPCG(7, 7)))
	assert.Equal(t, a.Values(), b.Values())
}

func TestNoise_EmptyRangePanics(t *testing.T) {
	assert.Panics(t, func() { Noise(2, 2, 1, 5, 5, nil) })
}

func TestMix(t *testing.T) {
	a := New(4, 3, 3, false)
	b := New(4, 3, 3, false)
	for i := range a.Values() {
		a.Values()[i] = float32(i) * 1.5
		b.Values()[i] = -float32(i) + 3
	}

	assert.Equal(t, a.Values(), Mix(a, b, 1).Values())
	assert.Equal(t, b.Values(), Mix(a, b, 0).Values())

	half := Mix(a, b, 0.5)
	for i, v := range half.Values() {
		assert.InDelta(t, 0.5*(a.Values()[i]+b.Values()[i]), v, 1e-5)
	}
	assert.True(t, half.Trainable())
}

func TestMix_ShapeMismatchPanics(t *testing.T) {
	assert.Panics(t, func() { Mix(New(2, 2, 3, false), New(2, 2, 1, false), 0.5) })
}

func TestMinMax(t *testing.T) {
	x, err := FromSlice([]float32{3, -2, 9, 0}, 2, 2, 1, false)
	require.NoError(t, err)
	lo, hi := x.MinMax()
	assert.Equal(t, float32(-2), lo)
	assert.Equal(t, float32(9), hi)
}

func TestFromSlice_LengthMismatch(t *testing.T) {
	_, err := FromSlice(make([]float32, 5), 2, 2, 1, false)
	assert.Error(t, err)
}
