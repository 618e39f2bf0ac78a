package runner

import (
	"math/rand/v2"

	"github.com/born-ml/neuralart/internal/tensor"
)

// Canvas initialization defaults.
const (
	NoiseMin        = -128
	NoiseMax        = 128
	DefaultNoiseMix = 0.2
)

// InitialCanvas blends uniform noise in [NoiseMin, NoiseMax) with the
// content image: noise*mix + content*(1-mix). A nil rng is seeded from the
// clock.
func InitialCanvas(content *tensor.Tensor, mix float32, rng *rand.Rand) *tensor.Tensor {
	noise := tensor.Noise(content.Width(), content.Height(), content.Depth(), NoiseMin, NoiseMax, rng)
	return tensor.Mix(noise, content, mix)
}
