package weights

import (
	"math"
)

// LayerStats summarizes the parameters of one convolution layer.
type LayerStats struct {
	Index      int
	Spec       LayerSpec
	WeightMin  float32
	WeightMax  float32
	WeightMean float64
	BiasMin    float32
	BiasMax    float32
}

// Summarize computes per-layer statistics for decoded layers.
func Summarize(layers []Layer) []LayerStats {
	stats := make([]LayerStats, len(layers))
	for i, layer := range layers {
		s := LayerStats{
			Index:     i,
			Spec:      layer.Spec(),
			WeightMin: float32(math.Inf(1)),
			WeightMax: float32(math.Inf(-1)),
		}

		var sum float64
		var n int
		for _, f := range layer.Filters {
			for _, v := range f.Values() {
				s.WeightMin = min(s.WeightMin, v)
				s.WeightMax = max(s.WeightMax, v)
				sum += float64(v)
				n++
			}
		}
		if n > 0 {
			s.WeightMean = sum / float64(n)
		}
		s.BiasMin, s.BiasMax = layer.Bias.MinMax()
		stats[i] = s
	}
	return stats
}
