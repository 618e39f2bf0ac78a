package runner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/neuralart/internal/optim"
	"github.com/born-ml/neuralart/internal/tensor"
	"github.com/born-ml/neuralart/internal/vgg"
	"github.com/born-ml/neuralart/internal/weights"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func smallLayers(rng *rand.Rand) []weights.Layer {
	specs := []weights.LayerSpec{
		{Out: 4, In: 3}, {Out: 4, In: 4}, {Out: 4, In: 4}, {Out: 4, In: 4},
		{Out: 4, In: 4}, {Out: 4, In: 4}, {Out: 4, In: 4}, {Out: 4, In: 4},
	}
	layers := make([]weights.Layer, len(specs))
	for i, s := range specs {
		layers[i].Bias = tensor.New(1, 1, s.Out, false)
		for range s.Out {
			f := tensor.New(3, 3, s.In, false)
			for j := range f.Values() {
				f.Values()[j] = rng.Float32() * 0.05
			}
			layers[i].Filters = append(layers[i].Filters, f)
		}
	}
	return layers
}

func smallNetwork(t *testing.T, iterations int) (*vgg.Network, *tensor.Tensor) {
	t.Helper()
	rng := rand.New(rand.NewPCG(5, 6))

	net, err := vgg.New(smallLayers(rng), vgg.WithIterations(iterations), vgg.WithLogger(quiet))
	require.NoError(t, err)

	content := tensor.Noise(8, 8, 3, 0, 256, rng)
	net.FixStyle(tensor.Noise(8, 8, 3, 0, 256, rng))
	net.FixContent(content)
	return net, InitialCanvas(content, DefaultNoiseMix, rng)
}

func drain(r *Runner) []Progress {
	var all []Progress
	for p := range r.Progress() {
		all = append(all, p)
	}
	return all
}

func TestRunner_Progress(t *testing.T) {
	net, canvas := smallNetwork(t, 20)
	r, err := New(Config{Network: net, Canvas: canvas, Logger: quiet})
	require.NoError(t, err)

	require.NoError(t, r.Start(context.Background()))
	all := drain(r)
	require.NoError(t, r.Wait())

	require.Len(t, all, 20)
	for i, p := range all {
		assert.Equal(t, i, p.Iteration)
		if i > 0 {
			assert.GreaterOrEqual(t, p.Elapsed, all[i-1].Elapsed)
		}
	}
}

func TestRunner_Stop(t *testing.T) {
	net, canvas := smallNetwork(t, 1000)
	r, err := New(Config{Network: net, Canvas: canvas, ProgressBuffer: 1, Logger: quiet})
	require.NoError(t, err)
	require.NoError(t, r.Start(context.Background()))

	first := <-r.Progress()
	assert.Equal(t, 0, first.Iteration)
	r.Stop()

	rest := drain(r)
	assert.Less(t, len(rest), 999)
	assert.True(t, errors.Is(r.Wait(), context.Canceled))
}

func TestRunner_StopReportsEveryStep(t *testing.T) {
	net, canvas := smallNetwork(t, 1000)
	opt := optim.NewAdam(optim.DefaultConfig())
	r, err := New(Config{Network: net, Optimizer: opt, Canvas: canvas, ProgressBuffer: 1, Logger: quiet})
	require.NoError(t, err)
	require.NoError(t, r.Start(context.Background()))

	<-r.Progress()
	<-r.Progress()
	r.Stop()
	rest := drain(r)
	assert.True(t, errors.Is(r.Wait(), context.Canceled))

	assert.Equal(t, opt.Timestep(), 2+len(rest))
	for i, p := range rest {
		assert.Equal(t, 2+i, p.Iteration)
	}
}

func TestRunner_ParentContext(t *testing.T) {
	net, canvas := smallNetwork(t, 1000)
	r, err := New(Config{Network: net, Canvas: canvas, Logger: quiet})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, r.Start(ctx))
	<-r.Progress()
	cancel()
	drain(r)
	assert.True(t, errors.Is(r.Wait(), context.Canceled))
}

func TestRunner_Snapshot(t *testing.T) {
	net, canvas := smallNetwork(t, 12)

	var at []int
	r, err := New(Config{
		Network:       net,
		Canvas:        canvas,
		SnapshotEvery: 5,
		Snapshot: func(i int, c *tensor.Tensor) error {
			assert.Same(t, canvas, c)
			at = append(at, i)
			return nil
		},
		Logger: quiet,
	})
	require.NoError(t, err)
	require.NoError(t, r.Start(context.Background()))
	drain(r)
	require.NoError(t, r.Wait())

	assert.Equal(t, []int{4, 9}, at)
}

func TestRunner_SnapshotError(t *testing.T) {
	net, canvas := smallNetwork(t, 100)
	errDisk := errors.New("disk full")

	r, err := New(Config{
		Network:       net,
		Canvas:        canvas,
		SnapshotEvery: 3,
		Snapshot:      func(int, *tensor.Tensor) error { return errDisk },
		Logger:        quiet,
	})
	require.NoError(t, err)
	require.NoError(t, r.Start(context.Background()))

	all := drain(r)
	err = r.Wait()
	assert.True(t, errors.Is(err, errDisk))
	assert.Len(t, all, 3)
}

func TestRunner_Lifecycle(t *testing.T) {
	net, canvas := smallNetwork(t, 2)
	r, err := New(Config{Network: net, Canvas: canvas, Logger: quiet})
	require.NoError(t, err)

	assert.True(t, errors.Is(r.Wait(), ErrNotStarted))
	r.Stop()

	require.NoError(t, r.Start(context.Background()))
	assert.True(t, errors.Is(r.Start(context.Background()), ErrAlreadyStarted))
	drain(r)
	require.NoError(t, r.Wait())
}

func TestNew_Validation(t *testing.T) {
	net, canvas := smallNetwork(t, 1)

	_, err := New(Config{Canvas: canvas})
	assert.Error(t, err)
	_, err = New(Config{Network: net})
	assert.Error(t, err)

	unfixed, err := vgg.New(smallLayers(rand.New(rand.NewPCG(1, 1))), vgg.WithLogger(quiet))
	require.NoError(t, err)
	_, err = New(Config{Network: unfixed, Canvas: canvas})
	assert.True(t, errors.Is(err, vgg.ErrNotFixed))
}

func TestInitialCanvas(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	content := tensor.New(5, 4, 3, false)
	for i := range content.Values() {
		content.Values()[i] = float32(i)
	}

	same := InitialCanvas(content, 0, rng)
	assert.Equal(t, content.Values(), same.Values())
	assert.True(t, same.Trainable())

	noise := InitialCanvas(content, 1, rng)
	assert.Equal(t, content.Shape(), noise.Shape())
	for _, v := range noise.Values() {
		require.GreaterOrEqual(t, v, float32(NoiseMin))
		require.Less(t, v, float32(NoiseMax))
	}
}
