package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/born-ml/neuralart/internal/envconfig"
	"github.com/born-ml/neuralart/internal/imageio"
	"github.com/born-ml/neuralart/internal/optim"
	"github.com/born-ml/neuralart/internal/runner"
	"github.com/born-ml/neuralart/internal/tensor"
	"github.com/born-ml/neuralart/internal/vgg"
	"github.com/born-ml/neuralart/internal/weights"
)

// logEvery is the iteration interval of progress lines at info level.
const logEvery = 50

func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Render the content image in the style of the style image",
		Args:  cobra.NoArgs,
		RunE:  RunHandler,
	}

	defaults := vgg.DefaultLossWeights()
	adam := optim.DefaultConfig()

	runCmd.Flags().String("content", "", "Content image")
	runCmd.Flags().String("style", "", "Style image")
	runCmd.Flags().String("out", "result.png", "Output image (png, jpg, gif, bmp, tif)")
	runCmd.Flags().String("weights", envconfig.Weights(), "VGG16 weight file")
	runCmd.Flags().Bool("f16", false, "Weight file holds half-precision values")
	runCmd.Flags().String("size", "vga", "Working size of the content image (preset or WxH)")
	runCmd.Flags().String("style-size", "", "Size of the style image (default: same as --size)")
	runCmd.Flags().Int("iterations", int(envconfig.Iterations()), "Number of optimization steps")
	runCmd.Flags().Float32("lr", adam.LR, "Optimizer learning rate")
	runCmd.Flags().Float32("style-weight", defaults.Style, "Weight of each style loss term")
	runCmd.Flags().Float32("content-weight", defaults.Content, "Weight of the content loss")
	runCmd.Flags().Float32("tv-weight", defaults.TV, "Weight of the total-variation smoothing")
	runCmd.Flags().Uint64("seed", 0, "Seed of the initial noise (0: random)")
	runCmd.Flags().Bool("balance", true, "Stretch the colors of the result (--balance=false to disable)")
	runCmd.Flags().Int("snapshot-every", 0, "Write the output every N iterations (0: only at the end)")

	runCmd.MarkFlagRequired("content") //nolint:errcheck
	runCmd.MarkFlagRequired("style")   //nolint:errcheck

	return runCmd
}

// runOptions holds the parsed flags of the run command.
type runOptions struct {
	content, style, out string
	weightsPath         string
	format              weights.Format
	size, styleSize     imageio.Size
	iterations          int
	lr                  float32
	lossWeights         vgg.LossWeights
	seed                uint64
	balance             bool
	snapshotEvery       int
}

func parseRunFlags(cmd *cobra.Command) (runOptions, error) {
	var o runOptions
	var err error
	flags := cmd.Flags()

	o.content, _ = flags.GetString("content")
	o.style, _ = flags.GetString("style")
	o.out, _ = flags.GetString("out")
	o.weightsPath, _ = flags.GetString("weights")
	o.iterations, _ = flags.GetInt("iterations")
	o.lr, _ = flags.GetFloat32("lr")
	o.lossWeights.Style, _ = flags.GetFloat32("style-weight")
	o.lossWeights.Content, _ = flags.GetFloat32("content-weight")
	o.lossWeights.TV, _ = flags.GetFloat32("tv-weight")
	o.seed, _ = flags.GetUint64("seed")
	o.balance, _ = flags.GetBool("balance")
	o.snapshotEvery, _ = flags.GetInt("snapshot-every")

	if f16, _ := flags.GetBool("f16"); f16 {
		o.format = weights.FormatF16
	}

	sizeFlag, _ := flags.GetString("size")
	if o.size, err = imageio.ParseSize(sizeFlag); err != nil {
		return o, err
	}
	o.styleSize = o.size
	if s, _ := flags.GetString("style-size"); s != "" {
		if o.styleSize, err = imageio.ParseSize(s); err != nil {
			return o, err
		}
	}

	if o.iterations <= 0 {
		return o, fmt.Errorf("iterations must be positive, got %d", o.iterations)
	}
	if _, err := imageio.FormatFromPath(o.out); err != nil {
		return o, err
	}
	return o, nil
}

// RunHandler performs a style transfer and writes the result. An interrupted
// run still writes the canvas reached so far.
func RunHandler(cmd *cobra.Command, _ []string) error {
	opts, err := parseRunFlags(cmd)
	if err != nil {
		return err
	}

	content, err := imageio.Load(opts.content, opts.size)
	if err != nil {
		return err
	}
	style, err := imageio.Load(opts.style, opts.styleSize)
	if err != nil {
		return err
	}

	net, err := loadNetwork(opts)
	if err != nil {
		return err
	}

	slog.Info("fixing targets", "content", content.Shape(), "style", style.Shape())
	net.FixStyle(style)
	net.FixContent(content)

	var rng *rand.Rand
	if opts.seed != 0 {
		rng = rand.New(rand.NewPCG(opts.seed, opts.seed))
	}
	canvas := runner.InitialCanvas(content, runner.DefaultNoiseMix, rng)

	cfg := runner.Config{
		Network:   net,
		Optimizer: optim.NewAdam(optim.Config{LR: opts.lr}),
		Canvas:    canvas,
	}
	if opts.snapshotEvery > 0 {
		cfg.SnapshotEvery = opts.snapshotEvery
		cfg.Snapshot = func(i int, c *tensor.Tensor) error {
			slog.Debug("writing snapshot", "iteration", i, "path", opts.out)
			return imageio.Save(opts.out, c, opts.balance)
		}
	}

	r, err := runner.New(cfg)
	if err != nil {
		return err
	}
	if err := r.Start(cmd.Context()); err != nil {
		return err
	}
	for p := range r.Progress() {
		if p.Iteration%logEvery == 0 || p.Iteration == opts.iterations-1 {
			slog.Info("progress", "iteration", p.Iteration, "loss", p.Loss, "elapsed", p.Elapsed.Round(time.Millisecond))
		}
	}

	err = r.Wait()
	interrupted := errors.Is(err, context.Canceled)
	if err != nil && !interrupted {
		return err
	}

	if err := imageio.Save(opts.out, canvas, opts.balance); err != nil {
		return err
	}
	if interrupted {
		slog.Warn("run interrupted, wrote partial result", "path", opts.out)
		return nil
	}
	slog.Info("wrote result", "path", opts.out)
	return nil
}

func loadNetwork(opts runOptions) (*vgg.Network, error) {
	f, err := os.Open(opts.weightsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open weights: %w", err)
	}
	defer f.Close()

	slog.Info("loading weights", "path", opts.weightsPath, "format", opts.format)
	return vgg.Load(bufio.NewReader(f),
		vgg.WithFormat(opts.format),
		vgg.WithIterations(opts.iterations),
		vgg.WithLossWeights(opts.lossWeights),
		vgg.WithLogger(slog.Default()),
	)
}
