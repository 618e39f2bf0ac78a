// Package runner drives a style transfer run on a background goroutine.
//
// The runner owns the canvas for the duration of a run. Progress is reported
// on a channel, one value per iteration, and the run can be stopped at the
// next iteration boundary.
//
// Example:
//
//	r, err := runner.New(runner.Config{Network: net, Optimizer: opt, Canvas: canvas})
//	if err != nil {
//	    return err
//	}
//	if err := r.Start(ctx); err != nil {
//	    return err
//	}
//	for p := range r.Progress() {
//	    fmt.Println(p.Iteration, p.Loss)
//	}
//	return r.Wait()
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/born-ml/neuralart/internal/optim"
	"github.com/born-ml/neuralart/internal/tensor"
	"github.com/born-ml/neuralart/internal/vgg"
)

// DefaultProgressBuffer is the progress channel capacity used when
// Config.ProgressBuffer is zero.
const DefaultProgressBuffer = 16

// Common errors.
var (
	ErrAlreadyStarted = errors.New("runner already started")
	ErrNotStarted     = errors.New("runner not started")
)

// Progress describes one completed iteration.
type Progress struct {
	Iteration int
	Loss      float32
	Elapsed   time.Duration // Since Start
}

// SnapshotFunc receives the canvas after selected iterations. It runs on the
// optimization goroutine, so the canvas is not modified while it executes.
// A non-nil error stops the run.
type SnapshotFunc func(iteration int, canvas *tensor.Tensor) error

// Config configures a Runner.
type Config struct {
	Network   *vgg.Network   // Targets must already be fixed
	Optimizer *optim.Adam    // Default: optim.DefaultConfig()
	Canvas    *tensor.Tensor // Optimized in place

	SnapshotEvery int          // Call Snapshot every N iterations (0: never)
	Snapshot      SnapshotFunc // Optional

	ProgressBuffer int          // Progress channel capacity (default: 16)
	Logger         *slog.Logger // Default: slog.Default()
}

// Runner runs one optimization in the background.
type Runner struct {
	cfg Config

	progress chan Progress

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	group   *errgroup.Group
	snapErr error
}

// New validates cfg and creates a Runner.
func New(cfg Config) (*Runner, error) {
	if cfg.Network == nil {
		return nil, errors.New("runner: network is required")
	}
	if cfg.Canvas == nil {
		return nil, errors.New("runner: canvas is required")
	}
	if !cfg.Network.Fixed() {
		return nil, fmt.Errorf("runner: %w", vgg.ErrNotFixed)
	}
	if cfg.Optimizer == nil {
		cfg.Optimizer = optim.NewAdam(optim.DefaultConfig())
	}
	if cfg.ProgressBuffer <= 0 {
		cfg.ProgressBuffer = DefaultProgressBuffer
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Runner{
		cfg:      cfg,
		progress: make(chan Progress, cfg.ProgressBuffer),
	}, nil
}

// Progress returns the channel of per-iteration updates. It is closed when
// the run ends. Every completed iteration is reported exactly once, even
// after Stop. The run blocks while the channel is full, so callers must
// drain it.
func (r *Runner) Progress() <-chan Progress {
	return r.progress
}

// Start launches the run. A Runner can be started once.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return ErrAlreadyStarted
	}
	r.started = true

	ctx, r.cancel = context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)
	r.group = g

	g.Go(func() error {
		defer close(r.progress)
		return r.run(ctx)
	})
	return nil
}

// Stop asks the run to end at the next iteration boundary. It does not wait.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
}

// Wait blocks until the run ends. A stopped run returns context.Canceled.
func (r *Runner) Wait() error {
	r.mu.Lock()
	g := r.group
	r.mu.Unlock()
	if g == nil {
		return ErrNotStarted
	}

	err := g.Wait()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancel()
	if r.snapErr != nil {
		return r.snapErr
	}
	return err
}

func (r *Runner) run(ctx context.Context) error {
	logger := r.cfg.Logger
	canvas := r.cfg.Canvas
	start := time.Now()
	logger.Info("style transfer started", "iterations", r.cfg.Network.Iterations(), "canvas", canvas.Shape())

	err := r.cfg.Network.Run(ctx, canvas, r.cfg.Optimizer, func(i int, loss float32) {
		r.progress <- Progress{Iteration: i, Loss: loss, Elapsed: time.Since(start)}
		if ctx.Err() != nil {
			return
		}

		if r.cfg.Snapshot == nil || r.cfg.SnapshotEvery <= 0 || (i+1)%r.cfg.SnapshotEvery != 0 {
			return
		}
		if err := r.cfg.Snapshot(i, canvas); err != nil {
			r.mu.Lock()
			r.snapErr = fmt.Errorf("snapshot at iteration %d: %w", i, err)
			r.cancel()
			r.mu.Unlock()
		}
	})

	switch {
	case errors.Is(err, context.Canceled):
		logger.Info("style transfer stopped", "elapsed", time.Since(start))
	case err != nil:
		logger.Error("style transfer failed", "error", err)
	default:
		logger.Info("style transfer finished", "elapsed", time.Since(start))
	}
	return err
}
