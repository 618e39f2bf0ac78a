// Package parallel provides the data-parallel loops used by the numeric
// packages (tensor, matrix, nn, loss, optim).
//
// Every helper partitions its index range into disjoint chunks, so callers
// may write to per-index memory without synchronization.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 1,
	}
}

var defaultConfig atomic.Pointer[Config]

func init() {
	cfg := DefaultConfig()
	defaultConfig.Store(&cfg)
}

// Default returns the process-wide configuration used by the numeric packages.
func Default() Config {
	return *defaultConfig.Load()
}

// SetDefault replaces the process-wide configuration.
// NumWorkers <= 1 disables parallelism.
func SetDefault(cfg Config) {
	if cfg.NumWorkers <= 1 {
		cfg.Enabled = false
		cfg.NumWorkers = 1
	}
	if cfg.MinChunkSize < 1 {
		cfg.MinChunkSize = 1
	}
	defaultConfig.Store(&cfg)
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is too small.
//
// Layers use it with n = channel count, one channel per call.
func For(n int, f func(i int), cfg Config) {
	ForStripes(n, func(start, end int) {
		for i := start; i < end; i++ {
			f(i)
		}
	}, cfg)
}

// ForStripes splits [0, n) into at most cfg.NumWorkers contiguous stripes
// and calls f(start, end) for each of them.
func ForStripes(n int, f func(start, end int), cfg Config) {
	if n <= 0 {
		return
	}
	if !cfg.Enabled || cfg.NumWorkers <= 1 || n < 2*cfg.MinChunkSize {
		f(0, n)
		return
	}

	var wg sync.WaitGroup
	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			f(s, e)
		}(start, end)
	}
	wg.Wait()
}
