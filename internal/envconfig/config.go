// Package envconfig reads NEURALART_* environment variables.
//
// Each accessor reads the environment on every call. Invalid values are
// reported with slog.Warn and replaced by the default.
package envconfig

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Var returns the trimmed value of an environment variable, with surrounding
// quotes removed.
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}

// Weights returns the default path of the weight file.
// Configurable via NEURALART_WEIGHTS. Default: "vgg16.bin".
func Weights() string {
	if s := Var("NEURALART_WEIGHTS"); s != "" {
		return s
	}
	return "vgg16.bin"
}

// LogLevel returns the log level.
// Configurable via NEURALART_DEBUG: 0/false = INFO (default), 1/true = DEBUG.
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("NEURALART_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}
	return level
}

// Uint returns a function reading key as an unsigned integer, falling back
// to defaultValue when unset or invalid.
func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return uint(n)
			}
		}
		return defaultValue
	}
}

var (
	// Threads is the number of parallel workers.
	// Configurable via NEURALART_THREADS. Default: runtime.NumCPU().
	Threads = Uint("NEURALART_THREADS", uint(runtime.NumCPU()))

	// Iterations is the number of optimization steps per run.
	// Configurable via NEURALART_ITERATIONS. Default: 1000.
	Iterations = Uint("NEURALART_ITERATIONS", 1000)
)

// EnvVar describes one environment variable and its current value.
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap returns every supported variable with its effective value.
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"NEURALART_WEIGHTS":    {"NEURALART_WEIGHTS", Weights(), "Path of the VGG16 weight file (default \"vgg16.bin\")"},
		"NEURALART_DEBUG":      {"NEURALART_DEBUG", LogLevel(), "Show additional debug information (e.g. NEURALART_DEBUG=1)"},
		"NEURALART_THREADS":    {"NEURALART_THREADS", Threads(), "Number of parallel workers (default: number of CPUs)"},
		"NEURALART_ITERATIONS": {"NEURALART_ITERATIONS", Iterations(), "Optimization steps per run (default: 1000)"},
	}
}

// Values returns every supported variable formatted as a string.
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}
