package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/neuralart/internal/weights"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cli := NewCLI()
	cli.SetArgs(append([]string{"--threads=2"}, args...))
	cli.SetOut(&out)
	cli.SetErr(&out)
	err := cli.ExecuteContext(context.Background())
	return out.String(), err
}

// zeroWeights writes an all-zero VGG16 weight file and returns its path.
func zeroWeights(t *testing.T, dir string) (string, int) {
	t.Helper()
	n := 0
	for _, s := range weights.VGG16 {
		n += s.NumValues()
	}
	path := filepath.Join(dir, "vgg16.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 4*n), 0o644))
	return path, n
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(40 * x), G: uint8(40 * y), B: 90, A: 0xff})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "neuralart version "+version)
}

func TestInspectWeights(t *testing.T) {
	dir := t.TempDir()
	path, n := zeroWeights(t, dir)
	converted := filepath.Join(dir, "vgg16-f16.bin")

	out, err := execute(t, "inspect-weights", path, "--convert", converted, "--to", "f16")
	require.NoError(t, err)
	assert.Contains(t, out, "LAYER")
	assert.Contains(t, out, "256->512")

	info, err := os.Stat(converted)
	require.NoError(t, err)
	assert.Equal(t, int64(2*n), info.Size())

	_, err = execute(t, "inspect-weights", converted, "--f16")
	require.NoError(t, err)
}

func TestInspectWeights_Truncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 100), 0o644))

	_, err := execute(t, "inspect-weights", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "layer 0")
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	weightsPath, _ := zeroWeights(t, dir)
	content := filepath.Join(dir, "content.png")
	style := filepath.Join(dir, "style.png")
	result := filepath.Join(dir, "result.png")
	writePNG(t, content, 6, 6)
	writePNG(t, style, 8, 8)

	_, err := execute(t, "run",
		"--content", content,
		"--style", style,
		"--weights", weightsPath,
		"--out", result,
		"--size", "4x4",
		"--style-size", "original",
		"--iterations", "3",
		"--seed", "42",
		"--snapshot-every", "2",
		"--balance",
	)
	require.NoError(t, err)

	f, err := os.Open(result)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 4), img.Bounds())
}

func TestRun_InvalidFlags(t *testing.T) {
	dir := t.TempDir()
	content := filepath.Join(dir, "content.png")
	writePNG(t, content, 4, 4)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing style", []string{"--content", content}, "style"},
		{"bad size", []string{"--content", content, "--style", content, "--size", "huge"}, "invalid size"},
		{"bad output", []string{"--content", content, "--style", content, "--out", "x.svg"}, "unsupported image format"},
		{"zero iterations", []string{"--content", content, "--style", content, "--iterations", "0"}, "iterations"},
		{"missing weights", []string{"--content", content, "--style", content, "--size", "4x4", "--weights", filepath.Join(dir, "none.bin")}, "failed to open weights"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append([]string{"run"}, tt.args...)...)
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.want), err.Error())
		})
	}
}

func TestRun_BalanceOnByDefault(t *testing.T) {
	flag := newRunCmd().Flags().Lookup("balance")
	require.NotNil(t, flag)
	assert.Equal(t, "true", flag.DefValue)
}
