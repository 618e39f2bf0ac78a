// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package loader_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/neuralart/loader"
)

func TestLoadNetwork_Missing(t *testing.T) {
	_, err := loader.LoadNetwork(filepath.Join(t.TempDir(), "none.bin"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadNetwork_Truncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 64), 0o644))

	_, err := loader.LoadNetwork(path, loader.WithFormat(loader.FormatF16))
	var loadErr *loader.LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, 0, loadErr.Layer)
	assert.Equal(t, "filters", loadErr.Part)
}
