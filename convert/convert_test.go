// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package convert_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/rlconvert/convert"
)

func TestParseMode(t *testing.T) {
	mode, err := convert.ParseMode(" to_CPP ")
	require.NoError(t, err)
	assert.Equal(t, convert.ToCompiled, mode)
	assert.Equal(t, filepath.Join("root", convert.CompiledOutputDir), convert.OutputDir("root", mode))
}

func TestMissingInputs(t *testing.T) {
	source, root := t.TempDir(), t.TempDir()
	c := &convert.Converter{Root: root}
	_, err := c.Run(context.Background(), convert.ToNative, source)

	var missing *convert.MissingInputsError
	require.True(t, errors.As(err, &missing))
	assert.ElementsMatch(t, []string{convert.CompiledPolicyFile, convert.CompiledValueFile}, missing.Missing)
	_, statErr := os.Stat(convert.OutputDir(root, convert.ToNative))
	assert.True(t, os.IsNotExist(statErr))
}

func TestInspectEmptyFolder(t *testing.T) {
	entries, err := convert.Inspect(t.TempDir())
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, e.Exists, e.Name)
	}
}
