package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/rlconvert/internal/console"
	"github.com/born-ml/rlconvert/internal/convert"
	"github.com/born-ml/rlconvert/internal/nn"
	"github.com/born-ml/rlconvert/internal/serialization"
	"github.com/born-ml/rlconvert/internal/tensor"
)

func init() {
	console.DisableColor()
}

// execute runs the CLI with args, feeding stdin and capturing stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func writeCheckpoint(t *testing.T, dir string) {
	t.Helper()
	policy := must.M1(nn.NewDiscreteFF(5, 3, []int{8}, tensor.CPU))
	value := must.M1(nn.NewValueEstimator(5, []int{8}, tensor.CPU))
	must.M1(serialization.WriteFile(filepath.Join(dir, convert.PolicyFile), policy.StateDict(), nil))
	must.M1(serialization.WriteFile(filepath.Join(dir, convert.ValueFile), value.StateDict(), nil))
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "rlconvert "+version+"\n", out)
}

func TestConvertNoFolder(t *testing.T) {
	root := t.TempDir()
	out, err := execute(t, "bogus\nto_cpp\n\n", "convert", "--output-root", root)
	require.ErrorIs(t, err, errNoFolder)
	assert.Equal(t, 2, strings.Count(out, console.ModePrompt))
	assert.Contains(t, out, console.FolderPrompt)

	var stderr bytes.Buffer
	assert.Equal(t, 1, report(&stderr, err))
	assert.Equal(t, "No folder selected. Exiting.\n", stderr.String())

	_, statErr := os.Stat(filepath.Join(root, convert.CompiledOutputDir))
	assert.True(t, os.IsNotExist(statErr))
}

func TestConvertMissingCompiledInputs(t *testing.T) {
	source := t.TempDir()
	_, err := execute(t, "", "convert", "--mode", "to_python", "--source", source, "--output-root", t.TempDir())
	require.Error(t, err)

	var stderr bytes.Buffer
	assert.Equal(t, 1, report(&stderr, err))
	assert.Equal(t, "Missing 'POLICY.LT' or 'CRITIC.LT' files in the selected folder.\n", stderr.String())
}

func TestConvertBothWays(t *testing.T) {
	source, root := t.TempDir(), t.TempDir()
	writeCheckpoint(t, source)

	out, err := execute(t, "to_cpp\n"+source+"\n", "convert", "--output-root", root, "-q")
	require.NoError(t, err)
	compiled := filepath.Join(root, convert.CompiledOutputDir)
	assert.Contains(t, out, "Selected folder: "+source)
	assert.Contains(t, out, convert.CompiledValueFile)
	assert.Contains(t, out, "Done!")
	assert.Contains(t, out, "Output folder: "+compiled)

	out, err = execute(t, "", "convert", "--mode", "TO_PYTHON", "--source", compiled, "--output-root", root)
	require.NoError(t, err)
	assert.Contains(t, out, convert.ValueOptimizerFile)
	for _, name := range []string{convert.PolicyFile, convert.ValueFile, convert.PolicyOptimizerFile, convert.ValueOptimizerFile} {
		assert.FileExists(t, filepath.Join(root, convert.NativeOutputDir, name))
	}
}

func TestConvertInvalidModeFlag(t *testing.T) {
	_, err := execute(t, "", "convert", "--mode", "cpp", "--source", t.TempDir(), "--output-root", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--mode")
	assert.Equal(t, 1, report(&bytes.Buffer{}, err))
}

func TestConvertOutputRootFromEnvironment(t *testing.T) {
	source, root := t.TempDir(), t.TempDir()
	writeCheckpoint(t, source)
	t.Setenv("RLCONVERT_OUTPUT_ROOT", root)
	t.Setenv("RLCONVERT_SOURCE", source)
	t.Setenv("RLCONVERT_MODE", "to_cpp")

	_, err := execute(t, "", "convert")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, convert.CompiledOutputDir, convert.CompiledPolicyFile))
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	writeCheckpoint(t, dir)
	out, err := execute(t, "", "inspect", dir)
	require.NoError(t, err)
	assert.Contains(t, out, convert.PolicyFile)
	assert.Contains(t, out, "5 → [8] → 3")

	_, err = execute(t, "", "inspect")
	assert.Error(t, err)
}
