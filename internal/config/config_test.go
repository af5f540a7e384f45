package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("RLCONVERT_MODE", " to_python ")
	t.Setenv("RLCONVERT_SOURCE", "/data/checkpoints")
	t.Setenv("RLCONVERT_OUTPUT_ROOT", "/tmp/out")
	t.Setenv("RLCONVERT_NO_COLOR", "true")

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, Config{
		Mode:       "to_python",
		Source:     "/data/checkpoints",
		OutputRoot: "/tmp/out",
		NoColor:    true,
	}, cfg)
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("RLCONVERT_MODE", "to_python")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String(KeyMode, "", "")
	fs.Bool(KeyQuiet, false, "")
	require.NoError(t, fs.Parse([]string{"--mode=to_cpp", "--quiet"}))

	v := New()
	require.NoError(t, BindFlags(v, fs))
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "to_cpp", cfg.Mode)
	assert.True(t, cfg.Quiet)
}

func TestDefaultOutputRoot(t *testing.T) {
	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Empty(t, cfg.Mode)

	exe, err := os.Executable()
	require.NoError(t, err)
	exe, err = filepath.EvalSymlinks(exe)
	require.NoError(t, err)
	assert.Equal(t, filepath.Dir(exe), cfg.OutputRoot)
}
