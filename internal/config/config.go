// Package config resolves rlconvert settings from flags and the environment.
//
// Every setting can come from a command-line flag or from an environment
// variable named RLCONVERT_<KEY>, with dashes turned into underscores
// (RLCONVERT_OUTPUT_ROOT, RLCONVERT_NO_COLOR, ...). Flags win over the
// environment.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "RLCONVERT"

// Setting keys, also used as flag names.
const (
	KeyMode       = "mode"
	KeySource     = "source"
	KeyOutputRoot = "output-root"
	KeyNoColor    = "no-color"
	KeyQuiet      = "quiet"
)

// Config holds the resolved settings.
type Config struct {
	Mode       string // Empty means ask interactively
	Source     string // Empty means ask interactively
	OutputRoot string // Folder the output folder is created in
	NoColor    bool
	Quiet      bool // Hide the progress bar
}

// New returns a viper instance reading RLCONVERT_* variables.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault(KeyNoColor, false)
	v.SetDefault(KeyQuiet, false)
	return v
}

// BindFlags binds every flag in fs whose name is a setting key.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, key := range []string{KeyMode, KeySource, KeyOutputRoot, KeyNoColor, KeyQuiet} {
		f := fs.Lookup(key)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return errors.Wrapf(err, "binding flag --%s", key)
		}
	}
	return nil
}

// Load resolves the settings. An unset output root defaults to the folder
// holding the running executable.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Mode:       strings.TrimSpace(v.GetString(KeyMode)),
		Source:     strings.TrimSpace(v.GetString(KeySource)),
		OutputRoot: strings.TrimSpace(v.GetString(KeyOutputRoot)),
		NoColor:    v.GetBool(KeyNoColor),
		Quiet:      v.GetBool(KeyQuiet),
	}
	if cfg.OutputRoot == "" {
		root, err := DefaultOutputRoot()
		if err != nil {
			return cfg, err
		}
		cfg.OutputRoot = root
	}
	return cfg, nil
}

// DefaultOutputRoot returns the directory of the running executable, with
// symlinks resolved.
func DefaultOutputRoot() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", errors.Wrap(err, "cannot locate the rlconvert executable")
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}
