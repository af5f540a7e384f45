package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/born-ml/rlconvert/internal/config"
	"github.com/born-ml/rlconvert/internal/console"
	"github.com/born-ml/rlconvert/internal/convert"
)

func newConvertCmd() *cobra.Command {
	v := config.New()
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a checkpoint folder",
		Long: `Convert a checkpoint folder.

to_cpp reads PPO_POLICY.pt and PPO_VALUE_NET.pt and writes POLICY.LT and
CRITIC.LT into CPP_CHECKPOINT. to_python reads POLICY.LT and CRITIC.LT and
writes both networks plus fresh Adam optimizer states into PYTHON_CHECKPOINT.
Mode and folder are asked for interactively when not given.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return config.BindFlags(v, cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConvert(cmd, v)
		},
	}
	f := cmd.Flags()
	f.String(config.KeyMode, "", "conversion mode, 'to_cpp' or 'to_python'")
	f.String(config.KeySource, "", "folder holding the checkpoint to convert")
	f.String(config.KeyOutputRoot, "", "folder the output folder is created in (defaults to the executable's folder)")
	f.Bool(config.KeyNoColor, false, "disable colored output")
	f.BoolP(config.KeyQuiet, "q", false, "hide the progress bar")
	return cmd
}

func runConvert(cmd *cobra.Command, v *viper.Viper) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	if cfg.NoColor {
		console.DisableColor()
	}
	out := cmd.OutOrStdout()
	prompter := console.NewPrompter(cmd.InOrStdin(), out)

	var mode convert.Mode
	if cfg.Mode != "" {
		if mode, err = convert.ParseMode(cfg.Mode); err != nil {
			return errors.Wrapf(err, "invalid --%s", config.KeyMode)
		}
	} else if mode, err = prompter.Mode(); err != nil {
		return err
	}

	source := cfg.Source
	if source == "" {
		if source, err = prompter.Folder(); err != nil {
			return err
		}
		if source == "" {
			return errNoFolder
		}
	}
	if source, err = filepath.Abs(source); err != nil {
		return errors.Wrapf(err, "resolving %q", source)
	}
	fmt.Fprintf(out, "Selected folder: %s\n", source)
	fmt.Fprintln(out, modeBanner(mode))

	c := &convert.Converter{Root: cfg.OutputRoot}
	if f, ok := out.(*os.File); ok && !cfg.Quiet && console.IsTerminal(f) {
		c.Observer = console.NewProgress(f)
	}
	res, err := c.Run(cmd.Context(), mode, source)
	if err != nil {
		return err
	}
	printResult(out, res)
	return nil
}

func modeBanner(mode convert.Mode) string {
	if mode == convert.ToCompiled {
		return "Converting native checkpoint (.pt) to compiled graphs (.LT)"
	}
	return "Converting compiled graphs (.LT) to native checkpoint (.pt)"
}

func printResult(w io.Writer, res *convert.Result) {
	fmt.Fprintln(w, console.Title("Artifacts"))
	fmt.Fprintln(w, console.ResultTable(res))
	fmt.Fprintln(w, console.Title("Networks"))
	fmt.Fprintln(w, console.ShapeTable(res))
	fmt.Fprintln(w, console.Done("Done!"))
	fmt.Fprintf(w, "Output folder: %s\n", res.OutputDir)
}
