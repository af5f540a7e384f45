package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/born-ml/rlconvert/internal/config"
	"github.com/born-ml/rlconvert/internal/console"
	"github.com/born-ml/rlconvert/internal/convert"
)

func newInspectCmd() *cobra.Command {
	v := config.New()
	cmd := &cobra.Command{
		Use:   "inspect DIR",
		Short: "List the checkpoint files in a folder and their network shapes",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return config.BindFlags(v, cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if v.GetBool(config.KeyNoColor) {
				console.DisableColor()
			}
			entries, err := convert.Inspect(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, console.Title(args[0]))
			fmt.Fprintln(out, console.InspectTable(entries))
			return nil
		},
	}
	cmd.Flags().Bool(config.KeyNoColor, false, "disable colored output")
	return cmd
}
