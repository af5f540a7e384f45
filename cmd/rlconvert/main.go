// Package main provides the rlconvert CLI, which converts PPO checkpoints
// between the native training format and compiled inference graphs.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/born-ml/rlconvert/internal/console"
	"github.com/born-ml/rlconvert/internal/convert"
)

var version = "v0.1.0-dev"

// errNoFolder is returned when the operator gives no source folder.
var errNoFolder = errors.New(console.NoFolderMsg)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	code := report(os.Stderr, err)
	klog.Flush()
	os.Exit(code)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rlconvert",
		Short:         "Convert PPO checkpoints between native (.pt) and compiled (.LT) formats",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)
	root.PersistentFlags().AddGoFlagSet(klogFlags)

	root.AddCommand(newConvertCmd(), newInspectCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rlconvert %s\n", version)
		},
	}
}

// report prints err for the operator and returns the process exit code.
func report(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	var missing *convert.MissingInputsError
	switch {
	case errors.Is(err, errNoFolder):
		fmt.Fprintln(w, console.Error(console.NoFolderMsg))
	case errors.As(err, &missing):
		fmt.Fprintln(w, console.Error(missing.Error()))
	default:
		klog.Errorf("rlconvert failed: %v", err)
		klog.V(1).Infof("details: %+v", err)
	}
	return 1
}
